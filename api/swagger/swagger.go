package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SiteOps API",
        "description": "Construction-site progress reporting and dashboard service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Login, tokens and invitation redemption"},
        {"name": "Companies", "description": "Tenancy roots"},
        {"name": "Projects", "description": "Project lifecycle"},
        {"name": "Activities", "description": "Bill-of-Quantities tree"},
        {"name": "Reports", "description": "Daily report submission and approval"},
        {"name": "Dashboard", "description": "Aggregated progress views"},
        {"name": "Reconciliation", "description": "Summary ledger repair"},
        {"name": "Equipment", "description": "Site equipment inventory"},
        {"name": "Invitations", "description": "User provisioning"},
        {"name": "Safety", "description": "Site photo classification"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/accept-invitation": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register from invitation token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcceptInvitationRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "410": {"description": "Invitation expired"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid refresh token"}}
            }
        },
        "/companies": {
            "get": {
                "tags": ["Companies"],
                "summary": "List companies",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Companies"],
                "summary": "Create company",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/companies/{companyId}/invitations": {
            "get": {
                "tags": ["Invitations"],
                "summary": "List invitations",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Invitations"],
                "summary": "Invite user",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create project",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/projects/{projectId}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Get project",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Projects"],
                "summary": "Update project",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Project closed"}}
            }
        },
        "/projects/{projectId}/close": {
            "post": {
                "tags": ["Projects"],
                "summary": "Close project",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/projects/{projectId}/activities": {
            "get": {
                "tags": ["Activities"],
                "summary": "List activities",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Create activity",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate code"}}
            }
        },
        "/activities/{id}/sub-activities": {
            "get": {
                "tags": ["Activities"],
                "summary": "List sub-activities",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Create sub-activity and seed its ledger entry",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/projects/{projectId}/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List daily reports",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Submit daily report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReportRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Project not found"}}
            }
        },
        "/projects/{projectId}/reports/{reportId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get daily report",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/projects/{projectId}/reports/{reportId}/approve": {
            "post": {
                "tags": ["Reports"],
                "summary": "Approve daily report with a work grade",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveReportRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/projects/{projectId}/reports/{reportId}/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export daily report as PDF",
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "PDF document"}}
            }
        },
        "/projects/{projectId}/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Aggregated project progress",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/projects/{projectId}/anomalies": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Recent ledger anomalies",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/projects/{projectId}/equipment": {
            "get": {
                "tags": ["Equipment"],
                "summary": "List equipment",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Equipment"],
                "summary": "Register equipment",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/projects/{projectId}/safety-checks": {
            "post": {
                "tags": ["Safety"],
                "summary": "Classify a site photo",
                "responses": {"200": {"description": "OK"}, "502": {"description": "Classifier unavailable"}}
            }
        },
        "/admin/reconcile": {
            "post": {
                "tags": ["Reconciliation"],
                "summary": "Replay report history and repair ledger drift",
                "responses": {"200": {"description": "Checked and fixed counts"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "AcceptInvitationRequest": {
            "type": "object",
            "required": ["token", "full_name", "password"],
            "properties": {
                "token": {"type": "string"},
                "full_name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitReportRequest": {
            "type": "object",
            "required": ["engineer_id", "cm_id", "report_date", "items"],
            "properties": {
                "engineer_id": {"type": "string"},
                "cm_id": {"type": "string"},
                "report_date": {"type": "string", "format": "date-time"},
                "remarks": {"type": "string"},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SubmitReportItem"}
                }
            }
        },
        "SubmitReportItem": {
            "type": "object",
            "required": ["sub_activity_id", "quantity"],
            "properties": {
                "sub_activity_id": {"type": "string"},
                "zone_name": {"type": "string"},
                "quantity": {"type": "number", "minimum": 0, "exclusiveMinimum": true},
                "general_foreman": {"type": "string"},
                "foreman": {"type": "string"},
                "subcontractor": {"type": "string"},
                "remarks": {"type": "string"}
            }
        },
        "ApproveReportRequest": {
            "type": "object",
            "required": ["grade"],
            "properties": {
                "grade": {"type": "string", "enum": ["A", "B", "C"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
