package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

// SafetyCheckRequest carries a site photo reference for classification.
type SafetyCheckRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	ImageURL  string `json:"image_url" validate:"required,url"`
	ZoneName  string `json:"zone_name,omitempty"`
}

// SafetyCheckResult is the classifier verdict for one photo.
type SafetyCheckResult struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Violations []string `json:"violations,omitempty"`
}

// SafetyService forwards site photos to an external classifier that
// flags safety violations (missing helmets, blocked exits). The
// classifier is best-effort infrastructure: when it is disabled or
// unreachable the caller gets a typed error and nothing else in the
// system is affected.
type SafetyService struct {
	client  *http.Client
	baseURL string
	enabled bool
	logger  *zap.Logger
}

// NewSafetyService constructs a SafetyService.
func NewSafetyService(baseURL string, timeout time.Duration, enabled bool, logger *zap.Logger) *SafetyService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafetyService{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether the classifier proxy is configured.
func (s *SafetyService) Enabled() bool {
	return s != nil && s.enabled && s.baseURL != ""
}

// Classify submits one photo to the classifier and returns its verdict.
func (s *SafetyService) Classify(ctx context.Context, req SafetyCheckRequest) (*SafetyCheckResult, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "safety classifier is not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode classifier request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build classifier request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Warn("safety classifier unreachable", zap.Error(err))
		return nil, appErrors.Wrap(err, "CLASSIFIER_UNAVAILABLE", http.StatusBadGateway, "safety classifier unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Warn("safety classifier rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload))
		return nil, appErrors.New("CLASSIFIER_ERROR", http.StatusBadGateway,
			fmt.Sprintf("safety classifier returned status %d", resp.StatusCode))
	}

	var result SafetyCheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, appErrors.Wrap(err, "CLASSIFIER_ERROR", http.StatusBadGateway, "failed to decode classifier response")
	}
	return &result, nil
}
