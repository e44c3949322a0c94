// Command ledger_drift replays a project's report history through the
// public API and diffs the result against the dashboard's ledger
// counters. It is an operational smoke check: run it against a live
// deployment when dashboard numbers look suspicious, before reaching
// for POST /admin/reconcile.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

const tolerance = 1e-6

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page       int `json:"page"`
		PageSize   int `json:"page_size"`
		TotalCount int `json:"total_count"`
	} `json:"pagination"`
}

type dashboard struct {
	ProjectID     string `json:"project_id"`
	ProjectName   string `json:"project_name"`
	SubActivities []struct {
		SubActivityID string  `json:"sub_activity_id"`
		DoneWork      float64 `json:"done_work"`
		PendingWork   float64 `json:"pending_work"`
	} `json:"sub_activities"`
}

type report struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  []struct {
		SubActivityID string  `json:"sub_activity_id"`
		Quantity      float64 `json:"quantity"`
	} `json:"items"`
}

type drift struct {
	SubActivityID   string
	LedgerDone      float64
	ExpectedDone    float64
	LedgerPending   float64
	ExpectedPending float64
}

func main() {
	var (
		base      string
		projectID string
		token     string
		timeout   time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&projectID, "project", "", "project ID to check")
	flag.StringVar(&token, "token", os.Getenv("SITEOPS_TOKEN"), "bearer token")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if projectID == "" {
		log.Fatal("-project is required")
	}

	client := &apiClient{base: strings.TrimRight(base, "/"), token: token, http: &http.Client{Timeout: timeout}}

	dash, err := client.dashboard(projectID)
	if err != nil {
		log.Fatalf("failed to load dashboard: %v", err)
	}
	reports, err := client.allReports(projectID)
	if err != nil {
		log.Fatalf("failed to load report history: %v", err)
	}

	expectedDone := map[string]float64{}
	expectedPending := map[string]float64{}
	for _, r := range reports {
		for _, item := range r.Items {
			switch r.Status {
			case "Approved":
				expectedDone[item.SubActivityID] += item.Quantity
			case "Pending":
				expectedPending[item.SubActivityID] += item.Quantity
			}
		}
	}

	var drifts []drift
	for _, card := range dash.SubActivities {
		wantDone := expectedDone[card.SubActivityID]
		wantPending := expectedPending[card.SubActivityID]
		if math.Abs(card.DoneWork-wantDone) <= tolerance && math.Abs(card.PendingWork-wantPending) <= tolerance {
			continue
		}
		drifts = append(drifts, drift{
			SubActivityID:   card.SubActivityID,
			LedgerDone:      card.DoneWork,
			ExpectedDone:    wantDone,
			LedgerPending:   card.PendingWork,
			ExpectedPending: wantPending,
		})
	}

	printReport(dash, len(reports), drifts)
	if len(drifts) > 0 {
		os.Exit(1)
	}
}

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *apiClient) get(path string, dest interface{}) (*envelope, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("GET %s: decode envelope: %w", path, err)
	}
	if dest != nil {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return nil, fmt.Errorf("GET %s: decode data: %w", path, err)
		}
	}
	return &env, nil
}

func (c *apiClient) dashboard(projectID string) (*dashboard, error) {
	var dash dashboard
	if _, err := c.get("/api/v1/projects/"+projectID+"/dashboard", &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// allReports pages through the full report history. Every page is
// fetched with items expanded one report at a time because the list
// endpoint returns headers only.
func (c *apiClient) allReports(projectID string) ([]report, error) {
	var out []report
	page := 1
	for {
		var headers []report
		env, err := c.get(fmt.Sprintf("/api/v1/projects/%s/reports?page=%d&page_size=100", projectID, page), &headers)
		if err != nil {
			return nil, err
		}
		for _, header := range headers {
			var full report
			if _, err := c.get(fmt.Sprintf("/api/v1/projects/%s/reports/%s", projectID, header.ID), &full); err != nil {
				return nil, err
			}
			out = append(out, full)
		}
		if env.Pagination == nil || page*env.Pagination.PageSize >= env.Pagination.TotalCount {
			return out, nil
		}
		page++
	}
}

func printReport(dash *dashboard, reportCount int, drifts []drift) {
	fmt.Println("Ledger Drift Report")
	fmt.Println("===================")
	fmt.Printf("Project: %s (%s)\n", dash.ProjectName, dash.ProjectID)
	fmt.Printf("Reports replayed: %d | Ledger entries: %d\n", reportCount, len(dash.SubActivities))
	if len(drifts) == 0 {
		fmt.Println("Ledger matches report history.")
		return
	}
	for _, d := range drifts {
		fmt.Printf("[DRIFT] %s\n", d.SubActivityID)
		fmt.Printf("  done: ledger=%g expected=%g\n", d.LedgerDone, d.ExpectedDone)
		fmt.Printf("  pending: ledger=%g expected=%g\n", d.LedgerPending, d.ExpectedPending)
	}
	fmt.Printf("Drifting entries: %d. Run POST /admin/reconcile to repair.\n", len(drifts))
}
