// internal/server/server_test.go
package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bkaplan/brickwatch/pkg/types"
)

type staticSource struct {
	reports map[string]*types.ChangeReport
}

func (s *staticSource) Categories() []string {
	names := make([]string, 0, len(s.reports))
	for name := range s.reports {
		names = append(names, name)
	}
	return names
}

func (s *staticSource) LatestReport(category string) (*types.ChangeReport, bool) {
	report, ok := s.reports[category]
	return report, ok
}

func testServer() *Server {
	source := &staticSource{reports: map[string]*types.ChangeReport{
		"icons": {
			Category: "icons",
			Summary:  types.ChangeSummary{TotalCurrentProducts: 3},
		},
	}}
	return New(":0", source, nil, nil)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestReportEndpoint(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/icons", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report types.ChangeReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Summary.TotalCurrentProducts != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestReportEndpointUnknownCategory(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/unknown", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestReportsIndex(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var reports map[string]*types.ChangeReport
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(reports) != 1 || reports["icons"] == nil {
		t.Errorf("unexpected index: %v", reports)
	}
}
