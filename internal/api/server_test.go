package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/mystara/internal/engine"
	"github.com/talgya/mystara/internal/fortune"
	"github.com/talgya/mystara/internal/persistence"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng, err := engine.New(db, nil, fortune.NewField(1))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return &Server{Eng: eng, DB: db, Port: 0, AdminKey: "dm-key"}
}

func TestAdminOnlyAuth(t *testing.T) {
	s := newTestServer(t)
	handler := s.adminOnly(s.handleAdvance)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer dm-key", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/advance",
				strings.NewReader(`{"unit": "day", "count": 1}`))
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminOnlyDisabledWithoutKey(t *testing.T) {
	s := newTestServer(t)
	s.AdminKey = ""
	handler := s.adminOnly(s.handleAdvance)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/advance",
		strings.NewReader(`{"unit": "day", "count": 1}`))
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAdvanceUnitDispatch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantDay int
	}{
		{"one day", `{"unit": "day", "count": 1}`, 1},
		{"one week", `{"unit": "week", "count": 1}`, 7},
		{"one month", `{"unit": "month", "count": 1}`, 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/advance", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.handleAdvance(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var result engine.AdvanceResult
			if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if !result.Success {
				t.Error("result.Success = false")
			}
			if got := s.Eng.AbsoluteDay(); got != tt.wantDay {
				t.Errorf("AbsoluteDay = %d, want %d", got, tt.wantDay)
			}
		})
	}
}

func TestAdvanceRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown unit", `{"unit": "fortnight", "count": 1}`},
		{"malformed JSON", `{"unit": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/advance", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.handleAdvance(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if got := s.Eng.AbsoluteDay(); got != 0 {
				t.Errorf("AbsoluteDay = %d, want 0 (no advance on bad request)", got)
			}
		})
	}
}

func TestDateGet(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/date", nil)
	rec := httptest.NewRecorder()
	s.handleDate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		DisplayDate string `json:"display_date"`
		AbsoluteDay int    `json:"absolute_day"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DisplayDate != "01 NUWMONT 1" || resp.AbsoluteDay != 0 {
		t.Errorf("got %q day %d, want epoch date", resp.DisplayDate, resp.AbsoluteDay)
	}
}

func TestEventChoiceRouteRejectsUnknownEvent(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/no-such-id/choice",
		strings.NewReader(`{"option_index": 0}`))
	rec := httptest.NewRecorder()
	s.handleEventRoutes(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}
