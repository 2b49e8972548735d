// Package api provides the HTTP API consumed by the campaign GUI.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (the DM control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/talgya/mystara/internal/calendar"
	"github.com/talgya/mystara/internal/campaign"
	"github.com/talgya/mystara/internal/engine"
	"github.com/talgya/mystara/internal/persistence"
)

// Server serves the campaign state over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The imprevisto endpoint can trigger an LLM call per hit.
	imprevistoLimiter := NewRateLimiter(20, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — the table can check the world state).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/date", s.handleDate)
	mux.HandleFunc("/api/v1/accounts", s.handleAccounts)
	mux.HandleFunc("/api/v1/accounts/", s.adminOnly(s.handleAccountRoutes))
	mux.HandleFunc("/api/v1/recurring", s.handleRecurring)
	mux.HandleFunc("/api/v1/objectives", s.handleObjectives)
	mux.HandleFunc("/api/v1/objectives/", s.adminOnly(s.handleObjectiveRoutes(imprevistoLimiter)))
	mux.HandleFunc("/api/v1/events/pending", s.handlePendingEvents)
	mux.HandleFunc("/api/v1/events/", s.adminOnly(s.handleEventRoutes))

	// DM endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/advance", s.adminOnly(s.handleAdvance))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ") == s.AdminKey && s.AdminKey != ""
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "DM endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.DB.ListAccounts()
	if err != nil {
		slog.Warn("status: list accounts failed", "error", err)
	}
	objectives, err := s.DB.ListObjectives()
	if err != nil {
		slog.Warn("status: list objectives failed", "error", err)
	}
	pending, err := s.DB.ListPendingEvents()
	if err != nil {
		slog.Warn("status: list pending events failed", "error", err)
	}

	inProgress := 0
	for _, o := range objectives {
		if o.Status == campaign.StatusInProgress {
			inProgress++
		}
	}

	writeJSON(w, map[string]any{
		"date":                   s.Eng.DisplayDate(),
		"absolute_day":           s.Eng.AbsoluteDay(),
		"accounts":               len(accounts),
		"objectives":             len(objectives),
		"objectives_in_progress": inProgress,
		"pending_events":         len(pending),
	})
}

// handleDate serves the current date on GET and sets it manually on POST.
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		absDay := s.Eng.AbsoluteDay()
		d := calendar.FromAbsoluteDay(absDay)
		writeJSON(w, map[string]any{
			"display_date": d.Format(),
			"absolute_day": absDay,
			"day":          d.Day,
			"month_index":  d.MonthIndex,
			"month_name":   d.MonthName,
			"year":         d.Year,
		})
	case http.MethodPost:
		if s.AdminKey == "" || !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Day        int `json:"day"`
			MonthIndex int `json:"month_index"`
			Year       int `json:"year"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		result := s.Eng.SetDateManually(req.Day, req.MonthIndex, req.Year)
		if !result.Success {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		writeJSON(w, result)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdvance advances game time: {"unit": "day"|"week"|"month", "count": n}.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Unit  string `json:"unit"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var result engine.AdvanceResult
	switch req.Unit {
	case "day":
		result = s.Eng.AdvanceDays(req.Count)
	case "week":
		result = s.Eng.AdvanceWeeks(req.Count)
	case "month":
		result = s.Eng.AdvanceMonths(req.Count)
	default:
		http.Error(w, fmt.Sprintf("unknown unit %q (want day, week, or month)", req.Unit), http.StatusBadRequest)
		return
	}

	if !result.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	writeJSON(w, result)
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accounts, err := s.DB.ListAccounts()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		result := make([]map[string]any, 0, len(accounts))
		for _, a := range accounts {
			balance, _ := a.Balance.Float64()
			result = append(result, map[string]any{
				"id":                      a.ID,
				"name":                    a.Name,
				"balance":                 a.Balance,
				"balance_display":         humanize.CommafWithDigits(balance, 2),
				"annual_interest_percent": a.InterestPercent,
			})
		}
		writeJSON(w, result)
	case http.MethodPost:
		if s.AdminKey == "" || !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Name            string          `json:"name"`
			Balance         decimal.Decimal `json:"balance"`
			InterestPercent decimal.Decimal `json:"annual_interest_percent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := s.DB.CreateAccount(req.Name, req.Balance, req.InterestPercent)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, map[string]any{"success": true, "id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAccountRoutes dispatches POST /api/v1/accounts/{id}/deposit and /withdraw.
func (s *Server) handleAccountRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/accounts/"), "/")
	if len(parts) != 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	switch parts[1] {
	case "deposit":
		if err := s.DB.Credit(id, req.Amount); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, map[string]any{"success": true})
	case "withdraw":
		applied, err := s.DB.Debit(id, req.Amount)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if !applied {
			writeJSON(w, map[string]any{"success": false, "message": "insufficient funds"})
			return
		}
		writeJSON(w, map[string]any{"success": true})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.DB.ListRecurringItems()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, items)
	case http.MethodPost:
		if s.AdminKey == "" || !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var item campaign.RecurringItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := s.DB.CreateRecurringItem(item)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, map[string]any{"success": true, "id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		objectives, err := s.DB.ListObjectives()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		result := make([]map[string]any, 0, len(objectives))
		for _, o := range objectives {
			entry := map[string]any{
				"id":                    o.ID,
				"name":                  o.Name,
				"status":                o.Status.String(),
				"estimated_months":      o.EstimatedMonths,
				"base_estimated_months": o.BaseEstimatedMonths,
				"total_cost":            o.TotalCost,
				"progress_percentage":   o.ProgressPercentage,
				"linked_account_id":     o.LinkedAccountID,
			}
			if o.StartDay != nil {
				entry["start_date"] = calendar.Display(*o.StartDay)
			}
			result = append(result, entry)
		}
		writeJSON(w, result)
	case http.MethodPost:
		if s.AdminKey == "" || !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var o campaign.Objective
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := s.DB.CreateObjective(o)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, map[string]any{"success": true, "id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleObjectiveRoutes dispatches POST /api/v1/objectives/{id}/start and
// /api/v1/objectives/{id}/imprevisto. Only the imprevisto route is
// rate-limited — it may cost an LLM call.
func (s *Server) handleObjectiveRoutes(imprevistoLimiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/objectives/"), "/")
		if len(parts) != 2 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			http.Error(w, "invalid objective id", http.StatusBadRequest)
			return
		}

		switch parts[1] {
		case "start":
			if err := s.Eng.StartObjective(id); err != nil {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			writeJSON(w, map[string]any{"success": true, "start_date": s.Eng.DisplayDate()})
		case "imprevisto":
			RateLimitMiddleware(imprevistoLimiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleImprevisto(w, r, id)
			})(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
}

func (s *Server) handleImprevisto(w http.ResponseWriter, r *http.Request, objectiveID int64) {
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}
	ev, err := s.Eng.RollImprevisto(objectiveID, req.Description)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]any{"success": true, "event": ev})
}

func (s *Server) handlePendingEvents(w http.ResponseWriter, r *http.Request) {
	pending, err := s.Eng.ListPendingEvents()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, pending)
}

// handleEventRoutes dispatches POST /api/v1/events/{id}/choice.
func (s *Server) handleEventRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/events/"), "/")
	if len(parts) != 2 || parts[1] != "choice" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req struct {
		OptionIndex int `json:"option_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Eng.RegisterChoice(parts[0], req.OptionIndex); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
