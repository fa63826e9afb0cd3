package http

import (
	"log/slog"
	"net/http"

	"tirelire/internal/core"
)

// dashboardResponse bundles the snapshot with the current-month forecast
// so the dashboard renders from one request.
type dashboardResponse struct {
	core.Snapshot
	Forecast core.Forecast `json:"forecast"`
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := authenticatedUser(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	// Reject malformed ranges before touching the store.
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := s.stats.Snapshot(r.Context(), userID, window)
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	forecast, err := s.forecast.Forecast(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Forecast failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute forecast")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{Snapshot: snapshot, Forecast: forecast})
}

func (s *Server) handleMonthlyReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := authenticatedUser(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := s.review.Review(r.Context(), userID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Review failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute review")
		return
	}

	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := authenticatedUser(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	count, err := s.materializer.Materialize(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Materialization failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate recurring transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
