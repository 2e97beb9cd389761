package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance/internal/database"
)

// AttendanceHandler handles ledger endpoints
type AttendanceHandler struct {
	engine Engine
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(eng Engine) *AttendanceHandler {
	return &AttendanceHandler{engine: eng}
}

// AttendanceResponse lists ledger records
type AttendanceResponse struct {
	Date    string                      `json:"date,omitempty"`
	Records []database.AttendanceRecord `json:"records"`
	Count   int                         `json:"count"`
}

// DeleteResponse reports how many records a purge removed
type DeleteResponse struct {
	Date    string `json:"date,omitempty"`
	Name    string `json:"name,omitempty"`
	Deleted int    `json:"deleted"`
}

// List returns ledger records, optionally filtered by ?date=YYYY-MM-DD.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := database.ParseDate(date); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	records, err := h.engine.ListAttendance(r.Context(), date)
	if err != nil {
		respondEngineError(w, r, err, "failed to list attendance")
		return
	}
	if records == nil {
		records = []database.AttendanceRecord{}
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{Date: date, Records: records, Count: len(records)})
}

// DeleteDate removes every record of one date.
func (h *AttendanceHandler) DeleteDate(w http.ResponseWriter, r *http.Request) {
	date := urlParam(r, "date")

	n, err := h.engine.DeleteAttendanceForDate(r.Context(), date)
	if err != nil {
		respondEngineError(w, r, err, "failed to delete attendance")
		return
	}

	respondJSON(w, http.StatusOK, DeleteResponse{Date: date, Deleted: n})
}

// DeleteIdentity removes every record of one identity.
func (h *AttendanceHandler) DeleteIdentity(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	n, err := h.engine.DeleteAttendanceForIdentity(r.Context(), name)
	if err != nil {
		respondEngineError(w, r, err, "failed to delete attendance")
		return
	}

	respondJSON(w, http.StatusOK, DeleteResponse{Name: name, Deleted: n})
}

// Dashboard returns the known/present counters for today or for ?date=.
func (h *AttendanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		summary database.Summary
		err     error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		summary, err = h.engine.SummaryForDate(r.Context(), date)
	} else {
		summary, err = h.engine.GetDashboardSummary(r.Context(), h.engine.Now())
	}
	if err != nil {
		respondEngineError(w, r, err, "failed to build dashboard")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
