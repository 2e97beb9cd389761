package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Engine is the subset of *engine.Engine used by the HTTP API.
type Engine interface {
	Now() time.Time
	ListIdentities(ctx context.Context) ([]string, error)
	RegisterIdentity(ctx context.Context, name string, emb facematch.Embedding) (int, error)
	RegisterFromDetections(ctx context.Context, dets []facematch.Detection, name string) (int, error)
	DeleteIdentity(ctx context.Context, name string) (int, error)
	ProcessFrameDetections(ctx context.Context, dets []facematch.Detection, now time.Time) (engine.FrameResult, error)
	ListAttendance(ctx context.Context, date string) ([]database.AttendanceRecord, error)
	DeleteAttendanceForDate(ctx context.Context, date string) (int, error)
	DeleteAttendanceForIdentity(ctx context.Context, name string) (int, error)
	GetDashboardSummary(ctx context.Context, now time.Time) (database.Summary, error)
	SummaryForDate(ctx context.Context, date string) (database.Summary, error)
	Nearest(ctx context.Context, probe facematch.Embedding, k int) ([]database.Neighbor, error)
}

// Detector turns an uploaded image into face detections.
type Detector interface {
	DetectAndEncode(ctx context.Context, image []byte) ([]facematch.Detection, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps engine and storage errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoFaceDetected), errors.Is(err, engine.ErrEncodingFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	default:
		// dimension mismatch, storage failures and anything unexpected
		return http.StatusInternalServerError
	}
}

// respondEngineError writes the mapped status. Client errors carry the error text;
// server errors are logged and answered with msg.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", sanitizeForLog(r.URL.Path)).Error(msg)
		if errors.Is(err, facematch.ErrDimensionMismatch) {
			msg = fmt.Sprintf("%s: %s", msg, facematch.ErrDimensionMismatch)
		}
		respondError(w, status, msg)
		return
	}
	respondError(w, status, err.Error())
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readImage parses a multipart upload and returns the bytes of its "image" field.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxImageUploadSize)
	if err := r.ParseMultipartForm(constants.MaxImageUploadSize); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("missing image field")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

// urlParam returns a decoded chi URL parameter.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
