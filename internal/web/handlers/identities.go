package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/facematch"
)

// IdentitiesHandler handles registry endpoints
type IdentitiesHandler struct {
	engine   Engine
	detector Detector
}

// NewIdentitiesHandler creates a new identities handler. detector may be nil, in
// which case image uploads are rejected.
func NewIdentitiesHandler(eng Engine, det Detector) *IdentitiesHandler {
	return &IdentitiesHandler{
		engine:   eng,
		detector: det,
	}
}

// IdentitiesResponse lists enrolled names
type IdentitiesResponse struct {
	Identities []string `json:"identities"`
	Count      int      `json:"count"`
}

// RegisterRequest enrolls a face from a known embedding or from extractor detections.
// Embedding wins when both are given.
type RegisterRequest struct {
	Name       string                `json:"name"`
	Embedding  facematch.Embedding   `json:"embedding,omitempty"`
	Detections []facematch.Detection `json:"detections,omitempty"`
}

// RegisterResponse reports the identity count after a mutation
type RegisterResponse struct {
	Name       string `json:"name"`
	Identities int    `json:"identities"`
}

// List returns all enrolled identities in registration order.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.engine.ListIdentities(r.Context())
	if err != nil {
		respondEngineError(w, r, err, "failed to list identities")
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, IdentitiesResponse{Identities: names, Count: len(names)})
}

// Create enrolls a face. Accepts JSON (RegisterRequest) or a multipart form with
// "name" and "image" fields.
func (h *IdentitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		count int
		err   error
		name  string
	)

	if isMultipart(r) {
		if h.detector == nil {
			respondError(w, http.StatusServiceUnavailable, "face extractor not configured")
			return
		}
		image, readErr := readImage(w, r)
		if readErr != nil {
			respondError(w, http.StatusBadRequest, readErr.Error())
			return
		}
		name = r.FormValue("name")
		dets, detErr := h.detector.DetectAndEncode(r.Context(), image)
		if detErr != nil {
			log.WithError(detErr).Error("Face extraction failed")
			respondError(w, http.StatusBadGateway, "face extraction failed")
			return
		}
		count, err = h.engine.RegisterFromDetections(r.Context(), dets, name)
	} else {
		var req RegisterRequest
		if decErr := decodeJSON(w, r, &req); decErr != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		name = req.Name
		if len(req.Embedding) > 0 {
			count, err = h.engine.RegisterIdentity(r.Context(), req.Name, req.Embedding)
		} else {
			count, err = h.engine.RegisterFromDetections(r.Context(), req.Detections, req.Name)
		}
	}

	if err != nil {
		respondEngineError(w, r, err, "failed to register identity")
		return
	}

	respondJSON(w, http.StatusCreated, RegisterResponse{Name: facematch.CanonicalName(name), Identities: count})
}

// Delete removes an identity and all its references. Attendance history is kept.
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	count, err := h.engine.DeleteIdentity(r.Context(), name)
	if err != nil {
		respondEngineError(w, r, err, "failed to delete identity")
		return
	}

	respondJSON(w, http.StatusOK, RegisterResponse{Name: facematch.CanonicalName(name), Identities: count})
}
