package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// NearestHandler exposes the diagnostic nearest-reference search
type NearestHandler struct {
	engine Engine
}

// NewNearestHandler creates a new nearest handler
func NewNearestHandler(eng Engine) *NearestHandler {
	return &NearestHandler{engine: eng}
}

// NearestRequest asks for the K references closest to Embedding
type NearestRequest struct {
	Embedding facematch.Embedding `json:"embedding"`
	K         int                 `json:"k,omitempty"`
}

// NearestResponse lists hits by ascending distance
type NearestResponse struct {
	Neighbors []database.Neighbor `json:"neighbors"`
}

// Search returns the nearest stored references to the request embedding.
func (h *NearestHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req NearestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}
	if req.K <= 0 {
		req.K = constants.DefaultNearestK
	}
	req.K = min(req.K, constants.MaxNearestK)

	hits, err := h.engine.Nearest(r.Context(), req.Embedding, req.K)
	if err != nil {
		respondEngineError(w, r, err, "nearest search failed")
		return
	}
	if hits == nil {
		hits = []database.Neighbor{}
	}

	respondJSON(w, http.StatusOK, NearestResponse{Neighbors: hits})
}
