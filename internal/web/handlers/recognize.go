package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/facematch"
)

// RecognizeHandler runs recognition over a frame
type RecognizeHandler struct {
	engine   Engine
	detector Detector
}

// NewRecognizeHandler creates a new recognize handler
func NewRecognizeHandler(eng Engine, det Detector) *RecognizeHandler {
	return &RecognizeHandler{
		engine:   eng,
		detector: det,
	}
}

// RecognizeRequest carries the detections of one frame
type RecognizeRequest struct {
	Detections []facematch.Detection `json:"detections"`
}

// Recognize matches every face of a frame and records attendance for matches.
// Accepts JSON detections or a multipart "image" upload that is sent to the extractor.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var dets []facematch.Detection

	if isMultipart(r) {
		if h.detector == nil {
			respondError(w, http.StatusServiceUnavailable, "face extractor not configured")
			return
		}
		image, err := readImage(w, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		dets, err = h.detector.DetectAndEncode(r.Context(), image)
		if err != nil {
			log.WithError(err).Error("Face extraction failed")
			respondError(w, http.StatusBadGateway, "face extraction failed")
			return
		}
	} else {
		var req RecognizeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		dets = req.Detections
	}

	res, err := h.engine.ProcessFrameDetections(r.Context(), dets, h.engine.Now())
	if err != nil {
		log.WithField("frame", res.ID.String()).WithField("handled", len(res.Annotations)).Warn("Frame stopped early")
		respondEngineError(w, r, err, "failed to process frame")
		return
	}

	respondJSON(w, http.StatusOK, res)
}
