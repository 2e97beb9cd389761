package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// Annotation describes one face of a frame for the presentation layer to draw.
type Annotation struct {
	Box      facematch.BoundingBox   `json:"box"`
	Label    string                  `json:"label"`
	Matched  bool                    `json:"matched"`
	Distance float64                 `json:"distance,omitempty"`
	Status   string                  `json:"status,omitempty"`
	Outcome  *database.RecordOutcome `json:"outcome,omitempty"`
}

// FrameResult is the outcome of one frame. Status is the last non-empty
// per-face status.
type FrameResult struct {
	ID          uuid.UUID    `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Annotations []Annotation `json:"annotations"`
	Status      string       `json:"status"`
}

// StatusText renders the user-facing line for a ledger outcome.
func StatusText(out database.RecordOutcome) string {
	if out.Created {
		return fmt.Sprintf("Recorded attendance for %s at %s", out.Record.Name, out.Record.Time)
	}
	return fmt.Sprintf("%s has already been marked present today.", out.Record.Name)
}

// ProcessFrameDetections matches every detection against the current snapshot and
// records attendance for each match at now. A face without an embedding is
// labelled Unknown. The first storage or configuration error stops the frame; the
// returned result then covers the faces handled before it.
func (e *Engine) ProcessFrameDetections(ctx context.Context, dets []facematch.Detection, now time.Time) (FrameResult, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveFrameLatency(time.Since(start)) }()

	when := now.In(e.loc)
	reg := e.Snapshot()
	res := FrameResult{
		ID:          uuid.New(),
		Timestamp:   when,
		Annotations: make([]Annotation, 0, len(dets)),
	}
	logger := log.WithField("frame", res.ID.String())

	for _, det := range dets {
		ann := Annotation{Box: det.Box, Label: facematch.Unknown}

		if len(det.Embedding) > 0 {
			m, err := facematch.Match(det.Embedding, reg, e.threshold, e.policy)
			if err != nil {
				return res, fmt.Errorf("matching face: %w", err)
			}
			ann.Label = m.Label()
			ann.Matched = m.Matched
			ann.Distance = m.Distance
		}
		e.metrics.IncrementFace(ann.Matched)

		if ann.Matched {
			out, err := e.ledger.Record(ctx, ann.Label, when)
			if err != nil {
				e.metrics.IncrementStorageError("record")
				logger.WithError(err).WithField("name", ann.Label).Error("Failed to record attendance")
				return res, fmt.Errorf("recording attendance for %q: %w", ann.Label, err)
			}
			e.metrics.IncrementOutcome(out.Created)

			ann.Outcome = &out
			ann.Status = StatusText(out)
			res.Status = ann.Status

			logger.WithFields(log.Fields{
				"name":     ann.Label,
				"distance": ann.Distance,
				"created":  out.Created,
			}).Info("Face recognized")
		}

		res.Annotations = append(res.Annotations, ann)
	}

	return res, nil
}
