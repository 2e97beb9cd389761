package engine

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// Capture is the output of the capture step for one registration attempt.
type Capture struct {
	FacesDetected int
	Embedding     facematch.Embedding
}

// CaptureFromDetections builds a Capture from extractor output. The first face is used.
func CaptureFromDetections(dets []facematch.Detection) Capture {
	c := Capture{FacesDetected: len(dets)}
	if len(dets) > 0 {
		c.Embedding = dets[0].Embedding
	}
	return c
}

// CaptureAndValidate checks a capture and, if valid, enrolls it under name.
// It returns the identity count after the change.
func (e *Engine) CaptureAndValidate(ctx context.Context, c Capture, name string) (int, error) {
	if c.FacesDetected <= 0 {
		return 0, ErrNoFaceDetected
	}
	if len(c.Embedding) == 0 {
		return 0, ErrEncodingFailed
	}
	return e.RegisterIdentity(ctx, name, c.Embedding)
}

// RegisterFromDetections enrolls the first detected face under name.
func (e *Engine) RegisterFromDetections(ctx context.Context, dets []facematch.Detection, name string) (int, error) {
	return e.CaptureAndValidate(ctx, CaptureFromDetections(dets), name)
}

// RegisterIdentity appends emb as a reference for name and returns the identity count.
func (e *Engine) RegisterIdentity(ctx context.Context, name string, emb facematch.Embedding) (int, error) {
	name, err := database.ValidateName(name)
	if err != nil {
		return 0, err
	}
	if len(emb) == 0 {
		return 0, fmt.Errorf("%w: embedding must not be empty", database.ErrInvalidInput)
	}
	if err := e.checkDim(emb); err != nil {
		return 0, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	err = e.registry.Add(ctx, name, emb)
	e.metrics.IncrementMutation("add", err)
	if err != nil {
		e.metrics.IncrementStorageError("add")
		log.WithError(err).WithField("name", name).Error("Failed to register identity")
		return 0, fmt.Errorf("registering %q: %w", name, err)
	}

	next := e.Snapshot().Append(name, emb)
	e.setSnapshot(next)

	log.WithFields(log.Fields{"name": name, "identities": next.Count()}).Info("Identity registered")
	return next.Count(), nil
}

// DeleteIdentity removes name and all its references. Attendance history is kept.
// It returns the identity count after the change.
func (e *Engine) DeleteIdentity(ctx context.Context, name string) (int, error) {
	name, err := database.ValidateName(name)
	if err != nil {
		return 0, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	err = e.registry.Remove(ctx, name)
	e.metrics.IncrementMutation("remove", err)
	if err != nil {
		return 0, fmt.Errorf("deleting %q: %w", name, err)
	}

	next, _ := e.Snapshot().Without(name)
	e.setSnapshot(next)

	log.WithFields(log.Fields{"name": name, "identities": next.Count()}).Info("Identity deleted")
	return next.Count(), nil
}
