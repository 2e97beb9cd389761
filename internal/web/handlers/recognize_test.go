package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/database/mock"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/facematch"
)

func seedAlice(reg *mock.MockRegistry, _ *mock.MockLedger) {
	reg.Seed("Alice", facematch.Embedding{0, 0, 0})
}

func TestRecognizeHandler_RecordsOncePerDay(t *testing.T) {
	b := newTestBackend(t, seedAlice)
	handler := NewRecognizeHandler(b.engine, nil)

	body := RecognizeRequest{Detections: []facematch.Detection{
		{Box: facematch.BoundingBox{Top: 10, Right: 60, Bottom: 80, Left: 5}, Embedding: facematch.Embedding{0.1, 0, 0}},
		{Embedding: facematch.Embedding{5, 5, 5}},
	}}

	recorder := httptest.NewRecorder()
	handler.Recognize(recorder, jsonRequest(t, http.MethodPost, "/api/v1/recognize", body))

	assertStatusCode(t, recorder, http.StatusOK)
	var res engine.FrameResult
	parseJSONResponse(t, recorder, &res)
	if len(res.Annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(res.Annotations))
	}
	if res.Annotations[0].Label != "Alice" || res.Annotations[1].Label != facematch.Unknown {
		t.Errorf("unexpected labels: %q, %q", res.Annotations[0].Label, res.Annotations[1].Label)
	}
	if res.Annotations[0].Box.Left != 5 {
		t.Errorf("box not carried through: %+v", res.Annotations[0].Box)
	}
	if res.Status != "Recorded attendance for Alice at 09:15:00" {
		t.Errorf("unexpected status %q", res.Status)
	}

	recorder = httptest.NewRecorder()
	handler.Recognize(recorder, jsonRequest(t, http.MethodPost, "/api/v1/recognize", body))

	parseJSONResponse(t, recorder, &res)
	if res.Status != "Alice has already been marked present today." {
		t.Errorf("unexpected status on second frame %q", res.Status)
	}
	if n := len(b.ledger.Records()); n != 1 {
		t.Errorf("expected one ledger record, got %d", n)
	}
}

func TestRecognizeHandler_EmptyFrame(t *testing.T) {
	handler := NewRecognizeHandler(newTestBackend(t, seedAlice).engine, nil)

	recorder := httptest.NewRecorder()
	handler.Recognize(recorder, jsonRequest(t, http.MethodPost, "/api/v1/recognize", RecognizeRequest{}))

	assertStatusCode(t, recorder, http.StatusOK)
	var res engine.FrameResult
	parseJSONResponse(t, recorder, &res)
	if len(res.Annotations) != 0 || res.Status != "" {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRecognizeHandler_Image(t *testing.T) {
	b := newTestBackend(t, seedAlice)
	det := &fakeDetector{dets: []facematch.Detection{{Embedding: facematch.Embedding{0, 0.2, 0}}}}
	handler := NewRecognizeHandler(b.engine, det)

	recorder := httptest.NewRecorder()
	handler.Recognize(recorder, multipartRequest(t, "/api/v1/recognize", []byte("jpeg"), nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if n := len(b.ledger.Records()); n != 1 {
		t.Errorf("expected attendance recorded, got %d records", n)
	}
}

func TestRecognizeHandler_LedgerFailure(t *testing.T) {
	b := newTestBackend(t, seedAlice)
	b.ledger.RecordError = database.ErrStorageWrite
	handler := NewRecognizeHandler(b.engine, nil)

	body := RecognizeRequest{Detections: []facematch.Detection{{Embedding: facematch.Embedding{0, 0, 0}}}}
	recorder := httptest.NewRecorder()
	handler.Recognize(recorder, jsonRequest(t, http.MethodPost, "/api/v1/recognize", body))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to process frame")
}

func TestRecognizeHandler_DimensionMismatch(t *testing.T) {
	handler := NewRecognizeHandler(newTestBackend(t, seedAlice).engine, nil)

	body := RecognizeRequest{Detections: []facematch.Detection{{Embedding: facematch.Embedding{0, 0}}}}
	recorder := httptest.NewRecorder()
	handler.Recognize(recorder, jsonRequest(t, http.MethodPost, "/api/v1/recognize", body))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to process frame: embedding dimension mismatch")
}
