package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance/internal/database/mock"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// testNow is the fixed engine clock used by handler tests
var testNow = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)

// testBackend bundles an engine with the mocks behind it
type testBackend struct {
	engine   *engine.Engine
	registry *mock.MockRegistry
	ledger   *mock.MockLedger
}

// newTestBackend creates a 3-dimensional engine over in-memory mocks. seed runs
// before the engine loads the registry.
func newTestBackend(t *testing.T, seed func(reg *mock.MockRegistry, led *mock.MockLedger)) *testBackend {
	t.Helper()
	reg := mock.NewMockRegistry()
	led := mock.NewMockLedger()
	if seed != nil {
		seed(reg, led)
	}
	eng, err := engine.New(context.Background(), engine.Options{
		Registry:  reg,
		Ledger:    led,
		Threshold: 0.6,
		Dim:       3,
		Location:  time.UTC,
		Clock:     engine.ClockFunc(func() time.Time { return testNow }),
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return &testBackend{engine: eng, registry: reg, ledger: led}
}

// fakeDetector returns canned detections
type fakeDetector struct {
	dets  []facematch.Detection
	err   error
	calls int
}

func (f *fakeDetector) DetectAndEncode(ctx context.Context, image []byte) ([]facematch.Detection, error) {
	f.calls++
	return f.dets, f.err
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a request with an "image" file and extra form fields
func multipartRequest(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "frame.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(image)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
