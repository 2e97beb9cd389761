package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/attendance/internal/database/mock"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/facematch"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestEngine(t *testing.T, reg *mock.MockRegistry) *engine.Engine {
	t.Helper()
	eng, err := engine.New(context.Background(), engine.Options{
		Registry:  reg,
		Ledger:    mock.NewMockLedger(),
		Threshold: 0.6,
		Dim:       2,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return eng
}

// pathDetector returns detections keyed by image content
type pathDetector map[string][]facematch.Detection

func (p pathDetector) DetectAndEncode(ctx context.Context, image []byte) ([]facematch.Detection, error) {
	dets, ok := p[string(image)]
	if !ok {
		return nil, errors.New("extractor unavailable")
	}
	return dets, nil
}

func TestNameFromFile(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"Ada_Lovelace.jpg", "Ada Lovelace"},
		{"Ada_Lovelace_2.jpg", "Ada Lovelace"},
		{"Bob.png", "Bob"},
		{"007.jpg", "007"},
		{"  Jiří   Novák .webp", "Jiří Novák"},
	}
	for _, tt := range tests {
		if got := nameFromFile(tt.file); got != tt.want {
			t.Errorf("nameFromFile(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestCollectImportJobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Bob_1.jpg"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "Ada Lovelace", "a.JPG"), "x")
	writeFile(t, filepath.Join(dir, "Ada Lovelace", "b.png"), "x")
	writeFile(t, filepath.Join(dir, "Ada Lovelace", "deep", "c.jpg"), "x")

	jobs, err := collectImportJobs(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []importJob{
		{Name: "Ada Lovelace", Path: filepath.Join(dir, "Ada Lovelace", "a.JPG")},
		{Name: "Ada Lovelace", Path: filepath.Join(dir, "Ada Lovelace", "b.png")},
		{Name: "Bob", Path: filepath.Join(dir, "Bob_1.jpg")},
	}
	if len(jobs) != len(want) {
		t.Fatalf("expected %d jobs, got %+v", len(want), jobs)
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("job[%d] = %+v, want %+v", i, jobs[i], want[i])
		}
	}
}

func TestResolveName(t *testing.T) {
	var reg facematch.Registry
	reg = reg.Append("Jiří Novák", facematch.Embedding{0, 0})

	if got := resolveName(reg, "jiri-novak"); got != "Jiří Novák" {
		t.Errorf("expected loose match onto existing identity, got %q", got)
	}
	if got := resolveName(reg, "  New   Person "); got != "New Person" {
		t.Errorf("expected canonical new name, got %q", got)
	}
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Ada", "1.jpg"), "ada1")
	writeFile(t, filepath.Join(dir, "Ada", "2.jpg"), "ada2")
	writeFile(t, filepath.Join(dir, "Bob.jpg"), "bob")
	writeFile(t, filepath.Join(dir, "Empty.jpg"), "empty")
	writeFile(t, filepath.Join(dir, "Broken.jpg"), "broken")

	det := pathDetector{
		"ada1":  {{Embedding: facematch.Embedding{0, 0}}},
		"ada2":  {{Embedding: facematch.Embedding{0, 0.1}}},
		"bob":   {{Embedding: facematch.Embedding{1, 1}}},
		"empty": {},
	}

	reg := mock.NewMockRegistry()
	eng := newTestEngine(t, reg)

	result, err := importDirectory(context.Background(), eng, det, dir, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Sources != 5 || result.Registered != 3 || result.Errors != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Identities != 2 {
		t.Errorf("expected 2 identities, got %d", result.Identities)
	}
	id, ok := eng.Snapshot().Find("Ada")
	if !ok || len(id.Embeddings) != 2 {
		t.Errorf("expected Ada with 2 references, got %+v", id)
	}
}

func TestImportRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered_faces.json")
	writeFile(t, path, `{"encodings": [[0, 0], [1, 1], [0, 0.2]], "names": ["Ada", "Bob", "Ada"]}`)

	reg := mock.NewMockRegistry()
	eng := newTestEngine(t, reg)

	result, err := importRegistryFile(context.Background(), eng, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sources != 3 || result.Registered != 3 || result.Identities != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if reg.AddCalls != 3 {
		t.Errorf("expected 3 adds, got %d", reg.AddCalls)
	}
}

func TestImportRegistryFile_Missing(t *testing.T) {
	eng := newTestEngine(t, mock.NewMockRegistry())
	if _, err := importRegistryFile(context.Background(), eng, filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing registry file")
	}
}

func TestReadEmbeddingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emb.json")
	writeFile(t, path, `[0.25, -0.5, 1]`)

	emb, err := readEmbeddingFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb) != 3 || emb[1] != -0.5 {
		t.Errorf("unexpected embedding %v", emb)
	}

	writeFile(t, path, `{"not": "an array"}`)
	if _, err := readEmbeddingFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestReadDetectionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.json")
	writeFile(t, path, `[{"box": {"top": 1, "right": 20, "bottom": 30, "left": 2}, "embedding": [0, 1]}, {"box": {}}]`)

	dets, err := readDetectionsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dets) != 2 || dets[0].Box.Right != 20 || dets[1].Embedding != nil {
		t.Errorf("unexpected detections %+v", dets)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
