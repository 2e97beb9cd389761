package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/extractor"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// faceInput is what the user supplied through addInputFlags. Exactly one field is set.
type faceInput struct {
	Embedding  facematch.Embedding
	Detections []facematch.Detection
}

// readFaceInput resolves --embedding, --detections or --image.
func readFaceInput(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (faceInput, error) {
	if path := mustGetString(cmd, "embedding"); path != "" {
		emb, err := readEmbeddingFile(path)
		return faceInput{Embedding: emb}, err
	}
	if path := mustGetString(cmd, "detections"); path != "" {
		dets, err := readDetectionsFile(path)
		return faceInput{Detections: dets}, err
	}
	if path := mustGetString(cmd, "image"); path != "" {
		dets, err := detectImage(ctx, extractor.NewClient(cfg.Embedding.ExtractorURL), path)
		return faceInput{Detections: dets}, err
	}
	return faceInput{}, errors.New("one of --image, --detections or --embedding is required")
}

func readEmbeddingFile(path string) (facematch.Embedding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading embedding: %w", err)
	}
	var emb facematch.Embedding
	if err := json.Unmarshal(data, &emb); err != nil {
		return nil, fmt.Errorf("parsing embedding %s: %w", path, err)
	}
	return emb, nil
}

func readDetectionsFile(path string) ([]facematch.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading detections: %w", err)
	}
	var dets []facematch.Detection
	if err := json.Unmarshal(data, &dets); err != nil {
		return nil, fmt.Errorf("parsing detections %s: %w", path, err)
	}
	return dets, nil
}

// detector is satisfied by *extractor.Client
type detector interface {
	DetectAndEncode(ctx context.Context, image []byte) ([]facematch.Detection, error)
}

func detectImage(ctx context.Context, det detector, path string) ([]facematch.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	dets, err := det.DetectAndEncode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting faces from %s: %w", path, err)
	}
	return dets, nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
