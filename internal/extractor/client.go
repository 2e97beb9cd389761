// Package extractor talks to the face embedding service that turns an image into
// face boxes and embeddings.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/facematch"
)

const (
	defaultURL     = "http://localhost:8000"
	facesEndpoint  = "/embed/face"
	requestTimeout = 30 * time.Second
)

// ErrEmptyImage is returned for a zero-length image.
var ErrEmptyImage = errors.New("empty image")

// Client computes face detections using the embedding server
type Client struct {
	baseURL      string
	client       *http.Client
	maxImageSize int
}

// Option configures a Client
type Option func(*Client)

// WithMaxImageSize sets the longest side an image may have before it is
// downscaled for upload. Zero disables downscaling.
func WithMaxImageSize(n int) Option {
	return func(c *Client) { c.maxImageSize = n }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new extractor client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultURL
	}
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		client:       &http.Client{Timeout: requestTimeout},
		maxImageSize: constants.MaxImageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FaceDetection represents a single detected face as returned by the server
type FaceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// FaceResponse represents the response from the face embedding endpoint
type FaceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []FaceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Detections converts the server response into matcher input, multiplying box
// coordinates by scale. A face the server could not encode keeps a nil embedding.
func (r *FaceResponse) Detections(scale float64) []facematch.Detection {
	dets := make([]facematch.Detection, 0, len(r.Faces))
	for _, f := range r.Faces {
		corners := make([]float64, len(f.BBox))
		for i, v := range f.BBox {
			corners[i] = v * scale
		}
		d := facematch.Detection{Box: facematch.BoxFromCorners(corners)}
		if len(f.Embedding) > 0 {
			d.Embedding = facematch.Embedding(f.Embedding)
		}
		dets = append(dets, d)
	}
	return dets
}

// DetectAndEncode returns every face found in imageData with its embedding. Boxes
// are in the pixel space of imageData even when a downscaled copy was uploaded.
func (c *Client) DetectAndEncode(ctx context.Context, imageData []byte) ([]facematch.Detection, error) {
	if len(imageData) == 0 {
		return nil, ErrEmptyImage
	}
	upload, scale, err := downscale(imageData, c.maxImageSize)
	if err != nil {
		return nil, err
	}
	resp, err := c.ComputeFaceEmbeddings(ctx, upload)
	if err != nil {
		return nil, err
	}
	return resp.Detections(scale), nil
}

// ComputeFaceEmbeddings posts the image and returns the raw server response
func (c *Client) ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*FaceResponse, error) {
	if len(imageData) == 0 {
		return nil, ErrEmptyImage
	}

	body, err := c.postMultipartImage(ctx, facesEndpoint, imageData)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &faceResp, nil
}

// postMultipartImage posts imageData as the "file" form field with a sniffed Content-Type.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", http.DetectContentType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
