package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// downscale shrinks an image so neither side exceeds maxSize, keeping aspect
// ratio, and re-encodes it as JPEG. scale is original/new size, so extractor
// coordinates multiplied by scale land on the original image. Images already
// within bounds, and images that cannot be decoded, are returned unchanged with
// scale 1.
func downscale(data []byte, maxSize int) (out []byte, scale float64, err error) {
	if maxSize <= 0 {
		return data, 1, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= maxSize && cfg.Height <= maxSize) {
		return data, 1, nil //nolint:nilerr // unknown formats go to the extractor as-is
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return nil, 0, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), float64(width) / float64(newWidth), nil
}
