package facematch

import "math"

// BoundingBox locates a face in frame pixels using top/right/bottom/left edges.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// BoxFromCorners converts an [x1, y1, x2, y2] pixel box to a BoundingBox.
// Fractional coordinates are rounded to the nearest pixel. Anything that is not
// four values yields the zero box.
func BoxFromCorners(bbox []float64) BoundingBox {
	if len(bbox) != 4 {
		return BoundingBox{}
	}
	return BoundingBox{
		Left:   int(math.Round(bbox[0])),
		Top:    int(math.Round(bbox[1])),
		Right:  int(math.Round(bbox[2])),
		Bottom: int(math.Round(bbox[3])),
	}
}

// Corners returns the box as [x1, y1, x2, y2].
func (b BoundingBox) Corners() []float64 {
	return []float64{float64(b.Left), float64(b.Top), float64(b.Right), float64(b.Bottom)}
}

func (b BoundingBox) Width() int  { return b.Right - b.Left }
func (b BoundingBox) Height() int { return b.Bottom - b.Top }

// Empty reports whether the box has no area.
func (b BoundingBox) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}
