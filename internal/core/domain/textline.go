package domain

// BoundingBox is an axis-aligned box in image pixel coordinates, origin top-left.
type BoundingBox struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

// Valid reports whether the box has a positive area.
func (b BoundingBox) Valid() bool {
	return b.XMin < b.XMax && b.YMin < b.YMax
}

// WellFormed reports whether the corners are ordered. Zero-area boxes are
// well formed.
func (b BoundingBox) WellFormed() bool {
	return b.XMin <= b.XMax && b.YMin <= b.YMax
}

func (b BoundingBox) Height() int {
	return b.YMax - b.YMin
}

// TextLine is one detected text fragment. Confidence is on a 0-100 scale.
type TextLine struct {
	Text       string      `json:"text"`
	Box        BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
}
