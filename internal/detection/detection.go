// Package detection obtains a canonical trash-detection summary for a photo.
// It tries a remote inference endpoint first, falls back to a local model and
// degrades to an unknown summary when neither is available. The package does
// no database work; it is a pure image-to-summary transformation.
package detection

// Summary source tags
const (
	SourceRemote  = "remote"
	SourceLocal   = "local"
	SourceUnknown = "unknown"
)

// Detection is one normalized object detection. Bounding boxes are always in
// corner-point form: x1, y1, x2, y2.
type Detection struct {
	ClassID    *int      `json:"class_id"`
	ClassName  string    `json:"class_name"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// Summary is the canonical outcome of analyzing one photo. Nil pointer fields
// mean the field could not be determined; callers branch on them instead of
// catching errors.
type Summary struct {
	HasTrash      *bool       `json:"has_trash"`
	TrashCount    *int        `json:"trash_count"`
	MaxConfidence *float64    `json:"max_trash_confidence"`
	RawDetections []Detection `json:"raw_detections"`
	ImageWidth    *int        `json:"image_width"`
	ImageHeight   *int        `json:"image_height"`
	Source        string      `json:"source"`
}

// Unknown reports whether the summary carries no detection outcome, meaning
// both inference backends were unavailable.
func (s Summary) Unknown() bool {
	return s.HasTrash == nil
}
