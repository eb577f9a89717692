package model

// DetectedObject is a per-frame observation produced by the detection
// engine and consumed by the gate counter within the same frame step;
// it is never persisted (spec.md §3).
type DetectedObject struct {
	X, Y, W, H int     // bounding box, full-frame coordinates
	CX, CY     float64 // centroid, full-frame coordinates
	Area       int     // pixel area
}

// TriggerEntry is one ring entry of the gate counter's trigger history:
// a centroid and the frame index at which it caused an increment.
type TriggerEntry struct {
	CX, CY float64
	Frame  int64
}
