// Package model holds the pipeline's core data types (spec.md §3).
package model

import "gocv.io/x/gocv"

// PixelFormat identifies the channel layout of a Frame's pixel buffer.
type PixelFormat int

const (
	// Mono8 is the hot-path single-channel 8-bit format.
	Mono8 PixelFormat = iota
	// BGR8 is accepted for file-replay sources but never produced by
	// the live camera path.
	BGR8
)

func (p PixelFormat) String() string {
	if p == Mono8 {
		return "Mono8"
	}
	return "BGR8"
}

// Frame is an immutable capture: once created by the capture worker it
// is never mutated in place by any downstream stage (§5 shared-resource
// policy). Mat is a reference-counted OpenCV matrix; ownership transfers
// by handoff, never by write-back.
type Frame struct {
	// CaptureTimestampMs is a monotonic capture timestamp in milliseconds.
	CaptureTimestampMs int64
	Width              int
	Height             int
	Format             PixelFormat
	Mat                gocv.Mat
	// SeqNo is a sequence number assigned by the frame source, used for
	// recorder prefix-ordering checks (I4). LiveCamera counts its reads;
	// FileReplay uses the container frame index, which restarts on loop
	// and on Seek.
	SeqNo uint64
}

// Clone returns a deep copy sharing no backing storage with f, so a
// consumer (e.g. the bus's detection sink) can hold its own reference without
// risking another stage releasing the underlying Mat first.
func (f Frame) Clone() Frame {
	return Frame{
		CaptureTimestampMs: f.CaptureTimestampMs,
		Width:              f.Width,
		Height:             f.Height,
		Format:             f.Format,
		Mat:                f.Mat.Clone(),
		SeqNo:              f.SeqNo,
	}
}

// Close releases the backing Mat.
func (f Frame) Close() {
	_ = f.Mat.Close()
}
