// Package framesrc implements C1 FrameSource: a polymorphic source of
// timestamped frames over a capability set {open, configure,
// read-next-frame, close, report-fps, seek}.
package framesrc

import (
	"errors"
	"time"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

// ErrTimeout is returned by ReadFrame when no frame arrived within the
// requested timeout. It is a SourceTransient condition (spec.md §7) with
// no state change: the capture worker retries on the next iteration.
// Timeouts are not counted and not logged.
var ErrTimeout = errors.New("framesrc: read timeout")

// ErrEndOfStream is returned by FileReplay once the container is
// exhausted and loop is disabled.
var ErrEndOfStream = errors.New("framesrc: end of stream")

// ErrSeekUnsupported is returned by Seek on sources that cannot seek
// (LiveCamera).
var ErrSeekUnsupported = errors.New("framesrc: seek not supported")

// FatalError wraps a SourceFatal condition (device disconnect, file
// unreadable): the capture worker exits and C8 enters Error.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string { return "framesrc: fatal: " + e.Cause.Error() }
func (e *FatalError) Unwrap() error { return e.Cause }

// Source is the capability set every frame source implements. It is
// not thread-safe for concurrent reads: exactly one CaptureWorker owns
// a Source instance at a time (spec.md §4.1).
type Source interface {
	Open() error
	Configure(cfg settings.CameraConfig) error
	// ReadFrame blocks up to timeout and returns either a frame,
	// ErrTimeout, ErrEndOfStream, or a *FatalError.
	ReadFrame(timeout time.Duration) (model.Frame, error)
	Close() error
	// ReportedFPS is the source's self-reported/declared frame rate,
	// distinct from CaptureWorker's measured sliding-window estimate.
	ReportedFPS() float64
	// Seekable reports whether Seek is supported.
	Seekable() bool
	// Seek moves to an absolute frame index. Returns ErrSeekUnsupported
	// if Seekable() is false.
	Seek(frameIndex int64) error
}
