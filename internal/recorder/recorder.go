// Package recorder implements C7 VideoRecorder: it consumes the bounded
// recorder sink of the frame bus and writes frames to an on-disk video
// file via gocv.VideoWriter, preserving publish order (invariant I4).
// Grounded on lkumar3-iitr-Sensor-Logger's RecordingController: session
// directory creation, a single writer goroutine, and a WaitGroup-based
// Stop. There is no periodic flush; the encoder is closed on Stop.
package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"vision-pipeline/internal/bus"
	"vision-pipeline/internal/clock"
	"vision-pipeline/internal/model"
	"vision-pipeline/internal/obslog"
	"vision-pipeline/internal/settings"
)

// EncoderOpenFailure is returned when none of the candidate codecs can
// be opened (spec.md §7).
type EncoderOpenFailure struct {
	Tried []string
	Cause error
}

func (e *EncoderOpenFailure) Error() string {
	return fmt.Sprintf("recorder: no codec opened (tried %v): %v", e.Tried, e.Cause)
}

// EncoderWriteFailure wraps a failed frame write; recording is stopped
// but the pipeline otherwise keeps running (spec.md §7).
type EncoderWriteFailure struct {
	Cause error
}

func (e *EncoderWriteFailure) Error() string { return fmt.Sprintf("recorder: write failed: %v", e.Cause) }

// codecCandidate is one (fourcc, container extension) pair tried in
// order until VideoWriter opens successfully (spec.md §4.7).
type codecCandidate struct {
	fourcc string
	ext    string
}

var defaultCodecOrder = []codecCandidate{
	{"mp4v", ".mp4"},
	{"MJPG", ".avi"},
	{"XVID", ".avi"},
}

// Stats is a snapshot of one recording session's outcome.
type Stats struct {
	Path          string
	Codec         string
	FramesWritten uint64
	FramesDropped uint64
	Duration      time.Duration
	RealizedFPS   float64
}

// Recorder owns the VideoWriter and the session directory.
type Recorder struct {
	storage settings.StorageConfig
	bus     *bus.Bus

	mu       sync.Mutex
	writer   *gocv.VideoWriter
	path     string
	codec    string
	started  time.Time
	stopped  bool

	written uint64

	wg sync.WaitGroup
}

// New creates a recorder bound to the given storage settings.
func New(storage settings.StorageConfig) *Recorder {
	return &Recorder{storage: storage}
}

// Start opens the session directory and the encoder (trying codecs in
// order), then launches the consumer goroutine over b's recorder
// channel. frameSize must match the frames that will be published.
func (r *Recorder) Start(b *bus.Bus, frameSize gocv.Mat, fps float64) error {
	sess := clock.SessionName("capture")
	sessionDir := filepath.Join(r.storage.RecordingDir, sess)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("recorder: create session dir: %w", err)
	}

	w := frameSize.Cols()
	h := frameSize.Rows()
	if fps <= 0 {
		fps = 30
	}

	var tried []string
	var writer *gocv.VideoWriter
	var chosen codecCandidate
	var openErr error
	for _, c := range defaultCodecOrder {
		tried = append(tried, c.fourcc)
		path := filepath.Join(sessionDir, "capture"+c.ext)
		vw, err := gocv.VideoWriterFile(path, c.fourcc, fps, w, h, true)
		if err == nil && vw != nil && vw.IsOpened() {
			writer = vw
			chosen = c
			r.path = path
			break
		}
		if vw != nil {
			vw.Close()
		}
		openErr = err
	}
	if writer == nil {
		return &EncoderOpenFailure{Tried: tried, Cause: openErr}
	}

	r.mu.Lock()
	r.writer = writer
	r.codec = chosen.fourcc
	r.started = time.Now()
	r.stopped = false
	r.bus = b
	r.mu.Unlock()

	obslog.L().Info("recorder: session=%s codec=%s path=%s", sessionDir, chosen.fourcc, r.path)

	r.wg.Add(1)
	go r.consume(b)
	return nil
}

func (r *Recorder) consume(b *bus.Bus) {
	defer r.wg.Done()
	for f := range b.RecorderFrames() {
		r.writeFrame(f)
	}
}

func (r *Recorder) writeFrame(f model.Frame) {
	defer f.Close()

	r.mu.Lock()
	w := r.writer
	stopped := r.stopped
	r.mu.Unlock()
	if stopped || w == nil {
		return
	}

	if err := w.Write(f.Mat); err != nil {
		obslog.L().Error("recorder: %v", &EncoderWriteFailure{Cause: err})
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		return
	}
	atomic.AddUint64(&r.written, 1)
}

// Stop closes the recorder sink so consume's range loop can drain and
// return, then closes the encoder and returns a summary of the
// session. The caller must guarantee the capture worker has already
// stopped publishing before calling Stop (see CloseRecorderSink).
func (r *Recorder) Stop() Stats {
	r.mu.Lock()
	r.stopped = true
	writer := r.writer
	r.writer = nil
	started := r.started
	path := r.path
	codec := r.codec
	b := r.bus
	r.mu.Unlock()

	if b != nil {
		b.CloseRecorderSink()
	}
	r.wg.Wait()

	if writer != nil {
		writer.Close()
	}

	duration := time.Since(started)
	written := atomic.LoadUint64(&r.written)
	fps := 0.0
	if duration.Seconds() > 0 {
		fps = float64(written) / duration.Seconds()
	}

	var dropped uint64
	if b != nil {
		dropped = b.RecorderDropped()
	}

	return Stats{
		Path:          path,
		Codec:         codec,
		FramesWritten: written,
		FramesDropped: dropped,
		Duration:      duration,
		RealizedFPS:   fps,
	}
}
