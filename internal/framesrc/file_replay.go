package framesrc

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"vision-pipeline/internal/clock"
	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

// FileReplay wraps an encoded container (MP4/AVI/MOV/MKV) and advances
// at the container's declared frame rate by inter-frame sleeps. It
// supports loop, pause/resume, seek-by-index, and single-step
// (spec.md §4.1).
type FileReplay struct {
	path string
	loop bool

	mu       sync.Mutex
	cap      gocv.VideoCapture
	fps      float64
	frameIdx int64
	paused   bool
	lastRead time.Time
}

// NewFileReplay constructs a replay source over an encoded file.
func NewFileReplay(path string, loop bool) *FileReplay {
	return &FileReplay{path: path, loop: loop}
}

func (f *FileReplay) Open() error {
	cap, err := gocv.VideoCaptureFile(f.path)
	if err != nil {
		return &FatalError{Cause: fmt.Errorf("open file %s: %w", f.path, err)}
	}
	f.cap = cap
	f.fps = cap.Get(gocv.VideoCaptureFPS)
	if f.fps <= 0 {
		f.fps = 30
	}
	return nil
}

func (f *FileReplay) Configure(settings.CameraConfig) error {
	// File replay has no exposure/transport tuning; resolution and
	// rate come from the container itself.
	return nil
}

// Pause suspends automatic advancement; Resume clears it.
func (f *FileReplay) Pause()  { f.mu.Lock(); f.paused = true; f.mu.Unlock() }
func (f *FileReplay) Resume() { f.mu.Lock(); f.paused = false; f.mu.Unlock() }

// Step advances a single frame while paused, regardless of the declared
// inter-frame sleep interval.
func (f *FileReplay) Step(timeout time.Duration) (model.Frame, error) {
	return f.readNext(timeout, true)
}

func (f *FileReplay) ReadFrame(timeout time.Duration) (model.Frame, error) {
	f.mu.Lock()
	paused := f.paused
	f.mu.Unlock()
	if paused {
		// A paused replay never advances on its own; the caller should
		// poll Step explicitly. Report a transient timeout so the
		// capture worker's loop continues without treating this as fatal.
		return model.Frame{}, ErrTimeout
	}
	return f.readNext(timeout, false)
}

func (f *FileReplay) readNext(timeout time.Duration, forceStep bool) (model.Frame, error) {
	f.mu.Lock()
	interval := time.Duration(float64(time.Second) / f.fps)
	sinceLast := time.Since(f.lastRead)
	if !forceStep && sinceLast < interval {
		time.Sleep(interval - sinceLast)
	}

	mat := gocv.NewMat()
	ok := f.cap.Read(&mat)
	if !ok || mat.Empty() {
		mat.Close()
		if f.loop {
			f.cap.Set(gocv.VideoCapturePosFrames, 0)
			f.frameIdx = 0
			f.mu.Unlock()
			return f.readNext(timeout, forceStep)
		}
		f.mu.Unlock()
		return model.Frame{}, ErrEndOfStream
	}

	gray := gocv.NewMat()
	if mat.Channels() > 1 {
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
		mat.Close()
	} else {
		gray = mat
	}

	f.frameIdx++
	idx := f.frameIdx
	f.lastRead = time.Now()
	f.mu.Unlock()

	return model.Frame{
		CaptureTimestampMs: clock.NowNano() / int64(time.Millisecond),
		Width:              gray.Cols(),
		Height:             gray.Rows(),
		Format:             model.Mono8,
		Mat:                gray,
		SeqNo:              uint64(idx),
	}, nil
}

func (f *FileReplay) Close() error {
	return f.cap.Close()
}

func (f *FileReplay) ReportedFPS() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fps
}

func (f *FileReplay) Seekable() bool { return true }

func (f *FileReplay) Seek(frameIndex int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cap.Set(gocv.VideoCapturePosFrames, float64(frameIndex))
	f.frameIdx = frameIndex
	return nil
}
