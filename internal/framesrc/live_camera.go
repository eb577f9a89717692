package framesrc

import (
	"fmt"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"vision-pipeline/internal/clock"
	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

// LiveCamera wraps a vendor SDK device (via OpenCV's VideoCapture
// backend) configured for Mono8 streaming grab (spec.md §4.1, §6).
type LiveCamera struct {
	deviceIndex int
	cap         gocv.VideoCapture
	cfg         settings.CameraConfig
	seq         uint64
	reportedFPS atomic.Value // float64
}

// NewLiveCamera constructs a camera source bound to a vendor device
// index (enumerate/open-by-index per spec.md §6's recognized ops).
func NewLiveCamera(deviceIndex int) *LiveCamera {
	c := &LiveCamera{deviceIndex: deviceIndex}
	c.reportedFPS.Store(0.0)
	return c
}

func (c *LiveCamera) Open() error {
	cap, err := gocv.OpenVideoCapture(c.deviceIndex)
	if err != nil {
		return &FatalError{Cause: fmt.Errorf("open device %d: %w", c.deviceIndex, err)}
	}
	c.cap = cap
	return nil
}

// Configure applies resolution, pixel format, exposure, target frame
// rate, and transport tuning. Pixel-format conversion to Mono8 happens
// per-frame in ReadFrame since most UVC/GigE backends stream BGR/RAW
// and must be converted, not requested as a capture property.
func (c *LiveCamera) Configure(cfg settings.CameraConfig) error {
	c.cfg = cfg
	c.cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	c.cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.TargetFPS > 0 {
		c.cap.Set(gocv.VideoCaptureFPS, cfg.TargetFPS)
	}
	if cfg.ExposureMicros > 0 {
		c.cap.Set(gocv.VideoCaptureExposure, float64(cfg.ExposureMicros))
	}
	c.reportedFPS.Store(cfg.TargetFPS)
	return nil
}

// ReadFrame reads the next frame, bounded by timeout. gocv's Read is a
// blocking vendor-SDK call with no native cancellation, so the bounded
// wait is implemented with a single-shot helper goroutine racing a timer.
func (c *LiveCamera) ReadFrame(timeout time.Duration) (model.Frame, error) {
	type result struct {
		mat gocv.Mat
		ok  bool
	}
	done := make(chan result, 1)
	mat := gocv.NewMat()
	go func() {
		ok := c.cap.Read(&mat)
		done <- result{mat: mat, ok: ok}
	}()

	select {
	case r := <-done:
		if !r.ok || r.mat.Empty() {
			r.mat.Close()
			return model.Frame{}, &FatalError{Cause: fmt.Errorf("device read failed")}
		}
		gray := gocv.NewMat()
		if r.mat.Channels() > 1 {
			gocv.CvtColor(r.mat, &gray, gocv.ColorBGRToGray)
			r.mat.Close()
		} else {
			gray = r.mat
		}
		ts := clock.NowNano() / int64(time.Millisecond)
		c.seq++
		return model.Frame{
			CaptureTimestampMs: ts,
			Width:              gray.Cols(),
			Height:             gray.Rows(),
			Format:             model.Mono8,
			Mat:                gray,
			SeqNo:              c.seq,
		}, nil
	case <-time.After(timeout):
		return model.Frame{}, ErrTimeout
	}
}

func (c *LiveCamera) Close() error {
	return c.cap.Close()
}

func (c *LiveCamera) ReportedFPS() float64 {
	v, _ := c.reportedFPS.Load().(float64)
	return v
}

func (c *LiveCamera) Seekable() bool { return false }

func (c *LiveCamera) Seek(int64) error { return ErrSeekUnsupported }
