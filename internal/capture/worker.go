// Package capture implements C2 CaptureWorker: a dedicated producer
// that pulls frames from a FrameSource at wire rate and publishes them
// to the FrameBus (spec.md §4.2).
package capture

import (
	"runtime"
	"sync/atomic"
	"time"

	"vision-pipeline/internal/bus"
	"vision-pipeline/internal/framesrc"
	"vision-pipeline/internal/obslog"
)

// fpsWindowSize bounds the sliding window used for the FPS estimate
// (spec.md §4.2: "sliding window of the most recent ≤60 capture
// timestamps").
const fpsWindowSize = 60

// consecutiveFailureBackoffThreshold and backoffDuration implement the
// transient-failure back-off policy of spec.md §4.2.
const (
	consecutiveFailureBackoffThreshold = 10
	backoffDuration                    = 50 * time.Millisecond
)

// FatalHandler is invoked exactly once when the capture worker exits
// due to a SourceFatal condition; C8 (camera state machine) wires this
// to its own failure transition.
type FatalHandler func(err error)

// Worker runs the capture hot loop on a dedicated goroutine. The
// dedicated-OS-thread requirement of spec.md §4.2 is satisfied by
// locking the goroutine to its OS thread for the lifetime of run().
type Worker struct {
	src         framesrc.Source
	busOut      *bus.Bus
	readTimeout time.Duration
	onFatal     FatalHandler

	stop int32 // atomic bool

	fpsWindow   []int64
	fpsIdx      int
	producedCnt uint64
	droppedCnt  uint64
	doneCh      chan struct{}
}

// New builds a capture worker bound to src, publishing onto b.
func New(src framesrc.Source, b *bus.Bus, readTimeout time.Duration, onFatal FatalHandler) *Worker {
	return &Worker{
		src:         src,
		busOut:      b,
		readTimeout: readTimeout,
		onFatal:     onFatal,
		doneCh:      make(chan struct{}),
	}
}

// Start launches the capture hot loop. Returns immediately.
func (w *Worker) Start() {
	go w.run()
}

// RequestStop signals the worker to terminate at the next iteration
// boundary, bounded by the source read timeout (spec.md §5).
func (w *Worker) RequestStop() {
	atomic.StoreInt32(&w.stop, 1)
}

// Done is closed once the worker has fully exited.
func (w *Worker) Done() <-chan struct{} { return w.doneCh }

func (w *Worker) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.doneCh)

	obslog.L().Info("capture worker started (timeout=%s)", w.readTimeout)

	var consecutiveFailures int
	for atomic.LoadInt32(&w.stop) == 0 {
		frame, err := w.src.ReadFrame(w.readTimeout)
		switch {
		case err == nil:
			consecutiveFailures = 0
			w.recordTimestamp(frame.CaptureTimestampMs)
			atomic.AddUint64(&w.producedCnt, 1)
			w.busOut.Publish(frame)

		case err == framesrc.ErrTimeout:
			// No sleep in the success path; timeout itself bounds the loop.
			continue

		case err == framesrc.ErrEndOfStream:
			obslog.L().Info("capture worker: end of stream")
			return

		default:
			var fatal *framesrc.FatalError
			if asFatal(err, &fatal) {
				obslog.L().Error("capture worker: fatal source error: %v", fatal)
				if w.onFatal != nil {
					w.onFatal(fatal)
				}
				return
			}
			// Transient: count and back off after repeated failures.
			atomic.AddUint64(&w.droppedCnt, 1)
			consecutiveFailures++
			obslog.L().Warn("capture worker: transient read failure: %v", err)
			if consecutiveFailures > consecutiveFailureBackoffThreshold {
				time.Sleep(backoffDuration)
			}
		}
	}
	obslog.L().Info("capture worker stopped (produced=%d, dropped=%d)", w.producedCnt, w.droppedCnt)
}

func asFatal(err error, target **framesrc.FatalError) bool {
	f, ok := err.(*framesrc.FatalError)
	if ok {
		*target = f
	}
	return ok
}

func (w *Worker) recordTimestamp(ts int64) {
	if w.fpsWindow == nil {
		w.fpsWindow = make([]int64, 0, fpsWindowSize)
	}
	if len(w.fpsWindow) < fpsWindowSize {
		w.fpsWindow = append(w.fpsWindow, ts)
	} else {
		w.fpsWindow[w.fpsIdx] = ts
	}
	w.fpsIdx = (w.fpsIdx + 1) % fpsWindowSize
}

// FPS returns the current estimate derived from the sliding window:
// (count-1) / time span, in frames per second.
func (w *Worker) FPS() float64 {
	n := len(w.fpsWindow)
	if n < 2 {
		return 0
	}
	// Oldest entry in the ring is at fpsIdx when the window is full;
	// otherwise index 0 is oldest.
	oldestIdx := 0
	if n == fpsWindowSize {
		oldestIdx = w.fpsIdx
	}
	newestIdx := (oldestIdx + n - 1) % n
	spanMs := w.fpsWindow[newestIdx] - w.fpsWindow[oldestIdx]
	if spanMs <= 0 {
		return 0
	}
	return float64(n-1) / (float64(spanMs) / 1000.0)
}

// Stats returns (produced, dropped) counters.
func (w *Worker) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&w.producedCnt), atomic.LoadUint64(&w.droppedCnt)
}
