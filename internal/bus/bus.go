// Package bus implements C3 FrameBus: a single-producer, multi-consumer
// handoff with two differently-shaped sinks (spec.md §4.3).
//
// Detection sink: latest-only, coalescing — a newer frame discards an
// unread older one, so detection reflects current reality instead of
// queueing stale work. Grounded on vincent99-velocipi's server/dvr
// frameEntry (latest value + a "ready" channel closed-and-replaced to
// wake waiters).
//
// Recorder sink: a small bounded queue; on overflow the oldest pending
// frame is dropped, never the newest, preserving the chronological
// prefix property required by I4. Grounded on the same package's
// broadcaster, adapted from "drop the subscriber" to "drop the oldest
// queued item."
package bus

import (
	"sync"
	"sync/atomic"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/obslog"
)

// Bus fans a single capture stream out to the detection and recorder
// sinks with the semantics above.
type Bus struct {
	detMu    sync.Mutex
	detFrame *model.Frame
	detReady chan struct{}

	recCh      chan model.Frame
	recDropped uint64

	closeOnce       sync.Once
	recSinkCloseOne sync.Once
}

// New creates a bus with a recorder queue of the given depth (spec.md
// §4.3: "small queue sized to cover transient encoder stalls").
func New(recorderQueueLen int) *Bus {
	if recorderQueueLen <= 0 {
		recorderQueueLen = 64
	}
	return &Bus{
		detReady: make(chan struct{}),
		recCh:    make(chan model.Frame, recorderQueueLen),
	}
}

// Publish fans a captured frame out to both sinks. The caller's Frame
// is handed to the recorder sink verbatim (unmodified, per I4); a
// clone is stored in the detection slot so each sink owns an
// independent Mat and can close it on its own schedule.
func (b *Bus) Publish(f model.Frame) {
	detClone := f.Clone()
	b.publishDetection(detClone)
	b.publishRecorder(f)
}

func (b *Bus) publishDetection(f model.Frame) {
	b.detMu.Lock()
	old := b.detFrame
	b.detFrame = &f
	ready := b.detReady
	b.detReady = make(chan struct{})
	b.detMu.Unlock()

	close(ready) // wake anyone waiting in NextDetectionFrame

	if old != nil {
		old.Close() // never observed: discard per latest-only semantics
	}
}

func (b *Bus) publishRecorder(f model.Frame) {
	for {
		select {
		case b.recCh <- f:
			return
		default:
			select {
			case dropped := <-b.recCh:
				dropped.Close()
				atomic.AddUint64(&b.recDropped, 1)
				obslog.L().Warn("recorder sink overflow: dropped oldest queued frame")
			default:
				// Raced with a concurrent consumer drain; retry the send.
			}
		}
	}
}

// NextDetectionFrame blocks until a frame newer than the one the
// caller last observed is available, or done fires. since is the
// ready-channel last returned by this call (zero value on first call).
func (b *Bus) NextDetectionFrame(since <-chan struct{}, done <-chan struct{}) (model.Frame, <-chan struct{}, bool) {
	b.detMu.Lock()
	ready := b.detReady
	b.detMu.Unlock()

	if since != ready {
		// A publish already happened since the caller's last wait;
		// fall through and read the current slot immediately.
	} else {
		select {
		case <-ready:
		case <-done:
			return model.Frame{}, ready, false
		}
	}

	b.detMu.Lock()
	f := b.detFrame
	b.detFrame = nil
	newReady := b.detReady
	b.detMu.Unlock()

	if f == nil {
		return model.Frame{}, newReady, false
	}
	return *f, newReady, true
}

// RecorderFrames exposes the recorder sink's receive side.
func (b *Bus) RecorderFrames() <-chan model.Frame { return b.recCh }

// CloseRecorderSink closes the recorder channel so a consumer ranging
// over RecorderFrames drains the remaining queue and returns. The
// caller must guarantee no further Publish calls occur first (i.e.
// the capture worker has already been stopped) — closing a channel
// with an active sender panics.
func (b *Bus) CloseRecorderSink() {
	b.recSinkCloseOne.Do(func() {
		close(b.recCh)
	})
}

// RecorderDropped returns the count of frames dropped from the
// recorder sink due to overflow — the recorder-health metric of
// spec.md §4.3.
func (b *Bus) RecorderDropped() uint64 {
	return atomic.LoadUint64(&b.recDropped)
}

// Close releases any frame still buffered in either sink. Call only
// after both the capture and consumer goroutines have stopped.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.detMu.Lock()
		if b.detFrame != nil {
			b.detFrame.Close()
			b.detFrame = nil
		}
		b.detMu.Unlock()

		for {
			select {
			case f, ok := <-b.recCh:
				if !ok {
					return
				}
				f.Close()
			default:
				return
			}
		}
	})
}
