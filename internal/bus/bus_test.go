package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"vision-pipeline/internal/model"
)

func testFrame(seq uint64) model.Frame {
	return model.Frame{
		Mat:   gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1),
		SeqNo: seq,
	}
}

func TestPublish_DetectionSinkSeesLatestFrame(t *testing.T) {
	b := New(4)
	defer b.Close()

	b.Publish(testFrame(1))
	b.Publish(testFrame(2))

	f, _, ok := b.NextDetectionFrame(nil, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(2), f.SeqNo)
	f.Close()
}

func TestPublish_RecorderSinkPreservesOrder(t *testing.T) {
	b := New(4)
	defer b.Close()

	for i := uint64(1); i <= 3; i++ {
		b.Publish(testFrame(i))
	}

	for want := uint64(1); want <= 3; want++ {
		select {
		case f := <-b.RecorderFrames():
			assert.Equal(t, want, f.SeqNo)
			f.Close()
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for recorder frame")
		}
	}
}

func TestPublish_RecorderSinkDropsOldestOnOverflow(t *testing.T) {
	b := New(2)
	defer b.Close()

	for i := uint64(1); i <= 4; i++ {
		b.Publish(testFrame(i))
	}

	// Queue depth 2: the two oldest of the four published frames were
	// dropped, never the newest two (I4: drop-oldest-on-overflow).
	first := <-b.RecorderFrames()
	second := <-b.RecorderFrames()
	assert.Equal(t, uint64(3), first.SeqNo)
	assert.Equal(t, uint64(4), second.SeqNo)
	first.Close()
	second.Close()

	assert.Equal(t, uint64(2), b.RecorderDropped())
}

func TestNextDetectionFrame_BlocksUntilDoneFires(t *testing.T) {
	b := New(1)
	defer b.Close()

	// Establish a baseline `since` token with no frame pending, so the
	// next call genuinely blocks on the ready channel instead of
	// falling through on a since/ready mismatch.
	_, since, ok := b.NextDetectionFrame(nil, nil)
	require.False(t, ok)

	done := make(chan struct{})
	resultCh := make(chan bool, 1)
	go func() {
		_, _, ok := b.NextDetectionFrame(since, done)
		resultCh <- ok
	}()

	close(done)
	select {
	case ok := <-resultCh:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("NextDetectionFrame did not return after done closed")
	}
}
