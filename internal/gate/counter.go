// Package gate implements C5 GateCounter: a spatiotemporal
// de-duplicated line-crossing counter (spec.md §4.5). It is touched
// only by the detection thread (spec.md §5), so no internal locking is
// needed beyond what the caller already serializes.
package gate

import (
	"math"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

// ResetHook is invoked on Reset so the detection engine can rebuild its
// background model (spec.md §4.5: "commands C4 to rebuild its
// background model").
type ResetHook func()

// CountEvent is published each time the crossing counter increments.
type CountEvent struct {
	Count       int64
	Centroid    [2]float64
	FrameIndex  int64
}

// Counter implements the per-frame gate-crossing algorithm.
type Counter struct {
	crossingCounter int64
	currentFrame    int64
	triggered       map[triggerKey]int64
	onReset         ResetHook
}

type triggerKey struct {
	cx, cy float64
}

// New creates a counter. onReset may be nil.
func New(onReset ResetHook) *Counter {
	return &Counter{
		triggered: make(map[triggerKey]int64),
		onReset:   onReset,
	}
}

// ROIGeometry carries the subset of the detection ROI config the gate
// line derivation needs (spec.md §4.5: "gateLineY derived per frame
// from either (roiY + roiHeight·gateLinePositionRatio) when ROI
// enabled, else (frameHeight·0.5)").
type ROIGeometry struct {
	Enabled bool
	Y       int
	Height  int
}

// Step runs one per-frame algorithm pass over objects detected in the
// current frame, given the current gate config, the active ROI
// geometry, and the frame's full height. It returns the events
// published this step, in increasing count order.
func (c *Counter) Step(objects []model.DetectedObject, cfg settings.GateConfig, roi ROIGeometry, frameHeight int) []CountEvent {
	c.currentFrame++

	c.evict(cfg.GateHistoryFrames)

	gateLineY := c.gateLineY(cfg, roi, frameHeight)

	var events []CountEvent
	for _, d := range objects {
		if d.CY < gateLineY {
			continue
		}
		if c.isDuplicate(d.CX, d.CY, cfg.GateTriggerRadius) {
			continue
		}
		c.crossingCounter++
		c.triggered[triggerKey{d.CX, d.CY}] = c.currentFrame
		events = append(events, CountEvent{
			Count:      c.crossingCounter,
			Centroid:   [2]float64{d.CX, d.CY},
			FrameIndex: c.currentFrame,
		})
	}
	return events
}

// gateLineY derives the gate line per frame: either
// (roiY + roiHeight*ratio) when ROI is in play, else frameHeight*0.5.
func (c *Counter) gateLineY(cfg settings.GateConfig, roi ROIGeometry, frameHeight int) float64 {
	if roi.Enabled {
		return float64(roi.Y) + float64(roi.Height)*cfg.GateLinePositionRatio
	}
	return float64(frameHeight) * 0.5
}

func (c *Counter) isDuplicate(cx, cy, radius float64) bool {
	minDist := math.Inf(1)
	for k := range c.triggered {
		d := math.Hypot(cx-k.cx, cy-k.cy)
		if d < minDist {
			minDist = d
		}
	}
	return minDist < radius
}

func (c *Counter) evict(historyFrames int64) {
	if historyFrames <= 0 {
		return
	}
	cutoff := c.currentFrame - historyFrames
	for k, f := range c.triggered {
		if f < cutoff {
			delete(c.triggered, k)
		}
	}
}

// Count returns the current monotonically non-decreasing crossing
// count (invariant I1).
func (c *Counter) Count() int64 { return c.crossingCounter }

// CurrentFrame returns the number of Step calls so far.
func (c *Counter) CurrentFrame() int64 { return c.currentFrame }

// Reset clears all counting state and invokes the rebuild hook.
func (c *Counter) Reset() {
	c.crossingCounter = 0
	c.currentFrame = 0
	c.triggered = make(map[triggerKey]int64)
	if c.onReset != nil {
		c.onReset()
	}
}
