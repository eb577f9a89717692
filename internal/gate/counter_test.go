package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

func gateCfg() settings.GateConfig {
	return settings.GateConfig{
		GateLinePositionRatio: 0.5,
		GateTriggerRadius:     20,
		GateHistoryFrames:     8,
	}
}

func TestStep_CountsObjectPastGateLine(t *testing.T) {
	c := New(nil)
	objs := []model.DetectedObject{{CX: 100, CY: 300}}
	events := c.Step(objs, gateCfg(), ROIGeometry{}, 400)

	require.Len(t, events, 1)
	assert.Equal(t, int64(1), c.Count())
	assert.Equal(t, int64(1), events[0].Count)
}

func TestStep_IgnoresObjectBeforeGateLine(t *testing.T) {
	c := New(nil)
	objs := []model.DetectedObject{{CX: 100, CY: 50}}
	events := c.Step(objs, gateCfg(), ROIGeometry{}, 400)

	assert.Empty(t, events)
	assert.Equal(t, int64(0), c.Count())
}

func TestStep_DeduplicatesWithinTriggerRadius(t *testing.T) {
	c := New(nil)
	cfg := gateCfg()

	c.Step([]model.DetectedObject{{CX: 100, CY: 300}}, cfg, ROIGeometry{}, 400)
	// Same physical part lingering in the gate region one frame later,
	// within the trigger radius: must not increment again.
	events := c.Step([]model.DetectedObject{{CX: 105, CY: 302}}, cfg, ROIGeometry{}, 400)

	assert.Empty(t, events)
	assert.Equal(t, int64(1), c.Count())
}

func TestStep_CountsDistinctObjectOutsideTriggerRadius(t *testing.T) {
	c := New(nil)
	cfg := gateCfg()

	c.Step([]model.DetectedObject{{CX: 100, CY: 300}}, cfg, ROIGeometry{}, 400)
	events := c.Step([]model.DetectedObject{{CX: 300, CY: 300}}, cfg, ROIGeometry{}, 400)

	require.Len(t, events, 1)
	assert.Equal(t, int64(2), c.Count())
}

func TestStep_EvictsStaleTriggersAfterHistoryWindow(t *testing.T) {
	c := New(nil)
	cfg := gateCfg()
	cfg.GateHistoryFrames = 2

	c.Step([]model.DetectedObject{{CX: 100, CY: 300}}, cfg, ROIGeometry{}, 400)
	c.Step(nil, cfg, ROIGeometry{}, 400)
	c.Step(nil, cfg, ROIGeometry{}, 400)
	// The same centroid reappearing after the history window has
	// scrolled past it is treated as a new physical part.
	events := c.Step([]model.DetectedObject{{CX: 100, CY: 300}}, cfg, ROIGeometry{}, 400)

	require.Len(t, events, 1)
	assert.Equal(t, int64(2), c.Count())
}

func TestStep_ROIGeometryDerivesGateLine(t *testing.T) {
	c := New(nil)
	cfg := gateCfg()
	roi := ROIGeometry{Enabled: true, Y: 100, Height: 200} // gate line at y=200

	below := c.Step([]model.DetectedObject{{CX: 0, CY: 199}}, cfg, roi, 400)
	assert.Empty(t, below)

	above := c.Step([]model.DetectedObject{{CX: 0, CY: 201}}, cfg, roi, 400)
	assert.Len(t, above, 1)
}

func TestReset_ClearsStateAndInvokesHook(t *testing.T) {
	hookCalled := false
	c := New(func() { hookCalled = true })
	c.Step([]model.DetectedObject{{CX: 0, CY: 300}}, gateCfg(), ROIGeometry{}, 400)

	c.Reset()

	assert.True(t, hookCalled)
	assert.Equal(t, int64(0), c.Count())
	assert.Equal(t, int64(0), c.CurrentFrame())
}
