package packaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-pipeline/internal/actuator"
	"vision-pipeline/internal/gate"
	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

func pkgCfg() settings.PackagingConfig {
	return settings.PackagingConfig{
		TargetCount:          100,
		AdvanceStopCount:     2,
		SpeedFullThreshold:   0.3,
		SpeedMediumThreshold: 0.6,
		SpeedSlowThreshold:   0.9,
		TierFullPercent:      100,
		TierMediumPercent:    67,
		TierSlowPercent:      40,
		TierCreepPercent:     15,
	}
}

func countEvent(n int64) gate.CountEvent {
	return gate.CountEvent{Count: n, FrameIndex: n}
}

func TestController_TierProgression(t *testing.T) {
	sim := actuator.NewSimulated("a")
	c := New(sim)
	cfg := pkgCfg()
	c.Start(cfg)

	cases := []struct {
		count int64
		want  model.Tier
	}{
		{29, model.TierFull},
		{30, model.TierMedium}, // 30/98 = 0.306 >= 0.3
		{58, model.TierMedium},
		{59, model.TierSlow}, // 59/98 = 0.602 >= 0.6
		{88, model.TierSlow},
		{89, model.TierCreep}, // 89/98 = 0.908 >= 0.9
		{99, model.TierCreep},
		{100, model.TierStop},
	}

	for _, tc := range cases {
		state := c.OnCount(countEvent(tc.count), cfg)
		assert.Equalf(t, tc.want, state.Tier, "count=%d", tc.count)
	}
}

func TestController_MonotonicSlowdownNeverSpeedsUp(t *testing.T) {
	sim := actuator.NewSimulated("a")
	c := New(sim)
	cfg := pkgCfg()
	c.Start(cfg)

	c.OnCount(countEvent(90), cfg) // CREEP
	require.Equal(t, model.TierCreep, c.State().Tier)

	// A later, lower count (e.g. after a reset race) must never command
	// a faster tier than already reached within the same run.
	state := c.OnCount(countEvent(10), cfg)
	assert.Equal(t, model.TierCreep, state.Tier)
}

func TestController_CompletionLatchesExactlyOnce(t *testing.T) {
	sim := actuator.NewSimulated("a")
	c := New(sim)
	cfg := pkgCfg()
	c.Start(cfg)

	state := c.OnCount(countEvent(100), cfg)
	assert.True(t, state.Completed)

	state = c.OnCount(countEvent(101), cfg)
	assert.True(t, state.Completed)
	assert.Equal(t, model.TierStop, state.Tier)
}

func TestController_ResetClearsRunState(t *testing.T) {
	sim := actuator.NewSimulated("a")
	c := New(sim)
	cfg := pkgCfg()
	c.Start(cfg)
	c.OnCount(countEvent(50), cfg)

	c.Reset()

	c.Start(cfg)
	state := c.OnCount(countEvent(1), cfg)
	assert.Equal(t, model.TierFull, state.Tier)
}
