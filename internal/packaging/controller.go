// Package packaging implements C6 PackagingController: a finite state
// machine mapping count progress to actuator speed tier (spec.md §4.6).
package packaging

import (
	"sync"

	"vision-pipeline/internal/actuator"
	"vision-pipeline/internal/gate"
	"vision-pipeline/internal/model"
	"vision-pipeline/internal/obslog"
	"vision-pipeline/internal/settings"
)

// Controller owns two logical actuators and the current packaging run
// state, enforcing the monotonic-slowdown invariant I5.
type Controller struct {
	mu sync.Mutex

	actuators []actuator.Actuator

	running     bool
	state       model.PackagingState
	lastTier    model.Tier
	tierPercent map[model.Tier]int
}

// New creates a controller driving the given actuators. Both receive
// identical tier commands (spec.md §4.6: "unless extended").
func New(actuators ...actuator.Actuator) *Controller {
	return &Controller{actuators: actuators}
}

// Start begins a new packaging run: resets accumulated state and
// commands FULL speed.
func (c *Controller) Start(cfg settings.PackagingConfig) {
	c.mu.Lock()
	c.running = true
	c.state = model.PackagingState{
		Tier:        model.TierFull,
		TargetCount: cfg.TargetCount,
		AdvanceStop: cfg.AdvanceStopCount,
	}
	c.lastTier = model.TierFull
	c.tierPercent = map[model.Tier]int{
		model.TierFull:   cfg.TierFullPercent,
		model.TierMedium: cfg.TierMediumPercent,
		model.TierSlow:   cfg.TierSlowPercent,
		model.TierCreep:  cfg.TierCreepPercent,
		model.TierStop:   0,
	}
	c.mu.Unlock()

	for _, a := range c.actuators {
		if err := a.Start(); err != nil {
			obslog.L().Error("packaging: actuator start error: %v", err)
		}
		if err := a.SetSpeedPercent(cfg.TierFullPercent); err != nil {
			obslog.L().Error("packaging: actuator speed error: %v", err)
		}
	}
}

// Reset ends the current run without completing it.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.running = false
	c.state = model.PackagingState{}
	c.lastTier = model.TierFull
	c.mu.Unlock()

	for _, a := range c.actuators {
		if err := a.Stop(); err != nil {
			obslog.L().Error("packaging: actuator stop error: %v", err)
		}
	}
}

// OnCount handles a count-changed event from the gate counter, derives
// the progress-based tier, clamps it per I5, and commands the
// actuators. An actuator error is logged but does not suspend counting
// (spec.md §4.6).
func (c *Controller) OnCount(ev gate.CountEvent, cfg settings.PackagingConfig) model.PackagingState {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return c.state
	}

	count := int(ev.Count)
	c.state.AccumulatedCount = count

	var tier model.Tier
	if count >= cfg.TargetCount {
		tier = model.TierStop
	} else {
		effectiveTarget := cfg.TargetCount - cfg.AdvanceStopCount
		if effectiveTarget <= 0 {
			effectiveTarget = 1
		}
		progress := float64(count) / float64(effectiveTarget)
		tier = tierForProgress(progress, cfg)
	}

	// Monotonic-slowdown clamp (I5): never command a tier faster than
	// the previous one within the same run.
	if tier.Faster(c.lastTier) {
		tier = c.lastTier
	}
	c.lastTier = tier
	c.state.Tier = tier

	completedNow := tier == model.TierStop && !c.state.Completed
	if tier == model.TierStop {
		c.state.Completed = true
	}
	percent := c.tierPercent[tier]
	running := c.running
	c.mu.Unlock()

	if !running {
		return c.state
	}

	for _, a := range c.actuators {
		if err := a.SetSpeedPercent(percent); err != nil {
			obslog.L().Error("packaging: actuator speed error: %v", err)
		}
	}
	if completedNow {
		for _, a := range c.actuators {
			if err := a.Stop(); err != nil {
				obslog.L().Error("packaging: actuator stop error: %v", err)
			}
		}
	}

	return c.State()
}

func tierForProgress(p float64, cfg settings.PackagingConfig) model.Tier {
	switch {
	case p >= cfg.SpeedSlowThreshold:
		return model.TierCreep
	case p >= cfg.SpeedMediumThreshold:
		return model.TierSlow
	case p >= cfg.SpeedFullThreshold:
		return model.TierMedium
	default:
		return model.TierFull
	}
}

// State returns a copy of the current packaging state.
func (c *Controller) State() model.PackagingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
