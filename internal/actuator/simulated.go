package actuator

import "vision-pipeline/internal/obslog"

// Simulated is a loop-back actuator used for replay/dev mode: it logs
// every command and fails only when a speed percent is outside [0,100].
type Simulated struct {
	name    string
	percent int
	running bool
}

// NewSimulated creates a named simulated actuator.
func NewSimulated(name string) *Simulated {
	return &Simulated{name: name}
}

func (s *Simulated) Name() string { return s.name }

func (s *Simulated) Start() error {
	s.running = true
	obslog.L().Debug("actuator %s: start", s.name)
	return nil
}

func (s *Simulated) Stop() error {
	s.running = false
	s.percent = 0
	obslog.L().Debug("actuator %s: stop", s.name)
	return nil
}

func (s *Simulated) SetSpeedPercent(percent int) error {
	if err := validatePercent(percent); err != nil {
		return &Error{Transport: "simulated", Op: "set_speed", Cause: err}
	}
	s.percent = percent
	obslog.L().Debug("actuator %s: speed=%d%%", s.name, percent)
	return nil
}
