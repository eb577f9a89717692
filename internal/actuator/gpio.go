package actuator

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"vision-pipeline/internal/obslog"
)

var hostInitOnce sync.Once
var hostInitErr error

func ensureHostInit() error {
	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	return hostInitErr
}

// GPIO drives a feeder's vibration motor via a PWM-capable GPIO pin
// (spec.md §6: "actuator.transport: gpio").
type GPIO struct {
	name     string
	pinName  string
	freq     physic.Frequency
	enable   gpio.PinIO // optional separate on/off enable line
	enableName string

	pin gpio.PinIO
}

// NewGPIO creates a GPIO/PWM actuator transport. pinName is resolved
// via gpioreg on Start (e.g. "GPIO18"). enableName, if non-empty, names
// a separate digital enable line driven high on Start and low on Stop.
func NewGPIO(name, pinName string, freqHz int, enableName string) *GPIO {
	return &GPIO{
		name:       name,
		pinName:    pinName,
		freq:       physic.Frequency(freqHz) * physic.Hertz,
		enableName: enableName,
	}
}

func (g *GPIO) Name() string { return g.name }

func (g *GPIO) Start() error {
	if err := ensureHostInit(); err != nil {
		return &Error{Transport: "gpio", Op: "host_init", Cause: err}
	}
	pin := gpioreg.ByName(g.pinName)
	if pin == nil {
		return &Error{Transport: "gpio", Op: "open", Cause: fmt.Errorf("pin %s not found", g.pinName)}
	}
	g.pin = pin

	if g.enableName != "" {
		en := gpioreg.ByName(g.enableName)
		if en == nil {
			return &Error{Transport: "gpio", Op: "open", Cause: fmt.Errorf("enable pin %s not found", g.enableName)}
		}
		g.enable = en
		if err := g.enable.Out(gpio.High); err != nil {
			return &Error{Transport: "gpio", Op: "enable", Cause: err}
		}
	}
	obslog.L().Info("actuator %s: gpio pin %s ready", g.name, g.pinName)
	return nil
}

func (g *GPIO) Stop() error {
	if g.pin == nil {
		return nil
	}
	if err := g.pin.Out(gpio.Low); err != nil {
		return &Error{Transport: "gpio", Op: "stop", Cause: err}
	}
	if g.enable != nil {
		if err := g.enable.Out(gpio.Low); err != nil {
			return &Error{Transport: "gpio", Op: "disable", Cause: err}
		}
	}
	return nil
}

func (g *GPIO) SetSpeedPercent(percent int) error {
	if err := validatePercent(percent); err != nil {
		return &Error{Transport: "gpio", Op: "set_speed", Cause: err}
	}
	if g.pin == nil {
		return &Error{Transport: "gpio", Op: "set_speed", Cause: fmt.Errorf("pin %s not started", g.pinName)}
	}
	if percent == 0 {
		return g.pin.Out(gpio.Low)
	}
	duty := gpio.Duty(percent * int(gpio.DutyMax) / 100)
	if err := g.pin.PWM(duty, g.freq); err != nil {
		return &Error{Transport: "gpio", Op: "set_speed", Cause: err}
	}
	return nil
}
