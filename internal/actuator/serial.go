package actuator

import (
	"fmt"

	"go.bug.st/serial"

	"vision-pipeline/internal/obslog"
)

// commandTerminator matches the simple line-oriented protocol spoken by
// the feeder controller boards this was validated against: "S<percent>\n"
// to set speed, "R\n"/"X\n" to run/stop.
const commandTerminator = "\n"

// Serial drives a feeder over a line-oriented ASCII protocol on a
// serial port (spec.md §6: "actuator.transport: serial").
type Serial struct {
	name string
	port string
	baud int

	conn serial.Port
}

// NewSerial creates a serial actuator transport. The port is opened lazily
// on Start so construction never fails for a not-yet-plugged-in device.
func NewSerial(name, port string, baud int) *Serial {
	return &Serial{name: name, port: port, baud: baud}
}

func (s *Serial) Name() string { return s.name }

func (s *Serial) Start() error {
	if s.conn != nil {
		return nil
	}
	mode := &serial.Mode{BaudRate: s.baud}
	conn, err := serial.Open(s.port, mode)
	if err != nil {
		return &Error{Transport: "serial", Op: "open", Cause: err}
	}
	s.conn = conn
	if err := s.send("R"); err != nil {
		return err
	}
	obslog.L().Info("actuator %s: serial port %s opened at %d baud", s.name, s.port, s.baud)
	return nil
}

func (s *Serial) Stop() error {
	if s.conn == nil {
		return nil
	}
	err := s.send("X")
	closeErr := s.conn.Close()
	s.conn = nil
	if err != nil {
		return err
	}
	if closeErr != nil {
		return &Error{Transport: "serial", Op: "close", Cause: closeErr}
	}
	return nil
}

func (s *Serial) SetSpeedPercent(percent int) error {
	if err := validatePercent(percent); err != nil {
		return &Error{Transport: "serial", Op: "set_speed", Cause: err}
	}
	return s.send(fmt.Sprintf("S%d", percent))
}

func (s *Serial) send(cmd string) error {
	if s.conn == nil {
		return &Error{Transport: "serial", Op: "send", Cause: fmt.Errorf("port %s not open", s.port)}
	}
	if _, err := s.conn.Write([]byte(cmd + commandTerminator)); err != nil {
		return &Error{Transport: "serial", Op: "send", Cause: err}
	}
	return nil
}
