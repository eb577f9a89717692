// Package camerafsm implements C8 CameraStateMachine: the legal camera
// lifecycle transitions of spec.md §4.8, enforced centrally so no
// caller can push the pipeline through an illegal edge (invariant I6).
// Grounded on the sync.Once-guarded singleton-state idiom of
// lkumar3-iitr-Sensor-Logger's utils/logger.go, generalized from a
// single lazy-init transition into a full transition table.
package camerafsm

import (
	"fmt"
	"sync"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/obslog"
)

// IllegalStateTransition is raised when a caller requests a transition
// not present in the legal-edge table (spec.md §7).
type IllegalStateTransition struct {
	From, To model.CameraState
}

func (e *IllegalStateTransition) Error() string {
	return fmt.Sprintf("illegal camera state transition: %s -> %s", e.From, e.To)
}

// legalEdges encodes the diagram in spec.md §4.8.
var legalEdges = map[model.CameraState]map[model.CameraState]bool{
	model.Disconnected: {model.Connecting: true},
	model.Connecting: {
		model.Connected:    true,
		model.Error:        true,
		model.Disconnected: true,
	},
	model.Connected: {
		model.StartingGrab:  true,
		model.Disconnecting: true,
		model.Error:         true,
	},
	model.StartingGrab: {
		model.Grabbing: true,
		model.Error:    true,
	},
	model.Grabbing: {
		model.StoppingGrab: true,
		model.Error:        true,
	},
	model.StoppingGrab: {
		model.Connected: true,
		model.Error:     true,
	},
	model.Disconnecting: {
		model.Disconnected: true,
		model.Error:        true,
	},
	model.Error: {
		model.Disconnecting: true,
		model.Disconnected:  true,
	},
}

// Listener is invoked synchronously after every accepted transition.
type Listener func(from, to model.CameraState)

// Machine is a mutex-guarded camera state holder.
type Machine struct {
	mu        sync.Mutex
	state     model.CameraState
	listeners []Listener
}

// New creates a machine starting in Disconnected.
func New() *Machine {
	return &Machine{state: model.Disconnected}
}

// State returns the current state.
func (m *Machine) State() model.CameraState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnTransition registers a listener invoked after each accepted move.
func (m *Machine) OnTransition(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Transition attempts to move to `to`. It fails with
// IllegalStateTransition if the edge is not in the legal table.
func (m *Machine) Transition(to model.CameraState) error {
	m.mu.Lock()
	from := m.state
	allowed := legalEdges[from][to]
	if !allowed {
		m.mu.Unlock()
		return &IllegalStateTransition{From: from, To: to}
	}
	m.state = to
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	obslog.L().Info("camera: %s -> %s", from, to)
	for _, l := range listeners {
		l(from, to)
	}
	return nil
}

// MustTransition is for call sites that have already validated legality
// (e.g. a worker posting its own completion) and want a log-only
// fallback instead of propagating the error.
func (m *Machine) MustTransition(to model.CameraState) {
	if err := m.Transition(to); err != nil {
		obslog.L().Error("camera fsm: %v", err)
	}
}
