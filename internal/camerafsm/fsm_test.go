package camerafsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-pipeline/internal/model"
)

func TestTransition_FullLifecycleSucceeds(t *testing.T) {
	m := New()
	path := []model.CameraState{
		model.Connecting, model.Connected, model.StartingGrab,
		model.Grabbing, model.StoppingGrab, model.Connected,
		model.Disconnecting, model.Disconnected,
	}
	for _, to := range path {
		require.NoError(t, m.Transition(to))
	}
	assert.Equal(t, model.Disconnected, m.State())
}

func TestTransition_RejectsIllegalEdge(t *testing.T) {
	m := New()
	// Disconnected can only go to Connecting; Grabbing directly is illegal.
	err := m.Transition(model.Grabbing)
	require.Error(t, err)

	var illegal *IllegalStateTransition
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, model.Disconnected, illegal.From)
	assert.Equal(t, model.Grabbing, illegal.To)

	// State is unchanged after a rejected transition.
	assert.Equal(t, model.Disconnected, m.State())
}

func TestTransition_ErrorStateCanOnlyLeaveViaDisconnect(t *testing.T) {
	m := New()
	require.NoError(t, m.Transition(model.Connecting))
	require.NoError(t, m.Transition(model.Error))

	require.Error(t, m.Transition(model.StartingGrab))
	require.NoError(t, m.Transition(model.Disconnecting))
}

func TestOnTransition_ListenerInvokedWithFromTo(t *testing.T) {
	m := New()
	var gotFrom, gotTo model.CameraState
	m.OnTransition(func(from, to model.CameraState) {
		gotFrom, gotTo = from, to
	})

	require.NoError(t, m.Transition(model.Connecting))
	assert.Equal(t, model.Disconnected, gotFrom)
	assert.Equal(t, model.Connecting, gotTo)
}
