package actuator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_SetSpeedPercentRejectsOutOfRange(t *testing.T) {
	s := NewSimulated("feeder-a")
	require.NoError(t, s.Start())

	err := s.SetSpeedPercent(150)
	require.Error(t, err)
	assert.Equal(t, 0, s.percent) // unaffected by the rejected call

	require.NoError(t, s.SetSpeedPercent(67))
	assert.Equal(t, 67, s.percent)
}

func TestSimulated_StopResetsSpeedAndRunningFlag(t *testing.T) {
	s := NewSimulated("feeder-b")
	require.NoError(t, s.Start())
	require.NoError(t, s.SetSpeedPercent(100))

	require.NoError(t, s.Stop())

	assert.Equal(t, 0, s.percent)
	assert.False(t, s.running)
}
