package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	c, err := Load("/nonexistent/path/settings.yaml")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Detection, c.DetectionSnapshot())
}

func TestUpdateDetection_RejectsMinAreaGreaterThanMaxArea(t *testing.T) {
	c := Defaults()
	bad := c.DetectionSnapshot()
	bad.MinArea = 100
	bad.MaxArea = 10

	err := c.UpdateDetection(bad)
	require.Error(t, err)
	var violation *ConfigInvariantViolation
	require.ErrorAs(t, err, &violation)

	// Previous value is kept on rejection.
	assert.Equal(t, Defaults().Detection, c.DetectionSnapshot())
}

func TestUpdatePackaging_RejectsOutOfOrderThresholds(t *testing.T) {
	c := Defaults()
	bad := c.PackagingSnapshot()
	bad.SpeedMediumThreshold = 0.1 // below SpeedFullThreshold
	require.Error(t, c.UpdatePackaging(bad))
}

func TestUpdatePackaging_RejectsNonMonotonicTierPercents(t *testing.T) {
	c := Defaults()
	bad := c.PackagingSnapshot()
	bad.TierMediumPercent = bad.TierFullPercent + 1
	require.Error(t, c.UpdatePackaging(bad))
}

func TestUpdatePackaging_AcceptsValidReplacement(t *testing.T) {
	c := Defaults()
	next := c.PackagingSnapshot()
	next.TargetCount = 50
	require.NoError(t, c.UpdatePackaging(next))
	assert.Equal(t, 50, c.PackagingSnapshot().TargetCount)
}
