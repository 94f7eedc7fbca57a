package webcore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	webcore "github.com/veridianlabs/webcore"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-10 * time.Minute)
	old := time.Now().Add(-48 * time.Hour)

	within, err := webcore.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.True(t, within)

	within, err = webcore.IsWithinThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.False(t, within)

	_, err = webcore.IsWithinThresholdPeriod(recent, "not-a-duration")
	assert.Error(t, err)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-10 * time.Minute)
	old := time.Now().Add(-48 * time.Hour)

	outside, err := webcore.IsOutsideThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.True(t, outside)

	outside, err = webcore.IsOutsideThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.False(t, outside)
}
