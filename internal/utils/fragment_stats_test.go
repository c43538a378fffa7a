package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentStats(t *testing.T) {
	fs := NewFragmentStats()
	base := fs.start
	for _, ms := range []int{10, 20, 30, 40} {
		fs.OnFragmentAt(base.Add(time.Duration(ms) * time.Millisecond))
	}

	info := fs.End()
	require.NotNil(t, info)
	assert.Equal(t, 4, info.Count)
	assert.InDelta(t, 10, info.FirstMs, 0.01)
	assert.InDelta(t, 10, info.Mean, 0.01)
	assert.InDelta(t, 10, info.Max, 0.01)
	assert.InDelta(t, 0, info.StdDev, 0.01)
	assert.False(t, info.IsError)

	// finalize is idempotent
	assert.Nil(t, fs.End())
	assert.Nil(t, fs.Stop())
}

func TestFragmentStats_StopWithoutFragments(t *testing.T) {
	fs := NewFragmentStats()
	info := fs.Stop()
	require.NotNil(t, info)
	assert.Equal(t, 0, info.Count)
	assert.True(t, info.IsError)

	fs.OnFragment()
	assert.Nil(t, fs.End())
}
