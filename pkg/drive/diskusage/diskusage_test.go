//go:build unix

package diskusage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStat(t *testing.T) {
	st, err := Stat(t.TempDir())
	require.NoError(t, err)
	assert.Positive(t, st.TotalBytes)
	assert.LessOrEqual(t, st.FreeBytes, st.TotalBytes)
	assert.LessOrEqual(t, st.AvailableBytes, st.FreeBytes)
	assert.Equal(t, st.TotalBytes-st.FreeBytes, st.UsedBytes())
}

func TestStatMissing(t *testing.T) {
	_, err := Stat("/definitely/not/here")
	assert.Error(t, err)
}

func TestUsedBytesClamps(t *testing.T) {
	assert.Zero(t, Stats{TotalBytes: 1, FreeBytes: 2}.UsedBytes())
}
