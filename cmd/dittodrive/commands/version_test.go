package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVersion(t *testing.T) {
	prev := build
	build = BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}
	t.Cleanup(func() {
		build = prev
		versionShort, versionOutput = false, "table"
	})

	run := func(short bool, format string) string {
		versionShort, versionOutput = short, format
		var buf bytes.Buffer
		versionCmd.SetOut(&buf)
		require.NoError(t, runVersion(versionCmd, nil))
		return buf.String()
	}

	assert.Equal(t, "1.2.3\n", run(true, "table"))

	table := run(false, "table")
	assert.Contains(t, table, "abc123")
	assert.Contains(t, table, "2026-01-02")

	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(run(false, "json")), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")

	versionOutput = "xml"
	assert.Error(t, runVersion(versionCmd, nil))
}
