package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookBlock(t *testing.T) {
	block := hookBlock("high", "text", 10, nil)

	assert.True(t, strings.HasPrefix(block, hookBegin+"\n"))
	assert.True(t, strings.HasSuffix(block, hookEnd+"\n"))
	assert.Contains(t, block, "quorum review staged --fail-on high --format text --max-findings 10\n")
	assert.Contains(t, block, "status=$?")
	assert.Contains(t, block, "exit 1")
	assert.Contains(t, block, "commit allowed")
	assert.NotContains(t, block, "--agents")
}

func TestHookBlock_Agents(t *testing.T) {
	block := hookBlock("medium", "json", 5, []string{"security", "secrets"})
	assert.Contains(t, block, "--fail-on medium --format json --max-findings 5 --agents security,secrets")
}

func TestUpsertHookBlock_Appends(t *testing.T) {
	existing := "#!/bin/sh\nmake lint"
	block := hookBlock("high", "text", 10, nil)

	got := upsertHookBlock(existing, block)
	assert.Equal(t, "#!/bin/sh\nmake lint\n"+block, got)
}

func TestUpsertHookBlock_ReplacesInPlace(t *testing.T) {
	old := hookBlock("low", "text", 3, nil)
	existing := "#!/bin/sh\nmake lint\n" + old + "go test ./...\n"
	block := hookBlock("critical", "json", 20, nil)

	got := upsertHookBlock(existing, block)
	assert.Equal(t, "#!/bin/sh\nmake lint\n"+block+"go test ./...\n", got)
	assert.Equal(t, 1, strings.Count(got, hookBegin))
	assert.NotContains(t, got, "--fail-on low")
}

func TestStripHookBlock(t *testing.T) {
	existing := "#!/bin/sh\nmake lint\n" + hookBlock("high", "text", 10, nil) + "go test ./...\n"

	got := stripHookBlock(existing)
	assert.Equal(t, "#!/bin/sh\nmake lint\ngo test ./...\n", got)

	unchanged := "#!/bin/sh\nmake lint\n"
	assert.Equal(t, unchanged, stripHookBlock(unchanged))
}

func TestCutHookBlock_EndBeforeStart(t *testing.T) {
	_, _, ok := cutHookBlock(hookEnd + "\n" + hookBegin + "\n")
	require.False(t, ok)
}

func TestOnlyShebang(t *testing.T) {
	assert.True(t, onlyShebang("#!/bin/sh\n"))
	assert.True(t, onlyShebang("  \n"))
	assert.True(t, onlyShebang("#!/usr/bin/env bash\n\n"))
	assert.False(t, onlyShebang("#!/bin/sh\nmake lint\n"))
}
