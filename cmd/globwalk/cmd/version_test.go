package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/globwalk/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	// Given: a fresh version command
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)

	// When: it runs without flags
	require.NoError(t, cmd.Execute())

	// Then: the one-line form names the program, version, and commit
	out := buf.String()
	assert.Contains(t, out, "globwalk")
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	// Given: a version command with --short
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--short"})

	// When: it runs
	require.NoError(t, cmd.Execute())

	// Then: the bare version and nothing else
	assert.Equal(t, version.Version, strings.TrimSpace(buf.String()))
}

func TestVersionCmd_ShortBeatsJSON(t *testing.T) {
	// Given: both output flags at once
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--short", "--json"})

	// When: it runs
	require.NoError(t, cmd.Execute())

	// Then: short wins, keeping script use predictable
	assert.Equal(t, version.Version, strings.TrimSpace(buf.String()))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	// Given: a version command with --json
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--json"})

	// When: it runs
	require.NoError(t, cmd.Execute())

	// Then: a JSON object holding the whole build identity
	var info map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))

	assert.Equal(t, version.Version, info["version"])
	for _, field := range []string{"commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, info, field)
	}
}
