package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.tg.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestRun_LoadsAndExecutesGrid(t *testing.T) {
	path := writeGrid(t, `
step "root" {
  uses  = "const"
  value = 10
}

step "echoed" {
  uses       = "const"
  depends_on = ["root"]
  value      = step.root
}
`)

	var out bytes.Buffer
	err := run(&out, []string{"-grid", path, "-log-level", "error"})
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "step[root]")
	assert.Contains(t, output, "step[echoed]")
	assert.Contains(t, output, "state=Complete")
}

func TestRun_NoGridPathPrintsUsageAndExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_MalformedGridReturnsError(t *testing.T) {
	path := writeGrid(t, `
		step "broken" {
	// missing closing brace
`)

	var out bytes.Buffer
	err := run(&out, []string{"-grid", path})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loading grid"))
}
