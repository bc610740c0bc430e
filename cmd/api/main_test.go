package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRoot_RejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `{"storage":{"backend":"file","data_dir":""}}`)

	err := execute(t, "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_dir")
}

func TestRoot_AddrFlagOverridesConfig(t *testing.T) {
	dir := filepath.ToSlash(t.TempDir())
	path := writeConfig(t, `{"storage":{"backend":"file","data_dir":"`+dir+`"},"server":{"addr":":8080"}}`)

	err := execute(t, "--config", path, "--addr", "127.0.0.1:-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:-1")
}
