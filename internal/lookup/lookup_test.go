package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/PipeKit/errdefs"
)

func writeScript(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode))
	return path
}

func TestWhichFindsExecutable(t *testing.T) {
	dir := t.TempDir()
	want := writeScript(t, dir, "tool", 0o755)

	got, err := Which("tool", dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWhichSearchesInOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := writeScript(t, first, "tool", 0o755)
	writeScript(t, second, "tool", 0o755)

	got, err := Which("tool", first+string(os.PathListSeparator)+second)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWhichSkipsNonExecutable(t *testing.T) {
	plain := t.TempDir()
	exec := t.TempDir()
	writeScript(t, plain, "tool", 0o644)
	want := writeScript(t, exec, "tool", 0o755)

	got, err := Which("tool", plain+string(os.PathListSeparator)+exec)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWhichNotFound(t *testing.T) {
	_, err := Which("tool", t.TempDir())
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestResolveRelativePath(t *testing.T) {
	dir := t.TempDir()
	want := writeScript(t, dir, "tool", 0o755)

	got, err := Resolve("./tool", dir, "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	want := writeScript(t, dir, "tool", 0o755)

	got, err := Resolve(want, "/elsewhere", "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveDirectoryRejected(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "tool")
	require.NoError(t, os.Mkdir(sub, 0o755))

	_, err := Resolve("./tool", dir, "")
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestResolveEmptyName(t *testing.T) {
	_, err := Resolve("", "", "")
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}
