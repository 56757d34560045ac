package stream

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/PipeKit/errdefs"
)

func TestFileModeWhitelist(t *testing.T) {
	for _, mode := range []string{"r", "rb", "w", "a", "wb", "ab"} {
		_, err := File("x", mode)
		assert.NoError(t, err, "mode %q", mode)
	}

	for _, mode := range []string{"", "rw", "r+", "x", "w+", "read"} {
		_, err := File("x", mode)
		require.Error(t, err, "mode %q", mode)
		assert.True(t, errdefs.IsConfiguration(err), "mode %q", mode)
	}
}

func TestFileRelativePathResolution(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.txt"), []byte("payload"), 0o644))

	f, err := File("in.txt", "r")
	require.NoError(t, err)

	s, err := f.Build(&Context{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	data, err := io.ReadAll(s.Reader())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFileWriteAndAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	wf, err := File(path, "w")
	require.NoError(t, err)
	s, err := wf.Build(&Context{})
	require.NoError(t, err)
	_, err = s.Writer().Write([]byte("first"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	af, err := File(path, "a")
	require.NoError(t, err)
	s, err = af.Build(&Context{})
	require.NoError(t, err)
	_, err = s.Writer().Write([]byte(" second"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first second", string(data))
}

func TestFileReadSideOnlyForReadModes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	wf, err := File(path, "w")
	require.NoError(t, err)
	s, err := wf.Build(&Context{})
	require.NoError(t, err)
	defer s.Close()

	// Writer is the file, reader is a null filler with immediate EOF.
	buf := make([]byte, 4)
	n, readErr := s.Reader().Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, readErr)
}

func TestFileOpenFailurePropagates(t *testing.T) {
	f, err := File(filepath.Join(t.TempDir(), "missing", "deep.txt"), "r")
	require.NoError(t, err)

	_, err = f.Build(&Context{})
	assert.Error(t, err)
	assert.False(t, errdefs.IsConfiguration(err))
}

func TestNullFactory(t *testing.T) {
	s, err := Null().Build(&Context{})
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Reader())
	assert.NotNil(t, s.Writer())
}

func TestPtyFactory(t *testing.T) {
	ptmx, f, err := NewPty()
	require.NoError(t, err)
	defer ptmx.Close()
	defer f.Close()

	s, err := f.Build(&Context{})
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.Reader())
	require.NotNil(t, s.Writer())

	// Terminal side echoes through the control side.
	_, err = ptmx.Write([]byte("hi\n"))
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = io.ReadFull(s.Reader(), buf)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(buf))
}
