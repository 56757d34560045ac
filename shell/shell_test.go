package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/config"
	"github.com/GriffinCanCode/PipeKit/internal/logging"
	"github.com/GriffinCanCode/PipeKit/pipeline"
)

func newTestShell(t *testing.T, opts ...Option) *Shell {
	t.Helper()
	base := []Option{
		WithDir(t.TempDir()),
		WithEnv(map[string]string{"PATH": os.Getenv("PATH")}),
		WithLogger(logging.Nop()),
		WithConfig(config.Default()),
	}
	s, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func TestNewReadsProcessState(t *testing.T) {
	t.Setenv("SHELL_SEED_MARKER", "present")

	s, err := New(WithLogger(logging.Nop()), WithConfig(config.Default()))
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, s.Dir())
	assert.Equal(t, "present", s.Getenv("SHELL_SEED_MARKER"))
}

func TestExportAndEnviron(t *testing.T) {
	s := newTestShell(t)

	require.NoError(t, s.Export("ALPHA=1", "BETA=two=three"))
	assert.Equal(t, "1", s.Getenv("ALPHA"))
	assert.Equal(t, "two=three", s.Getenv("BETA"))

	err := s.Export("MISSING_SEPARATOR")
	assert.True(t, errdefs.IsConfiguration(err))

	environ := s.Environ()
	assert.Contains(t, environ, "ALPHA=1")
	assert.Contains(t, environ, "BETA=two=three")
}

func TestChdir(t *testing.T) {
	s := newTestShell(t)
	start := s.Dir()

	sub := filepath.Join(start, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	require.NoError(t, s.Chdir("sub"))
	assert.Equal(t, sub, s.Dir())

	require.NoError(t, s.Chdir("-"))
	assert.Equal(t, start, s.Dir())
	require.NoError(t, s.Chdir("-"))
	assert.Equal(t, sub, s.Dir())
}

func TestChdirErrors(t *testing.T) {
	s := newTestShell(t)

	err := s.Chdir("-")
	assert.True(t, errdefs.IsConfiguration(err))

	err = s.Chdir("does-not-exist")
	assert.True(t, errdefs.IsConfiguration(err))

	file := filepath.Join(s.Dir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	err = s.Chdir("plain")
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestChdirTemp(t *testing.T) {
	s := newTestShell(t)
	start := s.Dir()

	sub := filepath.Join(start, "scratch")
	require.NoError(t, os.Mkdir(sub, 0o755))

	restore, err := s.ChdirTemp(sub)
	require.NoError(t, err)
	assert.Equal(t, sub, s.Dir())

	require.NoError(t, restore())
	assert.Equal(t, start, s.Dir())
}

func TestCommandSearchesPath(t *testing.T) {
	s := newTestShell(t)

	f, err := s.Command("sh", "-c", "exit 0")
	require.NoError(t, err)

	args := f.Args()
	require.NotEmpty(t, args)
	assert.True(t, filepath.IsAbs(args[0]))
	assert.True(t, strings.HasSuffix(args[0], "/sh"))
	assert.Equal(t, []string{"-c", "exit 0"}, args[1:])
}

func TestCommandNotFound(t *testing.T) {
	s := newTestShell(t, WithEnv(map[string]string{"PATH": t.TempDir()}))

	_, err := s.Command("definitely-not-installed")
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestCommandRelativeToShellDir(t *testing.T) {
	s := newTestShell(t)

	script := filepath.Join(s.Dir(), "hello.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	f, err := s.Command("./hello.sh")
	require.NoError(t, err)
	assert.Equal(t, script, f.Args()[0])
}

func TestRunDefaultStdio(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer out.Close()

	s := newTestShell(t, WithStdio(nil, out, nil))

	echo, err := s.Command("sh", "-c", "printf 'from the shell'")
	require.NoError(t, err)

	statuses, err := s.Run(context.Background(), echo)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, statuses)

	got, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, "from the shell", string(got))

	// The shell borrows its stdio; running a pipeline must not close it.
	_, err = out.WriteString("!")
	assert.NoError(t, err)
}

func TestRunStopsOnFailure(t *testing.T) {
	s := newTestShell(t)

	fail, err := s.Command("sh", "-c", "exit 7")
	require.NoError(t, err)
	ok, err := s.Command("sh", "-c", "exit 0")
	require.NoError(t, err)

	statuses, err := s.Run(context.Background(), fail, ok)
	require.Error(t, err)
	var exitErr *pipeline.ExitError
	assert.ErrorAs(t, err, &exitErr)
	assert.Equal(t, [][]int{{7}}, statuses)
}

func TestRunWithoutExceptions(t *testing.T) {
	s := newTestShell(t, WithExceptions(false))

	fail, err := s.Command("sh", "-c", "exit 7")
	require.NoError(t, err)
	ok, err := s.Command("sh", "-c", "exit 0")
	require.NoError(t, err)

	statuses, err := s.Run(context.Background(), fail, ok)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{7}, {0}}, statuses)
}

func TestEvaluate(t *testing.T) {
	s := newTestShell(t)

	cmd, err := s.Command("sh", "-c", "printf 'captured output'")
	require.NoError(t, err)

	out, err := s.Evaluate(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "captured output", out)
}

func TestEvaluatePipeline(t *testing.T) {
	s := newTestShell(t)

	left, err := s.Command("sh", "-c", "printf 'a\\nb\\nc\\n'")
	require.NoError(t, err)
	right, err := s.Command("wc", "-l")
	require.NoError(t, err)

	out, err := s.Evaluate(context.Background(), left.Pipe(right))
	require.NoError(t, err)
	assert.Equal(t, "3", strings.TrimSpace(out))
}

func TestEvaluateFailureWithoutExceptions(t *testing.T) {
	s := newTestShell(t, WithExceptions(false))

	cmd, err := s.Command("sh", "-c", "printf 'partial'; exit 9")
	require.NoError(t, err)

	out, err := s.Evaluate(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "partial", out)
}

func TestSource(t *testing.T) {
	s := newTestShell(t)
	require.NoError(t, s.Export("KEEP=original"))

	script := filepath.Join(t.TempDir(), "env.sh")
	content := "FOO=bar\nexport FOO\nMULTI='line1\nline2'\nexport MULTI\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0o644))

	require.NoError(t, s.Source(context.Background(), script))

	assert.Equal(t, "bar", s.Getenv("FOO"))
	assert.Equal(t, "line1\nline2", s.Getenv("MULTI"))
	assert.Equal(t, "original", s.Getenv("KEEP"))
	assert.NotEmpty(t, s.Getenv("PATH"))
}

func TestSourceMissingScript(t *testing.T) {
	s := newTestShell(t)

	err := s.Source(context.Background(), filepath.Join(t.TempDir(), "absent.sh"))
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestSourceFailingScript(t *testing.T) {
	s := newTestShell(t)
	require.NoError(t, s.Export("UNTOUCHED=yes"))

	script := filepath.Join(t.TempDir(), "bad.sh")
	require.NoError(t, os.WriteFile(script, []byte("exit 1\n"), 0o644))

	err := s.Source(context.Background(), script)
	assert.True(t, errdefs.IsConfiguration(err))
	assert.Equal(t, "yes", s.Getenv("UNTOUCHED"))
}
