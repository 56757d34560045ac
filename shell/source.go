package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/quote"
)

// Source runs the configured POSIX shell, sources path in it, and imports the
// resulting environment back into the Shell. The environment comes back over
// an extra inherited pipe descriptor as a NUL-separated dump, so the script's
// own stdout and stderr stay on the shell's defaults and cannot corrupt the
// import.
func (s *Shell) Source(ctx context.Context, path string) error {
	s.mu.Lock()
	shellPath := s.cfg.Shell.Path
	dir := s.dir
	environ := make([]string, 0, len(s.env))
	for k, v := range s.env {
		environ = append(environ, k+"="+v)
	}
	stdin, stdout, stderr := s.stdin, s.stdout, s.stderr
	s.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return errdefs.Configuration("source %s: %v", path, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("source env pipe: %w", err)
	}
	defer r.Close()

	// ExtraFiles places the write end at descriptor 3 in the child.
	script := fmt.Sprintf(". %s && env -0 >&3", quote.Arg(path))
	cmd := exec.CommandContext(ctx, shellPath, "-c", script)
	cmd.Dir = dir
	cmd.Env = environ
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.ExtraFiles = []*os.File{w}

	if err := cmd.Start(); err != nil {
		w.Close()
		return fmt.Errorf("source %s: %w", path, err)
	}
	w.Close()

	dump, readErr := io.ReadAll(r)
	if err := cmd.Wait(); err != nil {
		return errdefs.Configuration("source %s: %v", path, err)
	}
	if readErr != nil {
		return fmt.Errorf("source %s: read environment: %w", path, readErr)
	}

	env := parseNulEnviron(dump)
	if len(env) == 0 {
		return errdefs.Configuration("source %s: empty environment dump", path)
	}

	s.mu.Lock()
	s.env = env
	s.mu.Unlock()

	return nil
}

// parseNulEnviron splits a NUL-separated env dump into a map. Values may
// contain newlines; only NUL terminates an entry.
func parseNulEnviron(dump []byte) map[string]string {
	env := make(map[string]string)
	for _, entry := range bytes.Split(dump, []byte{0}) {
		if len(entry) == 0 {
			continue
		}
		if k, v, ok := strings.Cut(string(entry), "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
