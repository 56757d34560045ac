package shell

import (
	"context"
	"io"
	"os"

	"github.com/GriffinCanCode/PipeKit/pipeline"
	"github.com/GriffinCanCode/PipeKit/stream"
)

// defaultStdio wraps the shell's stdio as non-owning stream factories. The
// pipeline borrows the descriptors; closing the job never closes them.
func (s *Shell) defaultStdio() (stdin, stdout, stderr stream.Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stream.Manual(s.stdin, nil),
		stream.Manual(nil, s.stdout),
		stream.Manual(nil, s.stderr)
}

func (s *Shell) raises() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exceptions
}

// Run executes each factory as its own pipeline on the shell's default stdio,
// sequentially, and returns the signed status vectors in order. When the
// shell raises on failure, the first failing pipeline stops the sequence and
// its *pipeline.ExitError is returned alongside the statuses collected so
// far; otherwise every pipeline runs and the statuses alone carry the
// outcome.
func (s *Shell) Run(ctx context.Context, factories ...pipeline.NodeFactory) ([][]int, error) {
	raises := s.raises()

	var results [][]int
	for _, factory := range factories {
		stdin, stdout, stderr := s.defaultStdio()

		job := s.Job(factory)
		if err := job.Run(ctx, stdin, stdout, stderr); err != nil {
			return results, err
		}

		statuses, err := job.Wait()
		results = append(results, statuses)
		if err != nil && raises {
			return results, err
		}
	}
	return results, nil
}

// Evaluate runs the pipeline with stdout captured to a string; stdin and
// stderr use the shell's defaults. The trailing-newline convention is the
// caller's business: the capture is byte-exact.
func (s *Shell) Evaluate(ctx context.Context, factory pipeline.NodeFactory) (string, error) {
	stdin, _, stderr := s.defaultStdio()

	job := s.Job(factory)
	if err := job.Run(ctx, stdin, stream.Pipe(), stderr); err != nil {
		return "", err
	}

	out, readErr := io.ReadAll(job.Stdout())

	_, waitErr := job.Wait()
	if readErr != nil {
		return string(out), readErr
	}
	if waitErr != nil && s.raises() {
		return string(out), waitErr
	}

	return string(out), nil
}

// Stdin returns the shell's default stdin handle.
func (s *Shell) Stdin() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdin
}

// Stdout returns the shell's default stdout handle.
func (s *Shell) Stdout() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdout
}

// Stderr returns the shell's default stderr handle.
func (s *Shell) Stderr() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderr
}
