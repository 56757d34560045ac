package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/monitoring"
	"github.com/GriffinCanCode/PipeKit/stream"
)

// Job orchestrates exactly one build and run of a factory tree under a
// resolved execution context. A Job is single-use: Run may be called once,
// and the Job is logically finished once Wait has returned.
type Job struct {
	id      string
	factory NodeFactory
	ec      *Context
	metrics *monitoring.Metrics

	mu     sync.Mutex
	root   Node
	stdin  *stream.Stream
	stdout *stream.Stream
	stderr *stream.Stream

	settle sync.Once
}

// NewJob binds a factory tree to an execution context. The context is
// normalized here; later mutations of the caller's copy do not affect the
// Job.
func NewJob(factory NodeFactory, ec *Context) *Job {
	norm := ec.normalized()
	id := uuid.NewString()
	norm.Log = norm.Log.With(zap.String("job_id", id))

	return &Job{
		id:      id,
		factory: factory,
		ec:      norm,
		metrics: monitoring.Default(),
	}
}

// ID returns the job's correlation id.
func (j *Job) ID() string { return j.id }

// Root returns the live root node after Run, nil before.
func (j *Job) Root() Node {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.root
}

// Run builds the factory tree into a live node tree, spawning every process.
// The three factories provide the pipeline's outward-facing stdio; nil means
// the null device. Immediately after the build the Job closes its own
// references to the directions the subtree took ownership of, so EOF can
// propagate once the caller is done.
func (j *Job) Run(ctx context.Context, stdinF, stdoutF, stderrF stream.Factory) error {
	if j.factory == nil {
		return errdefs.Programming("job has no factory")
	}

	j.mu.Lock()
	if j.root != nil {
		j.mu.Unlock()
		return errdefs.Programming("job already run")
	}
	j.mu.Unlock()

	if stdinF == nil {
		stdinF = stream.Null()
	}
	if stdoutF == nil {
		stdoutF = stream.Null()
	}
	if stderrF == nil {
		stderrF = stream.Null()
	}

	sctx, err := j.ec.streamContext()
	if err != nil {
		return err
	}

	stdin, err := stdinF.Build(sctx)
	if err != nil {
		return err
	}
	stdout, err := stdoutF.Build(sctx)
	if err != nil {
		stdin.Close()
		return err
	}
	stderr, err := stderrF.Build(sctx)
	if err != nil {
		stdin.Close()
		stdout.Close()
		return err
	}

	root, err := j.factory.Build(ctx, j.ec, stdin, stdout, stderr)
	if err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return err
	}

	// The subtree owns descriptor copies of the handed-off sides now. A
	// parent holding the reader after giving a child the writer would stall
	// EOF detection downstream.
	stdin.CloseReader()
	stdout.CloseWriter()
	stderr.CloseWriter()

	j.mu.Lock()
	j.root = root
	j.stdin = stdin
	j.stdout = stdout
	j.stderr = stderr
	j.mu.Unlock()

	j.metrics.PipelinesTotal.Inc()
	j.metrics.PipelinesActive.Inc()
	j.ec.Log.Debug("pipeline started", zap.Int("processes", len(root.Flatten())))

	return nil
}

// Stdin returns the pipeline's outward stdin writer, nil before Run or when
// stdin is internally redirected.
func (j *Job) Stdin() *os.File {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stdin == nil {
		return nil
	}
	return j.stdin.Writer()
}

// Stdout returns the pipeline's outward stdout reader, nil before Run or
// when stdout is internally redirected.
func (j *Job) Stdout() *os.File {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stdout == nil {
		return nil
	}
	return j.stdout.Reader()
}

// Stderr returns the pipeline's outward stderr reader, nil before Run or
// when stderr is internally redirected.
func (j *Job) Stderr() *os.File {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stderr == nil {
		return nil
	}
	return j.stderr.Reader()
}

// CloseStdin closes the outward stdin writer, delivering EOF to the first
// stage. Safe to call any number of times.
func (j *Job) CloseStdin() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stdin == nil {
		return nil
	}
	return j.stdin.CloseWriter()
}

// Processes returns the live leaves in flatten order.
func (j *Job) Processes() ([]*Process, error) {
	root := j.Root()
	if root == nil {
		return nil, errdefs.Programming("job not run")
	}
	return root.Flatten(), nil
}

// Wait blocks until every leaf has exited and returns the signed statuses in
// flatten order. The statuses are always returned; if any leaf failed, the
// error is an *ExitError aggregating every failure. Best-effort callers
// inspect the statuses and ignore the error.
func (j *Job) Wait() ([]int, error) {
	root := j.Root()
	if root == nil {
		return nil, errdefs.Programming("wait before run")
	}

	statuses, err := root.Wait()
	if err != nil {
		return nil, err
	}

	j.settle.Do(func() {
		j.metrics.PipelinesActive.Dec()
		j.ec.Log.Debug("pipeline finished", zap.Ints("statuses", statuses))
	})

	return statuses, exitError(root.Flatten(), statuses)
}

// Poll samples every leaf's status, blocking at most timeout.
func (j *Job) Poll(timeout time.Duration) ([]Status, error) {
	root := j.Root()
	if root == nil {
		return nil, errdefs.Programming("poll before run")
	}
	return root.Poll(timeout)
}

// Terminate sends SIGTERM to every still-running leaf. Fire-and-forget:
// call Wait to reap.
func (j *Job) Terminate() error {
	root := j.Root()
	if root == nil {
		return errdefs.Programming("terminate before run")
	}
	return root.Terminate()
}

// Kill sends SIGKILL to every still-running leaf. Fire-and-forget: call
// Wait to reap.
func (j *Job) Kill() error {
	root := j.Root()
	if root == nil {
		return errdefs.Programming("kill before run")
	}
	return root.Kill()
}
