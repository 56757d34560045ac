package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/stream"
)

// NodeFactory is a reusable template describing pipeline shape and per-stage
// stdio overrides. Building never mutates the template, so the same factory
// tree can back any number of independent executions. The set of
// implementations is fixed: ProcFactory and ChannelFactory.
type NodeFactory interface {
	// Build resolves streams and spawns the subtree, returning the live
	// node. Inherited streams fill the directions this node does not
	// override; a direction with neither is a configuration error.
	Build(ctx context.Context, ec *Context, stdin, stdout, stderr *stream.Stream) (Node, error)

	isNodeFactory()
}

// redirects holds a node's own stream overrides. A zero value inherits
// everything from the parent. Construction errors from redirection sigils
// are recorded here and surface at build time.
type redirects struct {
	stdin  stream.Factory
	stdout stream.Factory
	stderr stream.Factory
	err    error
}

var (
	readModes  = map[string]bool{"r": true, "rb": true}
	writeModes = map[string]bool{"w": true, "a": true, "wb": true, "ab": true}
)

// sigil maps a redirection argument to a stream factory: nil means the null
// device, a string is a file path opened with mode, a stream.Factory is used
// verbatim.
func sigil(arg interface{}, mode string, read bool) (stream.Factory, error) {
	switch v := arg.(type) {
	case nil:
		return stream.Null(), nil
	case string:
		if read && !readModes[mode] {
			return nil, errdefs.Configuration("invalid stdin mode %q", mode)
		}
		if !read && !writeModes[mode] {
			return nil, errdefs.Configuration("invalid output mode %q", mode)
		}
		return stream.File(v, mode)
	case stream.Factory:
		return v, nil
	default:
		return nil, errdefs.Configuration("unsupported redirection argument %T", arg)
	}
}

func (r redirects) withStdin(arg interface{}, mode string) redirects {
	f, err := sigil(arg, mode, true)
	if err != nil && r.err == nil {
		r.err = err
	}
	r.stdin = f
	return r
}

func (r redirects) withStdout(arg interface{}, mode string) redirects {
	f, err := sigil(arg, mode, false)
	if err != nil && r.err == nil {
		r.err = err
	}
	r.stdout = f
	return r
}

func (r redirects) withStderr(arg interface{}, mode string) redirects {
	f, err := sigil(arg, mode, false)
	if err != nil && r.err == nil {
		r.err = err
	}
	r.stderr = f
	return r
}

// buildNode resolves the three stream slots for a node, runs the inner build,
// and closes the node's references to any streams it opened itself. The
// handed-off sides (stdin's reader, the outputs' writers) belong to the
// subtree once it has spawned.
func buildNode(ec *Context, r redirects, stdin, stdout, stderr *stream.Stream,
	inner func(stdin, stdout, stderr *stream.Stream) (Node, error)) (Node, error) {

	if r.err != nil {
		return nil, r.err
	}

	sctx, err := ec.streamContext()
	if err != nil {
		return nil, err
	}

	var closeAfter []func() error

	if r.stdin != nil {
		s, err := r.stdin.Build(sctx)
		if err != nil {
			return nil, err
		}
		stdin = s
		closeAfter = append(closeAfter, s.CloseReader)
	} else if stdin == nil {
		return nil, errdefs.Configuration("stdin has no stream and no override")
	}

	if r.stdout != nil {
		s, err := r.stdout.Build(sctx)
		if err != nil {
			return nil, err
		}
		stdout = s
		closeAfter = append(closeAfter, s.CloseWriter)
	} else if stdout == nil {
		return nil, errdefs.Configuration("stdout has no stream and no override")
	}

	if r.stderr != nil {
		s, err := r.stderr.Build(sctx)
		if err != nil {
			return nil, err
		}
		stderr = s
		closeAfter = append(closeAfter, s.CloseWriter)
	} else if stderr == nil {
		return nil, errdefs.Configuration("stderr has no stream and no override")
	}

	node, err := inner(stdin, stdout, stderr)

	// Self-opened streams are closed whether or not the subtree came up: the
	// spawned processes hold their own descriptor copies.
	for _, closeFn := range closeAfter {
		closeFn()
	}

	return node, err
}

// ProcFactory templates a single command stage.
type ProcFactory struct {
	redirects
	args []string
	env  map[string]string
	dir  string
}

// Command creates a process template for the given argv. The first element
// is the executable: a path when it contains a separator, otherwise a name
// resolved through the execution environment's PATH at build time.
func Command(args ...string) *ProcFactory {
	f := &ProcFactory{}
	f.args = append(f.args, args...)
	return f
}

func (f *ProcFactory) clone() *ProcFactory {
	c := *f
	c.args = append([]string(nil), f.args...)
	if f.env != nil {
		c.env = make(map[string]string, len(f.env))
		for k, v := range f.env {
			c.env[k] = v
		}
	}
	return &c
}

// Args returns a copy of the templated argv.
func (f *ProcFactory) Args() []string {
	return append([]string(nil), f.args...)
}

// With returns a copy with extra arguments appended, leaving the original
// template untouched.
func (f *ProcFactory) With(args ...string) *ProcFactory {
	c := f.clone()
	c.args = append(c.args, args...)
	return c
}

// WithEnv returns a copy with extra environment overrides merged in; new
// keys win over existing ones.
func (f *ProcFactory) WithEnv(env map[string]string) *ProcFactory {
	c := f.clone()
	if c.env == nil {
		c.env = make(map[string]string, len(env))
	}
	for k, v := range env {
		c.env[k] = v
	}
	return c
}

// WithDir returns a copy with a working-directory override.
func (f *ProcFactory) WithDir(dir string) *ProcFactory {
	c := f.clone()
	c.dir = dir
	return c
}

// Stdin returns a copy redirecting stdin: a path reads the file, nil reads
// the null device, a stream.Factory is used verbatim.
func (f *ProcFactory) Stdin(arg interface{}) *ProcFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdin(arg, "r")
	return c
}

// StdinFile returns a copy reading stdin from path with an explicit mode
// (r or rb).
func (f *ProcFactory) StdinFile(path, mode string) *ProcFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdin(path, mode)
	return c
}

// Stdout returns a copy redirecting stdout: a path truncates and writes the
// file, nil discards, a stream.Factory is used verbatim.
func (f *ProcFactory) Stdout(arg interface{}) *ProcFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdout(arg, "w")
	return c
}

// StdoutFile returns a copy writing stdout to path with an explicit mode
// (w, a, wb, ab).
func (f *ProcFactory) StdoutFile(path, mode string) *ProcFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdout(path, mode)
	return c
}

// Stderr returns a copy redirecting stderr, with the same sigils as Stdout.
func (f *ProcFactory) Stderr(arg interface{}) *ProcFactory {
	c := f.clone()
	c.redirects = c.redirects.withStderr(arg, "w")
	return c
}

// StderrFile returns a copy writing stderr to path with an explicit mode.
func (f *ProcFactory) StderrFile(path, mode string) *ProcFactory {
	c := f.clone()
	c.redirects = c.redirects.withStderr(path, mode)
	return c
}

// Pipe joins this stage's stdout to right's stdin, the programmatic |.
// Both operands remain independently reusable.
func (f *ProcFactory) Pipe(right NodeFactory) *ChannelFactory {
	return Pipe(f, right)
}

// Build spawns the process under the execution context, merging the
// template's env and dir overrides over the context's.
func (f *ProcFactory) Build(ctx context.Context, ec *Context, stdin, stdout, stderr *stream.Stream) (Node, error) {
	ec = ec.normalized()
	return buildNode(ec, f.redirects, stdin, stdout, stderr,
		func(stdin, stdout, stderr *stream.Stream) (Node, error) {
			return f.buildInner(ec, stdin, stdout, stderr)
		})
}

func (f *ProcFactory) buildInner(ec *Context, stdin, stdout, stderr *stream.Stream) (Node, error) {
	if len(f.args) == 0 {
		return nil, errdefs.Configuration("process requires a non-empty argv")
	}

	env := make(map[string]string, len(ec.Env)+len(f.env))
	for k, v := range ec.Env {
		env[k] = v
	}
	for k, v := range f.env {
		env[k] = v
	}

	dir := f.dir
	if dir == "" {
		dir = ec.Dir
	}

	owner, err := ec.owner()
	if err != nil {
		return nil, err
	}

	proc := newProcess(f.args, dir, env, owner, stdin, stdout, stderr, ec.Log)
	if err := proc.run(); err != nil {
		return nil, err
	}
	return proc, nil
}

func (f *ProcFactory) isNodeFactory() {}

// ChannelFactory templates two stages joined by an OS pipe.
type ChannelFactory struct {
	redirects
	left  NodeFactory
	right NodeFactory
	pipe  *stream.PipeFactory
}

// Pipe creates a channel template joining left's stdout to right's stdin.
func Pipe(left, right NodeFactory) *ChannelFactory {
	f := &ChannelFactory{left: left, right: right, pipe: stream.Pipe()}
	if left == nil || right == nil {
		f.err = errdefs.Configuration("pipe requires two factories")
	}
	return f
}

func (f *ChannelFactory) clone() *ChannelFactory {
	c := *f
	return &c
}

// Stdin returns a copy redirecting the channel's (left side's) stdin.
func (f *ChannelFactory) Stdin(arg interface{}) *ChannelFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdin(arg, "r")
	return c
}

// StdinFile returns a copy reading the channel's stdin from path.
func (f *ChannelFactory) StdinFile(path, mode string) *ChannelFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdin(path, mode)
	return c
}

// Stdout returns a copy redirecting the channel's (right side's) stdout.
func (f *ChannelFactory) Stdout(arg interface{}) *ChannelFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdout(arg, "w")
	return c
}

// StdoutFile returns a copy writing the channel's stdout to path.
func (f *ChannelFactory) StdoutFile(path, mode string) *ChannelFactory {
	c := f.clone()
	c.redirects = c.redirects.withStdout(path, mode)
	return c
}

// Stderr returns a copy redirecting stderr for both sides of the channel.
func (f *ChannelFactory) Stderr(arg interface{}) *ChannelFactory {
	c := f.clone()
	c.redirects = c.redirects.withStderr(arg, "w")
	return c
}

// StderrFile returns a copy writing stderr to path with an explicit mode.
func (f *ChannelFactory) StderrFile(path, mode string) *ChannelFactory {
	c := f.clone()
	c.redirects = c.redirects.withStderr(path, mode)
	return c
}

// Pipe extends the chain with another stage.
func (f *ChannelFactory) Pipe(right NodeFactory) *ChannelFactory {
	return Pipe(f, right)
}

// Build constructs the channel. Left and right build concurrently: a
// producer blocked on a full pipe must be unblockable by a consumer whose
// own construction has not finished, so sequential construction could
// deadlock. Once both subtrees hold their descriptor copies the channel
// closes its own pipe references.
func (f *ChannelFactory) Build(ctx context.Context, ec *Context, stdin, stdout, stderr *stream.Stream) (Node, error) {
	ec = ec.normalized()
	return buildNode(ec, f.redirects, stdin, stdout, stderr,
		func(stdin, stdout, stderr *stream.Stream) (Node, error) {
			return f.buildInner(ctx, ec, stdin, stdout, stderr)
		})
}

func (f *ChannelFactory) buildInner(ctx context.Context, ec *Context, stdin, stdout, stderr *stream.Stream) (Node, error) {
	sctx, err := ec.streamContext()
	if err != nil {
		return nil, err
	}

	pipeStream, err := f.pipe.Build(sctx)
	if err != nil {
		return nil, err
	}

	var left, right Node
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := f.left.Build(gctx, ec, stdin, pipeStream, stderr)
		left = n
		return err
	})
	g.Go(func() error {
		n, err := f.right.Build(gctx, ec, pipeStream, stdout, stderr)
		right = n
		return err
	})
	err = g.Wait()

	// Both children own descriptor copies now (or failed to come up); either
	// way the channel's own pipe ends must go, or downstream EOF never
	// arrives.
	pipeStream.Close()

	if err != nil {
		return nil, err
	}
	return newChannel(left, right), nil
}

func (f *ChannelFactory) isNodeFactory() {}
