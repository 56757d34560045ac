package pipeline

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/ident"
	"github.com/GriffinCanCode/PipeKit/internal/logging"
	"github.com/GriffinCanCode/PipeKit/internal/lookup"
	"github.com/GriffinCanCode/PipeKit/internal/monitoring"
	"github.com/GriffinCanCode/PipeKit/stream"
)

// State describes where a node is in its lifecycle. Transitions only move
// forward.
type State int

const (
	// StateUnbuilt means the node's process has not been spawned.
	StateUnbuilt State = iota
	// StateRunning means every leaf has been spawned and none has exited.
	StateRunning
	// StatePartiallyExited means some but not all leaves have exited.
	StatePartiallyExited
	// StateExited means every leaf has exited.
	StateExited
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateRunning:
		return "running"
	case StatePartiallyExited:
		return "partially-exited"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is one leaf's sampled exit status. Ready is false while the leaf is
// still running; Code then has no meaning.
type Status struct {
	Code  int
	Ready bool
}

// Node is a live pipeline tree: either a single Process or a Channel joining
// two children. The set of implementations is fixed.
type Node interface {
	// Stdin, Stdout, Stderr expose the node's outward stream slots. A
	// channel surfaces left's stdin and right's stdout/stderr; left's stderr
	// is deliberately not surfaced.
	Stdin() *stream.Stream
	Stdout() *stream.Stream
	Stderr() *stream.Stream

	// State reports the node's lifecycle position.
	State() State

	// Wait blocks until every leaf has exited and returns the signed exit
	// statuses in flatten order.
	Wait() ([]int, error)

	// Poll samples every leaf's status without blocking past timeout. Leaves
	// still running are reported with Ready == false.
	Poll(timeout time.Duration) ([]Status, error)

	// Terminate sends SIGTERM to every leaf whose status is not yet known.
	Terminate() error

	// Kill sends SIGKILL to every leaf whose status is not yet known.
	Kill() error

	// Flatten returns the leaves in deterministic left-to-right depth-first
	// order. Every whole-tree result maps onto this order.
	Flatten() []*Process

	flattenInto(dst []*Process) []*Process
}

// Process is a leaf node wrapping one OS process and its three resolved
// streams.
type Process struct {
	args  []string
	dir   string
	env   map[string]string
	owner *ident.Owner

	stdin  *stream.Stream
	stdout *stream.Stream
	stderr *stream.Stream

	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	cmd     *exec.Cmd
	started time.Time
	done    chan struct{}
	status  int
}

func newProcess(args []string, dir string, env map[string]string, owner *ident.Owner,
	stdin, stdout, stderr *stream.Stream, log *logging.Logger) *Process {
	return &Process{
		args:    args,
		dir:     dir,
		env:     env,
		owner:   owner,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		log:     log,
		metrics: monitoring.Default(),
		done:    make(chan struct{}),
	}
}

// run resolves the executable, spawns the process bound to the three
// streams, and starts the reaper. The child inherits only its three stdio
// descriptors: pipeline-internal pipe ends are close-on-exec and never leak
// into unrelated children.
func (p *Process) run() error {
	if len(p.args) == 0 {
		return errdefs.Configuration("process requires a non-empty argv")
	}

	path, err := lookup.Resolve(p.args[0], p.dir, p.env["PATH"])
	if err != nil {
		return err
	}

	attr, err := credential(p.owner)
	if err != nil {
		return err
	}

	cmd := &exec.Cmd{
		Path:        path,
		Args:        p.args,
		Dir:         p.dir,
		Env:         environList(p.env),
		Stdin:       p.stdin.Reader(),
		Stdout:      p.stdout.Writer(),
		Stderr:      p.stderr.Writer(),
		SysProcAttr: attr,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return errdefs.Programming("process already started")
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", path, err)
	}

	p.cmd = cmd
	p.started = time.Now()

	p.metrics.SpawnsTotal.Inc()
	p.log.Debug("spawned process",
		zap.Strings("args", p.args),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("dir", p.dir),
	)

	go p.reap()
	return nil
}

// reap performs the OS-level wait and records the signed status.
func (p *Process) reap() {
	err := p.cmd.Wait()

	status := -1
	if state := p.cmd.ProcessState; state != nil {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status = -int(ws.Signal())
		} else {
			status = state.ExitCode()
		}
	} else if err == nil {
		status = 0
	}

	p.mu.Lock()
	p.status = status
	elapsed := time.Since(p.started)
	p.mu.Unlock()
	close(p.done)

	p.metrics.ObserveExit(status, elapsed.Seconds())
	p.log.Debug("reaped process",
		zap.Strings("args", p.args),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	)
}

// Args returns a copy of the process argv.
func (p *Process) Args() []string {
	out := make([]string, len(p.args))
	copy(out, p.args)
	return out
}

// PID returns the OS process id, or -1 before the process is spawned.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Status samples the exit status without blocking.
func (p *Process) Status() Status {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return Status{Code: p.status, Ready: true}
	default:
		return Status{}
	}
}

// Stdin returns the resolved stdin stream.
func (p *Process) Stdin() *stream.Stream { return p.stdin }

// Stdout returns the resolved stdout stream.
func (p *Process) Stdout() *stream.Stream { return p.stdout }

// Stderr returns the resolved stderr stream.
func (p *Process) Stderr() *stream.Stream { return p.stderr }

// State reports the process lifecycle position.
func (p *Process) State() State {
	p.mu.Lock()
	spawned := p.cmd != nil
	p.mu.Unlock()

	if !spawned {
		return StateUnbuilt
	}
	select {
	case <-p.done:
		return StateExited
	default:
		return StateRunning
	}
}

// Wait blocks until the process exits and returns its signed status as a
// one-element vector.
func (p *Process) Wait() ([]int, error) {
	if p.State() == StateUnbuilt {
		return nil, errdefs.Programming("wait before run")
	}
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	return []int{p.status}, nil
}

// Poll samples the status, blocking at most timeout.
func (p *Process) Poll(timeout time.Duration) ([]Status, error) {
	if p.State() == StateUnbuilt {
		return nil, errdefs.Programming("poll before run")
	}
	return p.pollInto(time.Now().Add(timeout), nil), nil
}

func (p *Process) pollInto(deadline time.Time, dst []Status) []Status {
	if st := p.Status(); st.Ready {
		return append(dst, st)
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return append(dst, Status{})
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-p.done:
		return append(dst, p.Status())
	case <-timer.C:
		return append(dst, Status{})
	}
}

// Terminate sends SIGTERM if the process is still running.
func (p *Process) Terminate() error { return p.signalChecked(syscall.SIGTERM) }

// Kill sends SIGKILL if the process is still running.
func (p *Process) Kill() error { return p.signalChecked(syscall.SIGKILL) }

func (p *Process) signalChecked(sig syscall.Signal) error {
	if p.State() == StateUnbuilt {
		return errdefs.Programming("signal before run")
	}
	return p.signal(sig)
}

// signal delivers sig unless the status is already known. A process that
// vanished between the check and the delivery is not an error.
func (p *Process) signal(sig syscall.Signal) error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := cmd.Process.Signal(sig); err != nil {
		// Lost the race against exit; the reaper reports the status.
		return nil
	}

	p.metrics.SignalsTotal.WithLabelValues(unix.SignalName(sig)).Inc()
	p.log.Debug("signaled process",
		zap.Strings("args", p.args),
		zap.String("signal", unix.SignalName(sig)),
	)
	return nil
}

// Flatten returns the process itself.
func (p *Process) Flatten() []*Process { return []*Process{p} }

func (p *Process) flattenInto(dst []*Process) []*Process { return append(dst, p) }

// Channel is a composite node joining two live children through an OS pipe:
// left's stdout feeds right's stdin.
type Channel struct {
	left  Node
	right Node

	stdin  *stream.Stream
	stdout *stream.Stream
	stderr *stream.Stream
}

func newChannel(left, right Node) *Channel {
	return &Channel{
		left:   left,
		right:  right,
		stdin:  left.Stdin(),
		stdout: right.Stdout(),
		stderr: right.Stderr(),
	}
}

// Left returns the upstream child.
func (c *Channel) Left() Node { return c.left }

// Right returns the downstream child.
func (c *Channel) Right() Node { return c.right }

// Stdin returns the upstream child's stdin.
func (c *Channel) Stdin() *stream.Stream { return c.stdin }

// Stdout returns the downstream child's stdout.
func (c *Channel) Stdout() *stream.Stream { return c.stdout }

// Stderr returns the downstream child's stderr. The upstream child's stderr
// is not surfaced through the channel.
func (c *Channel) Stderr() *stream.Stream { return c.stderr }

// State aggregates the leaves' lifecycle positions.
func (c *Channel) State() State {
	leaves := c.Flatten()
	exited := 0
	for _, leaf := range leaves {
		switch leaf.State() {
		case StateUnbuilt:
			return StateUnbuilt
		case StateExited:
			exited++
		}
	}
	switch exited {
	case 0:
		return StateRunning
	case len(leaves):
		return StateExited
	default:
		return StatePartiallyExited
	}
}

// Wait blocks until both children exit and returns left's statuses followed
// by right's.
func (c *Channel) Wait() ([]int, error) {
	left, err := c.left.Wait()
	if err != nil {
		return nil, err
	}
	right, err := c.right.Wait()
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// Poll samples every leaf within one shared timeout budget.
func (c *Channel) Poll(timeout time.Duration) ([]Status, error) {
	if c.State() == StateUnbuilt {
		return nil, errdefs.Programming("poll before run")
	}

	deadline := time.Now().Add(timeout)
	var statuses []Status
	for _, leaf := range c.Flatten() {
		statuses = leaf.pollInto(deadline, statuses)
	}
	return statuses, nil
}

// Terminate sends SIGTERM to every leaf whose status is not yet known.
func (c *Channel) Terminate() error { return c.signalAll(syscall.SIGTERM) }

// Kill sends SIGKILL to every leaf whose status is not yet known.
func (c *Channel) Kill() error { return c.signalAll(syscall.SIGKILL) }

func (c *Channel) signalAll(sig syscall.Signal) error {
	if c.State() == StateUnbuilt {
		return errdefs.Programming("signal before run")
	}
	for _, leaf := range c.Flatten() {
		if err := leaf.signal(sig); err != nil {
			return err
		}
	}
	return nil
}

// Flatten returns the leaves left to right.
func (c *Channel) Flatten() []*Process { return c.flattenInto(nil) }

func (c *Channel) flattenInto(dst []*Process) []*Process {
	dst = c.left.flattenInto(dst)
	return c.right.flattenInto(dst)
}

// environList flattens an environment map into KEY=VALUE form.
func environList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
