package pipeline

import (
	"os"

	"github.com/GriffinCanCode/PipeKit/internal/ident"
	"github.com/GriffinCanCode/PipeKit/internal/logging"
	"github.com/GriffinCanCode/PipeKit/stream"
)

// Context is the resolved execution context a pipeline builds against:
// working directory, environment mapping, and optional process identity.
// The environment is explicit; nothing is inherited from the host process
// unless the caller puts it there.
type Context struct {
	// Dir is the working directory for spawned processes and the anchor for
	// relative redirection paths. Defaults to the current directory.
	Dir string

	// Env is the environment mapping for spawned processes.
	Env map[string]string

	// User and Group optionally switch process identity. Names or numeric
	// ids. Requires a platform that supports credential switching and an
	// orchestrator privileged enough to use it.
	User  string
	Group string

	// Log receives spawn/exit/signal events. Nil means no logging.
	Log *logging.Logger
}

// normalized returns a copy with defaults applied.
func (c *Context) normalized() *Context {
	out := &Context{}
	if c != nil {
		*out = *c
	}
	if out.Dir == "" {
		if wd, err := os.Getwd(); err == nil {
			out.Dir = wd
		}
	}
	if out.Env == nil {
		out.Env = map[string]string{}
	}
	if out.Log == nil {
		out.Log = logging.Nop()
	}
	return out
}

// owner resolves the identity override, nil when none was requested.
func (c *Context) owner() (*ident.Owner, error) {
	return ident.Lookup(c.User, c.Group)
}

// streamContext derives the context used by stream factories.
func (c *Context) streamContext() (*stream.Context, error) {
	owner, err := c.owner()
	if err != nil {
		return nil, err
	}
	return &stream.Context{Dir: c.Dir, Owner: owner}, nil
}
