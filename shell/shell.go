package shell

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/config"
	"github.com/GriffinCanCode/PipeKit/internal/logging"
	"github.com/GriffinCanCode/PipeKit/internal/lookup"
	"github.com/GriffinCanCode/PipeKit/pipeline"
)

// Shell carries the mutable execution state pipelines run under: working
// directory with previous-directory bookkeeping, an environment map, optional
// user/group for child processes, default stdio, and whether Run and Evaluate
// treat nonzero exits as errors. All methods are safe for concurrent use.
type Shell struct {
	mu         sync.Mutex
	dir        string
	oldDir     string
	env        map[string]string
	user       string
	group      string
	stdin      *os.File
	stdout     *os.File
	stderr     *os.File
	exceptions bool

	log *logging.Logger
	cfg *config.Config
}

// Option adjusts a Shell during construction.
type Option func(*Shell)

// WithDir starts the shell in dir instead of the process working directory.
func WithDir(dir string) Option {
	return func(s *Shell) { s.dir = dir }
}

// WithEnv replaces the initial environment instead of reading os.Environ.
func WithEnv(env map[string]string) Option {
	return func(s *Shell) {
		s.env = make(map[string]string, len(env))
		for k, v := range env {
			s.env[k] = v
		}
	}
}

// WithUser runs child processes as the given user and group. Either may be a
// name or a numeric id; an empty string keeps the current identity for that
// half.
func WithUser(user, group string) Option {
	return func(s *Shell) {
		s.user = user
		s.group = group
	}
}

// WithStdio replaces the default stdio handed to Run. Nil slots fall back to
// the process's own stdio.
func WithStdio(stdin, stdout, stderr *os.File) Option {
	return func(s *Shell) {
		if stdin != nil {
			s.stdin = stdin
		}
		if stdout != nil {
			s.stdout = stdout
		}
		if stderr != nil {
			s.stderr = stderr
		}
	}
}

// WithExceptions controls whether Run and Evaluate return an error on nonzero
// exit statuses. The default is true; with false the statuses alone carry the
// outcome.
func WithExceptions(enabled bool) Option {
	return func(s *Shell) { s.exceptions = enabled }
}

// WithLogger replaces the config-derived logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Shell) { s.log = log }
}

// WithConfig injects configuration instead of reading PIPEKIT_* variables.
func WithConfig(cfg *config.Config) Option {
	return func(s *Shell) { s.cfg = cfg }
}

// New constructs a Shell seeded from the calling process: os.Getwd,
// os.Environ, and the standard stdio. Options override any of those.
func New(opts ...Option) (*Shell, error) {
	s := &Shell{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		exceptions: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return nil, errdefs.Configuration("resolve working directory: %v", err)
		}
		s.dir = dir
	}
	if s.env == nil {
		s.env = environMap(os.Environ())
	}
	if s.cfg == nil {
		s.cfg = config.LoadOrDefault()
	}
	if s.log == nil {
		log, err := logging.New(logging.Config{
			Level:       s.cfg.Logging.Level,
			Development: s.cfg.Logging.Development,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			return nil, err
		}
		s.log = log.Named("shell")
	}

	return s, nil
}

// Dir returns the shell's current working directory.
func (s *Shell) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Chdir changes the working directory. A relative path resolves against the
// current directory, and "-" returns to the previous one.
func (s *Shell) Chdir(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "-" {
		if s.oldDir == "" {
			return errdefs.Configuration("no previous directory")
		}
		s.dir, s.oldDir = s.oldDir, s.dir
		return nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errdefs.Configuration("chdir %s: %v", path, err)
	}
	if !info.IsDir() {
		return errdefs.Configuration("chdir %s: not a directory", path)
	}

	s.oldDir = s.dir
	s.dir = path
	return nil
}

// ChdirTemp changes the working directory and returns a function restoring
// the directory that was current before the call.
func (s *Shell) ChdirTemp(path string) (func() error, error) {
	prev := s.Dir()
	if err := s.Chdir(path); err != nil {
		return nil, err
	}
	return func() error { return s.Chdir(prev) }, nil
}

// Export sets environment variables from KEY=VALUE strings.
func (s *Shell) Export(pairs ...string) error {
	parsed := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return errdefs.Configuration("export wants KEY=VALUE, got %q", pair)
		}
		parsed[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range parsed {
		s.env[k] = v
	}
	return nil
}

// Getenv returns the value of an environment variable, empty when unset.
func (s *Shell) Getenv(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env[key]
}

// Environ returns the environment as sorted KEY=VALUE strings.
func (s *Shell) Environ() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.env))
	for k, v := range s.env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Command resolves name to an executable and returns a process template for
// it. Names containing a path separator resolve directly, absolute or against
// the shell's directory; bare names are searched through the shell
// environment's PATH. The template's argv holds the resolved path, so later
// PATH or directory changes do not move it.
func (s *Shell) Command(name string, args ...string) (*pipeline.ProcFactory, error) {
	s.mu.Lock()
	dir := s.dir
	pathList := s.env["PATH"]
	s.mu.Unlock()

	path, err := lookup.Resolve(name, dir, pathList)
	if err != nil {
		return nil, err
	}
	return pipeline.Command(append([]string{path}, args...)...), nil
}

// Context snapshots the shell state as a pipeline execution context.
func (s *Shell) Context() *pipeline.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := make(map[string]string, len(s.env))
	for k, v := range s.env {
		env[k] = v
	}
	return &pipeline.Context{
		Dir:   s.dir,
		Env:   env,
		User:  s.user,
		Group: s.group,
		Log:   s.log,
	}
}

// Job binds a factory tree to the shell's current state. The job does not
// track later shell mutations.
func (s *Shell) Job(factory pipeline.NodeFactory) *pipeline.Job {
	return pipeline.NewJob(factory, s.Context())
}

// environMap parses KEY=VALUE strings into a map. Malformed entries are
// dropped.
func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, pair := range environ {
		if k, v, ok := strings.Cut(pair, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
