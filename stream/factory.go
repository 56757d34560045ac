package stream

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/ident"
)

// Context carries the execution context a Factory builds against.
type Context struct {
	// Dir anchors relative file paths.
	Dir string
	// Owner, when set, receives ownership of newly created writable files.
	// Used when a privileged orchestrator runs children as another identity.
	Owner *ident.Owner
}

// Factory is a reusable template that produces Streams bound to an execution
// context. The set of implementations is fixed: PipeFactory, FileFactory,
// NullFactory, ManualFactory, and the pty factory from NewPty.
type Factory interface {
	Build(ctx *Context) (*Stream, error)

	isFactory()
}

// PipeFactory templates OS pipes for inter-stage plumbing.
type PipeFactory struct {
	// Flags are ORed into the pipe2 flags alongside O_CLOEXEC.
	Flags int
}

// Pipe returns a factory for close-on-exec OS pipes.
func Pipe() *PipeFactory {
	return &PipeFactory{}
}

// PipeWithFlags returns a pipe factory with extra pipe2 flags, such as
// unix.O_NONBLOCK.
func PipeWithFlags(flags int) *PipeFactory {
	return &PipeFactory{Flags: flags}
}

// Build opens the pipe. Both ends are owned by the Stream and independently
// closable.
func (f *PipeFactory) Build(ctx *Context) (*Stream, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|f.Flags); err != nil {
		return nil, fmt.Errorf("open pipe: %w", err)
	}

	r := os.NewFile(uintptr(fds[0]), "|0")
	w := os.NewFile(uintptr(fds[1]), "|1")
	return New(r, w)
}

func (f *PipeFactory) isFactory() {}

// File modes mirror the classic open() whitelist. Binary variants are
// accepted for API parity; handles are always byte streams here.
var fileModes = map[string]struct {
	flags int
	read  bool
	chown bool
}{
	"r":  {flags: os.O_RDONLY, read: true},
	"rb": {flags: os.O_RDONLY, read: true},
	"w":  {flags: os.O_WRONLY | os.O_CREATE | os.O_TRUNC, chown: true},
	"wb": {flags: os.O_WRONLY | os.O_CREATE | os.O_TRUNC, chown: true},
	"a":  {flags: os.O_WRONLY | os.O_CREATE | os.O_APPEND},
	"ab": {flags: os.O_WRONLY | os.O_CREATE | os.O_APPEND},
}

// FileFactory templates file-backed redirections.
type FileFactory struct {
	path string
	mode string
}

// File returns a factory opening path with the given mode. Modes are
// whitelisted (read: r, rb; write: w, a, wb, ab) and validated here, not at
// open time. Relative paths resolve against the build context's directory.
func File(path, mode string) (*FileFactory, error) {
	if _, ok := fileModes[mode]; !ok {
		return nil, errdefs.Configuration("invalid file mode %q", mode)
	}
	return &FileFactory{path: path, mode: mode}, nil
}

// Path returns the templated path.
func (f *FileFactory) Path() string { return f.path }

// Mode returns the templated mode.
func (f *FileFactory) Mode() string { return f.mode }

// Build opens the file. Read modes populate the reader side, write modes the
// writer side; the unused direction falls back to the null device. Files
// created by the truncating write modes are chowned to the context owner when
// one is configured.
func (f *FileFactory) Build(ctx *Context) (*Stream, error) {
	path := f.path
	if !filepath.IsAbs(path) && ctx != nil && ctx.Dir != "" {
		path = filepath.Join(ctx.Dir, path)
	}

	mode := fileModes[f.mode]
	file, err := os.OpenFile(path, mode.flags, 0o666)
	if err != nil {
		return nil, err
	}

	if mode.read {
		return New(file, nil)
	}

	// Only hand off ownership of files we created ourselves.
	if mode.chown && ctx != nil && ctx.Owner != nil {
		if err := file.Chown(int(ctx.Owner.UID), int(ctx.Owner.GID)); err != nil {
			file.Close()
			return nil, fmt.Errorf("chown %s: %w", path, err)
		}
	}

	return New(nil, file)
}

func (f *FileFactory) isFactory() {}

// NullFactory templates streams bound to the null device in both directions.
type NullFactory struct{}

// Null returns the null-device factory.
func Null() *NullFactory {
	return &NullFactory{}
}

// Build opens the null device for both directions.
func (f *NullFactory) Build(ctx *Context) (*Stream, error) {
	return New(nil, nil)
}

func (f *NullFactory) isFactory() {}

// ManualFactory templates streams around caller-owned handles.
type ManualFactory struct {
	r *os.File
	w *os.File
}

// Manual returns a factory wrapping existing handles. The resulting Streams
// never close them; a nil direction is filled with an owned null handle that
// does get closed.
func Manual(r, w *os.File) *ManualFactory {
	return &ManualFactory{r: r, w: w}
}

// Build wraps the borrowed handles.
func (f *ManualFactory) Build(ctx *Context) (*Stream, error) {
	return newStream(f.r, f.w, false, false)
}

func (f *ManualFactory) isFactory() {}
