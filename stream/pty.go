package stream

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// PtyFactory hands the terminal side of a pseudo-terminal to spawned
// processes. Obtain one from NewPty.
type PtyFactory struct {
	tty *os.File
}

// NewPty allocates a pseudo-terminal. The returned file is the parent
// (control) side; the factory builds Streams whose reader and writer are
// duplicated descriptors of the terminal side, so one pty can serve any of a
// process's stdio slots. Closing the factory releases the terminal side; the
// control side is the caller's to close.
func NewPty() (*os.File, *PtyFactory, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open pty: %w", err)
	}
	return ptmx, &PtyFactory{tty: tty}, nil
}

// Build duplicates the terminal side for both directions of a Stream.
func (f *PtyFactory) Build(ctx *Context) (*Stream, error) {
	r, err := dupCloexec(f.tty)
	if err != nil {
		return nil, err
	}
	w, err := dupCloexec(f.tty)
	if err != nil {
		r.Close()
		return nil, err
	}
	return New(r, w)
}

// Close releases the factory's terminal-side descriptor. Streams already
// built keep their duplicates.
func (f *PtyFactory) Close() error {
	return f.tty.Close()
}

func (f *PtyFactory) isFactory() {}

func dupCloexec(file *os.File) (*os.File, error) {
	fd, err := unix.FcntlInt(file.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dup %s: %w", file.Name(), err)
	}
	return os.NewFile(uintptr(fd), file.Name()), nil
}
