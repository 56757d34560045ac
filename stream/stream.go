package stream

import (
	"os"
	"sync"

	"go.uber.org/multierr"
)

// Stream pairs a readable handle and a writable handle for one stdio slot.
//
// A nil handle passed to a constructor is replaced with the platform null
// device, owned by the Stream. Borrowed handles (see Manual) survive
// CloseReader/CloseWriter untouched; closing them remains the caller's job.
type Stream struct {
	mu    sync.Mutex
	r     *os.File
	w     *os.File
	ownsR bool
	ownsW bool
}

// New wraps a reader and writer owned by the resulting Stream. Nil slots are
// filled with the null device.
func New(r, w *os.File) (*Stream, error) {
	return newStream(r, w, true, true)
}

func newStream(r, w *os.File, ownsR, ownsW bool) (*Stream, error) {
	if r == nil {
		null, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
		r = null
		ownsR = true
	}

	if w == nil {
		null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, err
		}
		w = null
		ownsW = true
	}

	return &Stream{r: r, w: w, ownsR: ownsR, ownsW: ownsW}, nil
}

// Reader returns the readable handle, or nil once the reader side is closed.
func (s *Stream) Reader() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r
}

// Writer returns the writable handle, or nil once the writer side is closed.
func (s *Stream) Writer() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w
}

// CloseReader closes the readable handle if this Stream owns it. Borrowed
// readers stay open and stay accessible. Safe to call any number of times.
func (s *Stream) CloseReader() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil || !s.ownsR {
		return nil
	}
	err := s.r.Close()
	s.r = nil
	return err
}

// CloseWriter closes the writable handle if this Stream owns it. Borrowed
// writers stay open and stay accessible. Safe to call any number of times.
func (s *Stream) CloseWriter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil || !s.ownsW {
		return nil
	}
	err := s.w.Close()
	s.w = nil
	return err
}

// Close closes both sides, combining any errors.
func (s *Stream) Close() error {
	return multierr.Append(s.CloseReader(), s.CloseWriter())
}
