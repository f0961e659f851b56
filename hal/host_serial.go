//go:build !tinygo

package hal

import (
	"os"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-tty"
)

// newHostSerial opens the controlling terminal in raw mode so the monitor
// sees individual keystrokes, like a UART would deliver them. Without a TTY
// (pipes, CI) it degrades to line-buffered stdio.
func newHostSerial() Serial {
	t, err := tty.Open()
	if err != nil {
		return &stdioSerial{r: os.Stdin, w: os.Stdout}
	}
	return &ttySerial{t: t}
}

type ttySerial struct {
	mu      sync.Mutex
	t       *tty.TTY
	pending []byte
}

func (s *ttySerial) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 {
		r, err := s.t.ReadRune()
		if err != nil {
			return 0, err
		}
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		s.pending = append(s.pending, buf[:n]...)
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *ttySerial) Write(p []byte) (int, error) {
	return s.t.Output().Write(p)
}

type stdioSerial struct {
	mu sync.Mutex
	r  *os.File
	w  *os.File
}

func (s *stdioSerial) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, ErrNotImplemented
	}
	return s.r.Read(p)
}

func (s *stdioSerial) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
