package supervisor

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
)

const tailChunk = 32 * 1024

// tail reads a capture file that another process appends to. It keeps a
// byte cursor and holds back an unterminated last line until it completes.
type tail struct {
	f       *os.File
	offset  int64
	partial []byte
}

func newTail(f *os.File) *tail {
	return &tail{f: f}
}

// lines returns every line completed since the previous call.
func (t *tail) lines() ([]string, error) {
	buf := make([]byte, tailChunk)
	for {
		n, err := t.f.ReadAt(buf, t.offset)
		if n > 0 {
			t.offset += int64(n)
			t.partial = append(t.partial, buf[:n]...)
		}
		if errors.Is(err, io.EOF) || n == 0 {
			break
		}
		if err != nil {
			return t.split(), err
		}
	}
	return t.split(), nil
}

// flush returns the held-back partial line, if any.
func (t *tail) flush() []string {
	if len(t.partial) == 0 {
		return nil
	}
	line := strings.TrimRight(string(t.partial), "\r")
	t.partial = nil
	return []string{line}
}

func (t *tail) split() []string {
	var out []string
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		out = append(out, strings.TrimRight(string(t.partial[:i]), "\r"))
		t.partial = t.partial[i+1:]
	}
	if len(t.partial) == 0 {
		t.partial = nil
	}
	return out
}
