package supervisor

import "github.com/aretw0/mediabridge/pkg/domain"

// logBuffer keeps the most recent lines, evicting the oldest first.
type logBuffer struct {
	lines []domain.LogLine
	size  int
}

func newLogBuffer(size int) *logBuffer {
	if size < 1 {
		size = 1
	}
	return &logBuffer{lines: make([]domain.LogLine, 0, size), size: size}
}

func (b *logBuffer) push(l domain.LogLine) {
	if len(b.lines) == b.size {
		copy(b.lines, b.lines[1:])
		b.lines = b.lines[:b.size-1]
	}
	b.lines = append(b.lines, l)
}

func (b *logBuffer) snapshot() []domain.LogLine {
	return append([]domain.LogLine(nil), b.lines...)
}
