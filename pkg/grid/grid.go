// Package grid lays program output out on a fixed character grid for the
// desktop viewer.
package grid

import (
	"sync"
)

// TabWidth is the column stop used for '\t'.
const TabWidth = 8

// GetGridCoords maps a linear cell index to its column and row.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Screen is an io.Writer that wraps text into cols-wide lines and keeps the
// most recent maxLines of them. It is safe to write from the machine while
// the renderer reads.
type Screen struct {
	mu       sync.Mutex
	cols     int
	maxLines int
	lines    [][]rune
}

// NewScreen returns an empty screen. maxLines <= 0 keeps every line.
func NewScreen(cols, maxLines int) *Screen {
	return &Screen{cols: cols, maxLines: maxLines, lines: [][]rune{nil}}
}

func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range string(p) {
		s.put(r)
	}
	return len(p), nil
}

func (s *Screen) put(r rune) {
	last := len(s.lines) - 1
	switch r {
	case '\n':
		s.newline()
		return
	case '\r':
		s.lines[last] = s.lines[last][:0]
		return
	case '\t':
		n := TabWidth - len(s.lines[last])%TabWidth
		for i := 0; i < n && len(s.lines[len(s.lines)-1]) < s.cols; i++ {
			s.lines[len(s.lines)-1] = append(s.lines[len(s.lines)-1], ' ')
		}
		return
	}
	if len(s.lines[last]) >= s.cols {
		s.newline()
		last = len(s.lines) - 1
	}
	s.lines[last] = append(s.lines[last], r)
}

func (s *Screen) newline() {
	s.lines = append(s.lines, nil)
	if s.maxLines > 0 && len(s.lines) > s.maxLines {
		s.lines = s.lines[len(s.lines)-s.maxLines:]
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = string(l)
	}
	return out
}

// Window returns rows lines ending scroll lines above the bottom. scroll is
// clamped so the window never runs past either end.
func (s *Screen) Window(rows, scroll int) []string {
	lines := s.Lines()
	end := len(lines) - scroll
	if end > len(lines) {
		end = len(lines)
	}
	if end < rows {
		end = min(rows, len(lines))
	}
	start := max(end-rows, 0)
	return lines[start:end]
}

// Reset clears the screen.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = [][]rune{nil}
}
