// SPDX-License-Identifier: Apache-2.0
package ui

import "sync"

// OutputLog is an append-only buffer of subprocess output lines with a
// scroll position. It is safe for concurrent appends, since producer
// goroutines stream lines in while the render loop reads.
type OutputLog struct {
	mu     sync.Mutex
	lines  []string
	offset int // index of the first visible line
	pinned bool
}

// NewOutputLog returns an empty log pinned to the tail.
func NewOutputLog() *OutputLog {
	return &OutputLog{pinned: true}
}

// Append adds a line. While the log is pinned to the tail the view follows
// new output; after a manual scroll it stays put until ScrollToEnd.
func (l *OutputLog) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

// Len returns the number of stored lines.
func (l *OutputLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// ScrollUp moves the view up by n lines, clamped at the top.
func (l *OutputLog) ScrollUp(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pinned {
		l.offset = l.maxOffset()
		l.pinned = false
	}
	l.offset -= n
	if l.offset < 0 {
		l.offset = 0
	}
}

// ScrollDown moves the view down by n lines. Reaching the bottom pins the
// view back to the tail.
func (l *OutputLog) ScrollDown(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pinned {
		return
	}
	l.offset += n
	if l.offset >= l.maxOffset() {
		l.offset = l.maxOffset()
		l.pinned = true
	}
}

// Clear drops all lines and re-pins the view to the tail. Called on state
// transitions that restart a workflow, never mid-run.
func (l *OutputLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.offset = 0
	l.pinned = true
}

// ScrollToEnd re-pins the view to the tail.
func (l *OutputLog) ScrollToEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pinned = true
}

// Window returns up to height lines starting at the current scroll
// position. When pinned it returns the last height lines.
func (l *OutputLog) Window(height int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if height <= 0 || len(l.lines) == 0 {
		return nil
	}

	start := l.offset
	if l.pinned {
		start = len(l.lines) - height
		if start < 0 {
			start = 0
		}
	} else if start > l.maxOffset() {
		start = l.maxOffset()
	}

	end := start + height
	if end > len(l.lines) {
		end = len(l.lines)
	}

	out := make([]string, end-start)
	copy(out, l.lines[start:end])
	return out
}

// maxOffset is the largest valid scroll offset. Callers hold l.mu.
func (l *OutputLog) maxOffset() int {
	if len(l.lines) == 0 {
		return 0
	}
	return len(l.lines) - 1
}
