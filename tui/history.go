package tui

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

// History is a bounded command history with cursor-based navigation.
type History struct {
	entries []string
	max     int
	cursor  int // -1 = not navigating, 0..len-1 = position in entries
}

// NewHistory creates a history buffer with the given maximum size.
func NewHistory(max int) *History {
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		cursor:  -1,
	}
}

// Push adds a command to history. Consecutive duplicates are skipped.
func (h *History) Push(cmd string) {
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
}

// Prev returns the previous (older) history entry.
// Returns ("", false) if history is empty.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor == -1 {
		h.cursor = len(h.entries) - 1
	} else if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next returns the next (newer) history entry.
// Returns ("", false) when past the most recent entry (back to fresh input).
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor resets the navigation cursor to the "not navigating" state.
func (h *History) ResetCursor() {
	h.cursor = -1
}

// Load appends the commands stored one per line in path. A missing file
// is not an error.
func (h *History) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return oops.With("path", path).Wrapf(err, "opening history")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.Push(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return oops.With("path", path).Wrapf(err, "reading history")
	}
	return nil
}

// Save writes the history to path, one command per line.
func (h *History) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return oops.With("path", path).Wrapf(err, "creating history directory")
	}
	data := strings.Join(h.entries, "\n")
	if data != "" {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return oops.With("path", path).Wrapf(err, "writing history")
	}
	return nil
}
