package sheet

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	spacesRegex = regexp.MustCompile(`\s+`)

	// id generation reads every row then appends; tableLocks keeps one process from racing itself.
	tableLocks   = make(map[string]*sync.Mutex)
	tableLocksMu sync.Mutex
)

// Lock serializes read-then-append sequences on the named table within this process.
// Other processes writing the same spreadsheet can still race.
func Lock(name string) func() {
	tableLocksMu.Lock()
	mu, ok := tableLocks[name]
	if !ok {
		mu = new(sync.Mutex)
		tableLocks[name] = mu
	}
	tableLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// NextID returns the highest numeric id found under `aliases` plus one, "1" for an empty table.
// Non-numeric ids are ignored.
func NextID(t *Table, aliases ...string) string {
	col := t.Column(aliases...)
	var max int64
	if col >= 0 {
		for i := 0; i < t.Len(); i++ {
			if n, err := strconv.ParseInt(t.Cell(i, col), 10, 64); err == nil && n > max {
				max = n
			}
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// DeepClean collapses inner whitespace runs (newlines, tabs, nbsp) into single spaces and trims.
func DeepClean(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(spacesRegex.ReplaceAllString(s, " "))
}

// ParseBool reads the truthy spellings spreadsheets end up with.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}

// FormatBool writes booleans the way spreadsheets display them.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
