package claude

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
)

// HistoryEntry is one line of history.jsonl: a prompt as typed by the user.
type HistoryEntry struct {
	Display   string `json:"display"`
	Project   string `json:"project"`
	SessionID string `json:"sessionId,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

// ErrNoHistory is returned when history.jsonl holds no parseable entry.
var ErrNoHistory = errors.New("no history entries")

// historyTail is how much of the end of history.jsonl is scanned for the
// last entry.
const historyTail = 64 * 1024

// ReadLastHistory returns the newest parseable entry of history.jsonl
// without reading the whole file.
func ReadLastHistory(path string) (HistoryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return HistoryEntry{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return HistoryEntry{}, err
	}

	offset := info.Size() - historyTail
	if offset < 0 {
		offset = 0
	}
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
		return HistoryEntry{}, err
	}

	lines := bytes.Split(buf, []byte("\n"))
	// When the tail starts mid-file the first line is likely partial.
	start := 0
	if offset > 0 {
		start = 1
	}
	for i := len(lines) - 1; i >= start; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entry.Display = truncateRunes(entry.Display, 120)
		return entry, nil
	}
	return HistoryEntry{}, ErrNoHistory
}
