package claude

import (
	"bufio"
	"encoding/json"
	"os"
	"unicode/utf8"
)

// SessionMeta summarises a session file for display.
type SessionMeta struct {
	FirstPrompt  string
	LastPrompt   string
	GitBranch    string
	Model        string
	Created      string
	Modified     string
	MessageCount int
}

// ReadSessionMeta reads a session .jsonl file line by line. Lines that do
// not parse are counted but otherwise skipped, since the file may be
// mid-append when this runs.
func ReadSessionMeta(path string) (SessionMeta, error) {
	var meta SessionMeta

	f, err := os.Open(path)
	if err != nil {
		return meta, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0), 10*1024*1024) // 10MB max line

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		meta.MessageCount++

		var raw struct {
			Type      string `json:"type"`
			Timestamp string `json:"timestamp"`
			GitBranch string `json:"gitBranch"`
			Message   struct {
				Role    string          `json:"role"`
				Model   string          `json:"model"`
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}

		if meta.Created == "" && raw.Timestamp != "" {
			meta.Created = raw.Timestamp
		}
		if raw.Timestamp != "" {
			meta.Modified = raw.Timestamp
		}
		if raw.GitBranch != "" {
			meta.GitBranch = raw.GitBranch
		}
		if raw.Message.Model != "" {
			meta.Model = raw.Message.Model
		}
		if raw.Type == "user" {
			if text := extractContentText(raw.Message.Content); text != "" {
				if meta.FirstPrompt == "" {
					meta.FirstPrompt = text
				}
				meta.LastPrompt = text
			}
		}
	}

	return meta, scanner.Err()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func extractContentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	// Try as string
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return truncateRunes(s, 120)
	}

	// Try as array of content blocks
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				return truncateRunes(b.Text, 120)
			}
		}
	}

	return ""
}
