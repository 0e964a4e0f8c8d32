package crawl

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"stockdaq/internal/model"
	"stockdaq/internal/provider"
)

const progressFile = ".progress.json"

// Progress maps "symbol/frequency" to the newest stored timestamp.
type Progress struct {
	path  string
	m     map[string]string
	dirty bool
}

// LoadProgress reads path. A missing or unreadable file starts empty.
func LoadProgress(path string) *Progress {
	p := &Progress{path: path, m: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("ignoring corrupt progress file", "path", path, "error", err)
		return p
	}
	if m != nil {
		p.m = m
	}
	return p
}

func progressKey(symbol string, f provider.Frequency) string {
	return symbol + "/" + string(f)
}

// Last returns the newest stored timestamp of symbol at frequency f.
func (p *Progress) Last(symbol string, f provider.Frequency) (time.Time, bool) {
	s, ok := p.m[progressKey(symbol, f)]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(model.TimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Update records last unless an equal or newer timestamp is already known.
func (p *Progress) Update(symbol string, f provider.Frequency, last time.Time) {
	if prev, ok := p.Last(symbol, f); ok && !last.After(prev) {
		return
	}
	p.m[progressKey(symbol, f)] = last.Format(model.TimeLayout)
	p.dirty = true
}

// Save writes the file when something changed.
func (p *Progress) Save() error {
	if !p.dirty {
		return nil
	}
	data, err := json.MarshalIndent(p.m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return err
	}
	p.dirty = false
	return nil
}
