// Package symbol reads and builds ticker symbol lists.
package symbol

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"stockdaq/internal/apperror"
)

// DefaultOmit excludes preferred shares (AL^A) and share classes (BRK.B).
var DefaultOmit = []string{"^", "."}

// Omitted reports whether symbol contains any of the omit strings.
func Omitted(symbol string, omit []string) bool {
	for _, o := range omit {
		if o != "" && strings.Contains(symbol, o) {
			return true
		}
	}
	return false
}

// Filter returns the symbols not matched by omit, order preserved.
func Filter(symbols, omit []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if !Omitted(s, omit) {
			out = append(out, s)
		}
	}
	return out
}

// GetSymbolList reads a symbol list file and drops symbols matched by omit.
// A nil omit means DefaultOmit. Supported formats:
//   - .json : JSON array of strings
//   - anything else : one symbol per line, '#' lines are treated as comments
func GetSymbolList(path string, omit []string) ([]string, error) {
	if omit == nil {
		omit = DefaultOmit
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.Wrap(apperror.FileNotFound, err, "symbol list %s", path)
		}
		return nil, fmt.Errorf("read symbol list %s: %w", path, err)
	}

	var symbols []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(content, &symbols); err != nil {
			return nil, apperror.Wrap(apperror.InvalidConfig, err, "parse symbol list %s", path)
		}
	} else {
		symbols = parseText(string(content))
	}

	// Remove empty and duplicates
	seen := make(map[string]bool, len(symbols))
	unique := symbols[:0]
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	out := Filter(unique, omit)
	slog.Debug("loaded symbols", "path", path, "count", len(out), "omitted", len(unique)-len(out))
	return out, nil
}

func parseText(s string) []string {
	var symbols []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			symbols = append(symbols, line)
		}
	}
	return symbols
}

// MakeOptions controls MakeSymbolList.
type MakeOptions struct {
	Overwrite   bool
	Omit        []string // nil means DefaultOmit
	HasHeader   bool     // locate the "Symbol" column from the header row
	SymbolIndex int      // column used when HasHeader is false
}

// DefaultMakeOptions reads a NASDAQ companylist.csv style file.
func DefaultMakeOptions() MakeOptions {
	return MakeOptions{Overwrite: true, HasHeader: true}
}

// MakeSymbolList extracts the symbol column of the CSV at input and writes
// the sorted, filtered symbols to output, one per line. It returns the symbols written.
func MakeSymbolList(input, output string, o MakeOptions) ([]string, error) {
	if o.Omit == nil {
		o.Omit = DefaultOmit
	}
	f, err := os.Open(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.Wrap(apperror.FileNotFound, err, "company list %s", input)
		}
		return nil, fmt.Errorf("open company list %s: %w", input, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperror.Wrap(apperror.InvalidConfig, err, "parse company list %s", input)
	}

	idx := o.SymbolIndex
	if o.HasHeader && len(rows) > 0 {
		idx = slices.IndexFunc(rows[0], func(h string) bool { return strings.TrimSpace(h) == "Symbol" })
		if idx < 0 {
			return nil, apperror.New(apperror.InvalidConfig, "company list %s: no \"Symbol\" column in header", input)
		}
		rows = rows[1:]
	}
	if idx < 0 {
		return nil, apperror.New(apperror.InvalidConfig, "symbol index %d out of range", idx)
	}

	if _, err := os.Stat(output); err == nil && !o.Overwrite {
		return nil, apperror.New(apperror.FileExists, "file %s already exists", output)
	}

	symbols := make([]string, 0, len(rows))
	for i, row := range rows {
		if idx >= len(row) {
			return nil, apperror.New(apperror.InvalidConfig, "company list %s: row %d has no column %d", input, i+1, idx)
		}
		if s := strings.TrimSpace(row[idx]); s != "" {
			symbols = append(symbols, s)
		}
	}
	slices.Sort(symbols)
	symbols = Filter(symbols, o.Omit)

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(output, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write symbol list %s: %w", output, err)
	}
	slog.Info("symbol list written", "path", output, "count", len(symbols))
	return symbols, nil
}
