package crawl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	successReportFile = ".lastrun.success.json"
	failedReportFile  = ".lastrun.failed.json"
)

type failedEntry struct {
	Symbol  string `json:"symbol"`
	Adapter string `json:"adapter,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason"`
}

type runReport[T any] struct {
	RunID   string `json:"run_id"`
	Entries []T    `json:"entries"`
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writeRunReport replaces both report files so they always describe the last run.
func writeRunReport(root, runID string, successList []string, failedList []failedEntry) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if successList == nil {
		successList = []string{}
	}
	if failedList == nil {
		failedList = []failedEntry{}
	}
	p := filepath.Join(root, successReportFile)
	if err := writeJSON(p, runReport[string]{RunID: runID, Entries: successList}); err != nil {
		return err
	}
	slog.Info("report wrote success", "path", p, "symbols", len(successList))

	p = filepath.Join(root, failedReportFile)
	if err := writeJSON(p, runReport[failedEntry]{RunID: runID, Entries: failedList}); err != nil {
		return err
	}
	slog.Info("report wrote failed", "path", p, "count", len(failedList))
	return nil
}

func appendUnique(list []string, symbol string) []string {
	for _, s := range list {
		if s == symbol {
			return list
		}
	}
	return append(list, symbol)
}

func joinFailedReasons(failedList []failedEntry) string {
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Symbol)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
