package apperror

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestCodeOfThroughWrapping(t *testing.T) {
	base := New(SchemaMismatch, "missing column %q", "open")
	err := fmt.Errorf("symbol AAPL: %w", base)
	if got := CodeOf(err); got != SchemaMismatch {
		t.Errorf("CodeOf = %q", got)
	}
	if !Is(errors.Join(errors.New("other"), err), SchemaMismatch) {
		t.Error("code lost in joined error")
	}
	if CodeOf(os.ErrNotExist) != "" || Is(nil, Download) {
		t.Error("plain errors must carry no code")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(FileNotFound, os.ErrNotExist, "load %s", "x.csv")
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Error() != "load x.csv: file does not exist" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code() != FileNotFound || err.Message() != "load x.csv" {
		t.Errorf("Code/Message = %q/%q", err.Code(), err.Message())
	}
}

func TestIsRetryable(t *testing.T) {
	for code, want := range map[Code]bool{
		Download:              true,
		NoData:                true,
		SchemaMismatch:        false,
		InvalidConflictPolicy: false,
		"":                    false,
	} {
		if got := IsRetryable(code); got != want {
			t.Errorf("IsRetryable(%q) = %v, want %v", code, got, want)
		}
	}
}
