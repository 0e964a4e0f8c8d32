// Package saver persists canonical partitions to files and reconciles them with files left
// by earlier runs.
//
// Writers to one path must be serialized by the caller: a merge is read-modify-write and is
// not locked.
package saver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// Conflict decides what Save does when the target file already exists.
type Conflict string

const (
	Merge     Conflict = "merge"
	Overwrite Conflict = "overwrite"
	Ignore    Conflict = "ignore"
)

// MergeHow breaks ties between rows with the same timestamp during a merge.
type MergeHow string

const (
	KeepOld MergeHow = "keep_old"
	Update  MergeHow = "update"
)

// Outcome reports what Save did to the file.
type Outcome string

const (
	OutcomeWritten     Outcome = "written"
	OutcomeOverwritten Outcome = "overwritten"
	OutcomeMerged      Outcome = "merged"
	OutcomeIgnored     Outcome = "ignored"
)

// Options configures Save. Zero fields take the defaults hdf5 / merge / keep_old.
type Options struct {
	Format   Format
	Conflict Conflict
	MergeHow MergeHow
}

// ParseConflict normalizes s. The empty string selects Merge.
func ParseConflict(s string) (Conflict, error) {
	c := Conflict(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "":
		return Merge, nil
	case Merge, Overwrite, Ignore:
		return c, nil
	default:
		return "", apperror.New(apperror.InvalidConflictPolicy, "conflict %q not available (use: merge, overwrite, ignore)", s)
	}
}

// ParseMergeHow normalizes s, accepting "keep old" and "keep-old" for KeepOld.
// The empty string selects KeepOld.
func ParseMergeHow(s string) (MergeHow, error) {
	m := strings.ToLower(strings.TrimSpace(s))
	m = strings.NewReplacer(" ", "_", "-", "_").Replace(m)
	switch MergeHow(m) {
	case "":
		return KeepOld, nil
	case KeepOld, Update:
		return MergeHow(m), nil
	default:
		return "", apperror.New(apperror.InvalidMergeHow, "mergehow %q not available (use: keep_old, update)", s)
	}
}

// Normalize validates o and fills defaults. It never touches the disk.
func (o Options) Normalize() (Options, error) {
	var err error
	if o.Conflict, err = ParseConflict(string(o.Conflict)); err != nil {
		return o, err
	}
	if o.Format, err = ParseFormat(string(o.Format)); err != nil {
		return o, err
	}
	if o.MergeHow, err = ParseMergeHow(string(o.MergeHow)); err != nil {
		return o, err
	}
	return o, nil
}

// Save writes t to path according to o.
// Invalid options fail before anything is read or written.
func Save(t model.Table, path string, o Options) (Outcome, error) {
	o, err := o.Normalize()
	if err != nil {
		return "", err
	}
	codec, err := NewCodec(o.Format)
	if err != nil {
		return "", err
	}

	outcome := OutcomeWritten
	exists, err := fileExists(path)
	if err != nil {
		return "", err
	}
	if exists {
		switch o.Conflict {
		case Ignore:
			slog.Info("file exists, ignoring", "path", path)
			return OutcomeIgnored, nil
		case Overwrite:
			slog.Info("file exists, overwriting", "path", path)
			outcome = OutcomeOverwritten
		case Merge:
			slog.Info("file exists, merging", "path", path, "how", o.MergeHow)
			old, err := Load(path, o.Format)
			if err != nil {
				return "", fmt.Errorf("merge %s: %w", path, err)
			}
			t = MergeTables(old, t, o.MergeHow)
			outcome = OutcomeMerged
		}
	}

	if err := writeAtomic(codec, path, t); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	slog.Debug("data written", "path", path, "rows", len(t), "outcome", outcome)
	return outcome, nil
}

// Load reads a stored partition.
func Load(path string, f Format) (model.Table, error) {
	codec, err := NewCodec(f)
	if err != nil {
		return nil, err
	}
	exists, err := fileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.New(apperror.FileNotFound, "%s does not exist", path)
	}
	t, err := codec.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.Wrap(apperror.FileNotFound, err, "%s disappeared", path)
	}
	return t, err
}

// MergeTables concatenates old and incoming, keeps one row per timestamp and sorts the
// result. KeepOld keeps the row of old on a tie; Update keeps the row of incoming.
func MergeTables(old, incoming model.Table, how MergeHow) model.Table {
	keep, other := old, incoming
	if how == Update {
		keep, other = incoming, old
	}
	all := make(model.Table, 0, len(keep)+len(other))
	all = append(all, keep...)
	all = append(all, other...)
	out := all.Dedup()
	out.Sort()
	return out
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// writeAtomic writes through a temporary file in the target directory and renames it over path.
func writeAtomic(codec Codec, path string, t model.Table) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := codec.Write(tmpPath, t); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
