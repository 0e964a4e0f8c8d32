// Package export segments a downloaded table and saves every partition to its own file.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
	"stockdaq/internal/saver"
	"stockdaq/internal/segment"
)

// Options controls partitioning and file naming.
// A partition with key K is saved to Prefix + K + Suffix + Extension.
type Options struct {
	Criterion segment.Criterion
	Prefix    string
	Suffix    string
	Extension string // defaults to the codec extension, e.g. ".h5"
	Format    saver.Format
	Conflict  saver.Conflict
	MergeHow  saver.MergeHow
}

// Saved describes one partition handled by Export.
type Saved struct {
	Key     string
	Path    string
	Rows    int
	Last    time.Time // latest timestamp handed to the saver
	Outcome saver.Outcome
}

// Report lists the partitions in segmenter order.
type Report struct {
	Saved  []Saved
	Failed []string
}

// Written returns the paths whose content changed.
func (r Report) Written() []string {
	var paths []string
	for _, s := range r.Saved {
		if s.Outcome != saver.OutcomeIgnored {
			paths = append(paths, s.Path)
		}
	}
	return paths
}

// LastWritten returns the latest timestamp among partitions whose content changed.
func (r Report) LastWritten() (time.Time, bool) {
	var last time.Time
	ok := false
	for _, s := range r.Saved {
		if s.Outcome == saver.OutcomeIgnored {
			continue
		}
		if !ok || s.Last.After(last) {
			last, ok = s.Last, true
		}
	}
	return last, ok
}

// Rows returns the number of rows handed to the saver.
func (r Report) Rows() int {
	var n int
	for _, s := range r.Saved {
		n += s.Rows
	}
	return n
}

// Path builds the file name of the partition with the given key.
func (o Options) Path(key string) string {
	return o.Prefix + key + o.Suffix + o.Extension
}

func (o Options) normalize() (Options, error) {
	so, err := saver.Options{Format: o.Format, Conflict: o.Conflict, MergeHow: o.MergeHow}.Normalize()
	if err != nil {
		return o, err
	}
	o.Format, o.Conflict, o.MergeHow = so.Format, so.Conflict, so.MergeHow
	if o.Criterion == "" {
		o.Criterion = segment.ByDate
	}
	if o.Extension == "" {
		codec, err := saver.NewCodec(o.Format)
		if err != nil {
			return o, err
		}
		o.Extension = codec.Extension()
	}
	return o, nil
}

// Fatal reports whether err must stop an export instead of being recorded per partition.
func Fatal(err error) bool {
	switch apperror.CodeOf(err) {
	case apperror.InvalidConflictPolicy, apperror.InvalidFormat, apperror.InvalidMergeHow,
		apperror.InvalidCriterion, apperror.NotImplemented, apperror.FileNotFound:
		return true
	default:
		return false
	}
}

// Export saves every partition of t. Fatal errors stop at once; other failures are
// collected, the remaining partitions are still saved and the joined error is returned.
func Export(t model.Table, o Options) (Report, error) {
	var report Report
	o, err := o.normalize()
	if err != nil {
		return report, err
	}
	parts, err := segment.Segment(t, o.Criterion)
	if err != nil {
		return report, err
	}

	var errs []error
	for _, p := range parts {
		path := o.Path(p.Key)
		outcome, err := saver.Save(p.Table, path, saver.Options{Format: o.Format, Conflict: o.Conflict, MergeHow: o.MergeHow})
		if err != nil {
			if Fatal(err) {
				return report, fmt.Errorf("partition %s: %w", p.Key, err)
			}
			slog.Error("partition save failed", "key", p.Key, "path", path, "error", err)
			report.Failed = append(report.Failed, path)
			errs = append(errs, fmt.Errorf("partition %s: %w", p.Key, err))
			continue
		}
		last, _ := p.Table.Last()
		report.Saved = append(report.Saved, Saved{Key: p.Key, Path: path, Rows: len(p.Table), Last: last, Outcome: outcome})
	}
	slog.Info("export done", "partitions", len(parts), "saved", len(report.Saved), "failed", len(report.Failed))
	return report, errors.Join(errs...)
}
