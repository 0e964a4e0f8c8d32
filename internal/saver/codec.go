package saver

import (
	"path/filepath"
	"strings"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// Format names an on-disk encoding of a partition.
type Format string

const (
	HDF5    Format = "hdf5"
	CSV     Format = "csv"
	Parquet Format = "parquet"
	JSON    Format = "json"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = HDF5

// Codec reads and writes one partition file.
// Write replaces path entirely.
type Codec interface {
	Extension() string
	Write(path string, t model.Table) error
	Read(path string) (model.Table, error)
}

// ParseFormat normalizes s. The empty string selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		f = DefaultFormat
	}
	if _, err := NewCodec(f); err != nil {
		return "", err
	}
	return f, nil
}

// NewCodec returns the implementation for f.
func NewCodec(f Format) (Codec, error) {
	switch f {
	case HDF5:
		return HDF5Codec{}, nil
	case Parquet:
		return ParquetCodec{}, nil
	case CSV:
		return CSVCodec{}, nil
	case JSON:
		return JSONCodec{}, nil
	default:
		return nil, apperror.New(apperror.InvalidFormat, "format %q not available (use: hdf5, csv, parquet, json)", string(f))
	}
}

// FormatOf guesses the format of path from its extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return Parquet, nil
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".h5", ".hdf5":
		return HDF5, nil
	default:
		return "", apperror.New(apperror.InvalidFormat, "cannot infer format from extension %q", ext)
	}
}
