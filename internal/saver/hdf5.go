//go:build cgo

package saver

import (
	"sync"
	"time"

	"gonum.org/v1/hdf5"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// HDF5Available reports whether this build links libhdf5.
const HDF5Available = true

// hdf5Key names the dataset holding the partition.
const hdf5Key = "stockdaq"

// HDF5Codec stores a partition as one compound dataset named "stockdaq".
// The timestamp field holds the naive wall clock as Unix nanoseconds.
type HDF5Codec struct{}

type hdf5Row struct {
	Timestamp int64   `hdf5:"timestamp"`
	Open      float64 `hdf5:"open"`
	High      float64 `hdf5:"high"`
	Low       float64 `hdf5:"low"`
	Close     float64 `hdf5:"close"`
	Volume    float64 `hdf5:"volume"`
}

// libhdf5 is not always built thread-safe.
var hdf5Mu sync.Mutex

func (HDF5Codec) Extension() string { return ".h5" }

func (HDF5Codec) Write(path string, t model.Table) error {
	rows := make([]hdf5Row, len(t))
	for i, r := range t {
		rows[i] = hdf5Row{
			Timestamp: r.Time.UnixNano(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}

	hdf5Mu.Lock()
	defer hdf5Mu.Unlock()

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer f.Close()

	dtype, err := hdf5.NewDatatypeFromValue(hdf5Row{})
	if err != nil {
		return err
	}
	defer dtype.Close()

	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(rows))}, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	ds, err := f.CreateDataset(hdf5Key, dtype, space)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := ds.Write(&rows); err != nil {
			ds.Close()
			return err
		}
	}
	if err := ds.Close(); err != nil {
		return err
	}
	return f.Close()
}

func (HDF5Codec) Read(path string) (model.Table, error) {
	hdf5Mu.Lock()
	defer hdf5Mu.Unlock()

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s: not an HDF5 file", path)
	}
	defer f.Close()

	ds, err := f.OpenDataset(hdf5Key)
	if err != nil {
		return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s: no %q dataset", path, hdf5Key)
	}
	defer ds.Close()

	space := ds.Space()
	n := space.SimpleExtentNPoints()
	space.Close()

	rows := make([]hdf5Row, n)
	if n > 0 {
		if err := ds.Read(&rows); err != nil {
			return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s", path)
		}
	}
	t := make(model.Table, n)
	for i, r := range rows {
		t[i] = model.Record{
			Time:   time.Unix(0, r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return t, nil
}
