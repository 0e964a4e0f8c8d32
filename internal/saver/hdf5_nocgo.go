//go:build !cgo

package saver

import (
	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// HDF5Available reports whether this build links libhdf5.
const HDF5Available = false

// HDF5Codec needs libhdf5 through cgo. In this build every read and write fails.
type HDF5Codec struct{}

func (HDF5Codec) Extension() string { return ".h5" }

func (HDF5Codec) Write(path string, _ model.Table) error {
	return apperror.New(apperror.NotImplemented, "%s: hdf5 needs a cgo build linked against libhdf5", path)
}

func (HDF5Codec) Read(path string) (model.Table, error) {
	return nil, apperror.New(apperror.NotImplemented, "%s: hdf5 needs a cgo build linked against libhdf5", path)
}
