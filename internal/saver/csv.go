package saver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// CSVCodec stores a partition as CSV (header: timestamp,open,high,low,close,volume).
type CSVCodec struct{}

func (CSVCodec) Extension() string { return ".csv" }

func (CSVCodec) Write(path string, t model.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := EncodeCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}

// EncodeCSV writes t with a header row to w.
func EncodeCSV(w io.Writer, t model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"timestamp"}, model.Columns...)); err != nil {
		return err
	}
	for _, r := range t {
		if err := cw.Write([]string{
			r.Time.Format(model.TimeLayout),
			floatStr(r.Open),
			floatStr(r.High),
			floatStr(r.Low),
			floatStr(r.Close),
			floatStr(r.Volume),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (CSVCodec) Read(path string) (model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(model.Columns) + 1

	header, err := r.Read()
	if err == io.EOF {
		return nil, apperror.New(apperror.SchemaMismatch, "%s: empty file", path)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s: read header", path)
	}
	if !slices.Equal(header[1:], model.Columns) {
		return nil, apperror.New(apperror.SchemaMismatch, "%s: header %v, want index + %v", path, header, model.Columns)
	}

	var t model.Table
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s:%d", path, line)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s:%d", path, line)
		}
		t = append(t, row)
	}
	return t, nil
}

func parseRow(rec []string) (model.Record, error) {
	ts, err := parseTime(rec[0])
	if err != nil {
		return model.Record{}, err
	}
	var v [5]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return model.Record{}, fmt.Errorf("column %s: %w", model.Columns[i], err)
		}
	}
	return model.Record{Time: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}, nil
}

// parseTime accepts the full layout and a bare date, as written for daily data by other tools.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(model.TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: want %q", s, model.TimeLayout)
	}
	return t, nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
