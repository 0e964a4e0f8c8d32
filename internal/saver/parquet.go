package saver

import (
	"time"

	"github.com/parquet-go/parquet-go"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// ParquetCodec stores a partition as a Parquet file.
type ParquetCodec struct{}

// parquetRow is the on-disk schema. Timestamp holds the naive wall clock as Unix nanoseconds.
type parquetRow struct {
	Timestamp int64   `parquet:"timestamp"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

func (ParquetCodec) Extension() string { return ".parquet" }

func (ParquetCodec) Write(path string, t model.Table) error {
	rows := make([]parquetRow, len(t))
	for i, r := range t {
		rows[i] = parquetRow{
			Timestamp: r.Time.UnixNano(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return parquet.WriteFile(path, rows)
}

func (ParquetCodec) Read(path string) (model.Table, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s", path)
	}
	t := make(model.Table, len(rows))
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
