package saver

import (
	"encoding/json"
	"os"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// JSONCodec stores a partition as an indented JSON array.
type JSONCodec struct{}

type jsonRecord struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (JSONCodec) Extension() string { return ".json" }

func (JSONCodec) Write(path string, t model.Table) error {
	rows := make([]jsonRecord, len(t))
	for i, r := range t {
		rows[i] = jsonRecord{
			Timestamp: r.Time.Format(model.TimeLayout),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return f.Close()
}

func (JSONCodec) Read(path string) (model.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []jsonRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s", path)
	}
	t := make(model.Table, len(rows))
	for i, r := range rows {
		ts, err := time.Parse(model.TimeLayout, r.Timestamp)
		if err != nil {
			return nil, apperror.Wrap(apperror.SchemaMismatch, err, "%s: row %d", path, i)
		}
		t[i] = model.Record{Time: ts, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume}
	}
	return t, nil
}
