// Package segment splits a canonical table into time-keyed partitions.
package segment

import (
	"strconv"
	"strings"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// Criterion selects the partition key of a row.
type Criterion string

const (
	ByDate  Criterion = "date"
	ByYear  Criterion = "year"
	ByMonth Criterion = "month"
	ByWeek  Criterion = "week"
)

// Partition is the slice of a table sharing one key.
type Partition struct {
	Key   string
	Table model.Table
}

// ParseCriterion normalizes s and classifies it like Segment does.
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(strings.ToLower(strings.TrimSpace(s)))
	if _, err := keyFunc(c); err != nil {
		return "", err
	}
	return c, nil
}

func keyFunc(c Criterion) (func(model.Record) string, error) {
	switch c {
	case ByDate:
		return func(r model.Record) string { return r.Time.Format("2006-01-02") }, nil
	case ByYear:
		return func(r model.Record) string { return strconv.Itoa(r.Time.Year()) }, nil
	case ByMonth, ByWeek:
		return nil, apperror.New(apperror.NotImplemented, "criterion %q not implemented", string(c))
	default:
		return nil, apperror.New(apperror.InvalidCriterion, "criterion %q not available", string(c))
	}
}

// Segment groups contiguous runs of rows with the same key, in table order.
// t must already be sorted ascending; rows of one key that are not contiguous end up in
// separate partitions.
func Segment(t model.Table, c Criterion) ([]Partition, error) {
	key, err := keyFunc(c)
	if err != nil {
		return nil, err
	}

	var parts []Partition
	begin := 0
	for i := 1; i <= len(t); i++ {
		if i < len(t) && key(t[i]) == key(t[begin]) {
			continue
		}
		rows := make(model.Table, i-begin)
		copy(rows, t[begin:i])
		parts = append(parts, Partition{Key: key(t[begin]), Table: rows})
		begin = i
	}
	return parts, nil
}
