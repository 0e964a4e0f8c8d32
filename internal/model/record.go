package model

import (
	"slices"
	"time"
)

// Columns is the canonical column order of every stored table.
var Columns = []string{"open", "high", "low", "close", "volume"}

// TimeLayout is the textual form of a naive timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one canonical OHLCV row.
// Time is a naive wall-clock timestamp: it is kept in UTC but carries no offset meaning.
type Record struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Values returns the numeric fields in Columns order.
func (r Record) Values() [5]float64 {
	return [5]float64{r.Open, r.High, r.Low, r.Close, r.Volume}
}

// Table is an ordered sequence of records keyed by Time.
type Table []Record

// Naive drops the zone of t and keeps its wall clock.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Sort orders the table ascending by time. Rows with equal time keep their relative order.
func (t Table) Sort() {
	slices.SortStableFunc(t, func(a, b Record) int { return a.Time.Compare(b.Time) })
}

// IsSorted reports whether timestamps are strictly increasing.
func (t Table) IsSorted() bool {
	for i := 1; i < len(t); i++ {
		if !t[i-1].Time.Before(t[i].Time) {
			return false
		}
	}
	return true
}

// Dedup returns the rows of t with the first occurrence of each timestamp kept.
func (t Table) Dedup() Table {
	seen := make(map[int64]struct{}, len(t))
	out := make(Table, 0, len(t))
	for _, r := range t {
		k := r.Time.UnixNano()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// First returns the earliest timestamp of a sorted table.
func (t Table) First() (time.Time, bool) {
	if len(t) == 0 {
		return time.Time{}, false
	}
	return t[0].Time, true
}

// Last returns the latest timestamp of a sorted table.
func (t Table) Last() (time.Time, bool) {
	if len(t) == 0 {
		return time.Time{}, false
	}
	return t[len(t)-1].Time, true
}
