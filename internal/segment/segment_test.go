package segment

import (
	"testing"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

func at(s string) time.Time {
	t, err := time.Parse(model.TimeLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func table(stamps ...string) model.Table {
	t := make(model.Table, len(stamps))
	for i, s := range stamps {
		t[i] = model.Record{Time: at(s), Open: float64(i), High: float64(i) + 1, Low: float64(i) - 1, Close: float64(i), Volume: 100}
	}
	return t
}

func TestSegmentByDate(t *testing.T) {
	in := table("2020-01-01 09:30:00", "2020-01-01 09:31:00", "2020-01-02 09:30:00")

	parts, err := Segment(in, ByDate)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(parts))
	}
	if parts[0].Key != "2020-01-01" || len(parts[0].Table) != 2 {
		t.Errorf("first partition = %q with %d rows, want 2020-01-01 with 2", parts[0].Key, len(parts[0].Table))
	}
	if parts[1].Key != "2020-01-02" || len(parts[1].Table) != 1 {
		t.Errorf("second partition = %q with %d rows, want 2020-01-02 with 1", parts[1].Key, len(parts[1].Table))
	}
	if parts[1].Table[0] != in[2] {
		t.Errorf("second partition row = %+v, want %+v", parts[1].Table[0], in[2])
	}
}

func TestSegmentByYear(t *testing.T) {
	in := table("2019-12-31 16:00:00", "2020-01-02 09:30:00", "2020-06-01 09:30:00", "2021-01-04 09:30:00")

	parts, err := Segment(in, ByYear)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	want := []struct {
		key  string
		rows int
	}{{"2019", 1}, {"2020", 2}, {"2021", 1}}
	if len(parts) != len(want) {
		t.Fatalf("expected %d partitions, got %d", len(want), len(parts))
	}
	for i, w := range want {
		if parts[i].Key != w.key || len(parts[i].Table) != w.rows {
			t.Errorf("partition %d = %q/%d, want %q/%d", i, parts[i].Key, len(parts[i].Table), w.key, w.rows)
		}
	}
}

func TestSegmentDoesNotAliasInput(t *testing.T) {
	in := table("2020-01-01 09:30:00", "2020-01-01 09:31:00")
	parts, err := Segment(in, ByDate)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	parts[0].Table[0].Close = -1
	if in[0].Close == -1 {
		t.Error("partition shares memory with the input table")
	}
}

func TestSegmentUnsortedInputSplitsRuns(t *testing.T) {
	in := table("2020-01-01 09:30:00", "2020-01-02 09:30:00", "2020-01-01 09:31:00")
	parts, err := Segment(in, ByDate)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(parts) != 3 {
		t.Errorf("expected 3 runs for unsorted input, got %d", len(parts))
	}
}

func TestSegmentEmpty(t *testing.T) {
	parts, err := Segment(nil, ByDate)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("expected no partitions, got %d", len(parts))
	}
}

func TestSegmentCriterionErrors(t *testing.T) {
	in := table("2020-01-01 09:30:00")
	tests := []struct {
		criterion Criterion
		code      apperror.Code
	}{
		{ByMonth, apperror.NotImplemented},
		{ByWeek, apperror.NotImplemented},
		{"hour", apperror.InvalidCriterion},
		{"", apperror.InvalidCriterion},
	}
	for _, tt := range tests {
		_, err := Segment(in, tt.criterion)
		if got := apperror.CodeOf(err); got != tt.code {
			t.Errorf("Segment(%q) code = %q, want %q (err %v)", tt.criterion, got, tt.code, err)
		}
	}
}

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion(" Year ")
	if err != nil || c != ByYear {
		t.Errorf("ParseCriterion(Year) = %q, %v", c, err)
	}
	if _, err := ParseCriterion("month"); !apperror.Is(err, apperror.NotImplemented) {
		t.Errorf("ParseCriterion(month) err = %v, want NotImplemented", err)
	}
}
