package provider

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

var avColumns = ColumnMap{"1. open", "2. high", "3. low", "4. close", "5. volume"}

func TestFormatSortsAndStripsZone(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	raw := NewRawTable("test", "1. open", "2. high", "3. low", "4. close", "5. volume", "extra")
	raw.Add(time.Date(2020, 1, 2, 9, 31, 0, 0, ny), 2, 2.5, 1.5, 2.2, 200, 42)
	raw.Add(time.Date(2020, 1, 2, 9, 30, 0, 0, ny), 1, 1.5, 0.5, 1.2, 100, 42)

	got, err := Format(raw, avColumns)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := model.Table{
		{Time: time.Date(2020, 1, 2, 9, 30, 0, 0, time.UTC), Open: 1, High: 1.5, Low: 0.5, Close: 1.2, Volume: 100},
		{Time: time.Date(2020, 1, 2, 9, 31, 0, 0, time.UTC), Open: 2, High: 2.5, Low: 1.5, Close: 2.2, Volume: 200},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format mismatch (-want +got):\n%s", diff)
	}
	if got[0].Time.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got[0].Time.Location())
	}
}

func TestFormatCollapsesRepeatedWallClock(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database: %v", err)
	}
	// 2020-11-01 01:00 to 02:00 happens twice in New York.
	edt := time.Date(2020, 11, 1, 5, 30, 0, 0, time.UTC).In(ny)
	est := time.Date(2020, 11, 1, 6, 15, 0, 0, time.UTC).In(ny)
	dup := time.Date(2020, 11, 1, 6, 30, 0, 0, time.UTC).In(ny)

	raw := NewRawTable("test", "1. open", "2. high", "3. low", "4. close", "5. volume")
	raw.Add(dup, 3, 3, 3, 3, 300)
	raw.Add(est, 2, 2, 2, 2, 200)
	raw.Add(edt, 1, 1, 1, 1, 100)

	got, err := Format(raw, avColumns)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := model.Table{
		{Time: time.Date(2020, 11, 1, 1, 15, 0, 0, time.UTC), Open: 2, High: 2, Low: 2, Close: 2, Volume: 200},
		{Time: time.Date(2020, 11, 1, 1, 30, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1, Volume: 100},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format mismatch (-want +got):\n%s", diff)
	}
	if !got.IsSorted() {
		t.Error("table not strictly increasing")
	}
}

func TestFormatMissingColumn(t *testing.T) {
	raw := NewRawTable("test", "Open", "High", "Low", "Close")
	raw.Add(time.Now(), 1, 2, 0.5, 1.5)

	got, err := Format(raw, ColumnMap{"Open", "High", "Low", "Close", "Volume"})
	if !apperror.Is(err, apperror.SchemaMismatch) {
		t.Fatalf("err = %v, want SchemaMismatch", err)
	}
	if got != nil {
		t.Errorf("partial output returned: %v", got)
	}
}

func TestFormatRaggedColumn(t *testing.T) {
	raw := NewRawTable("test", "o", "h", "l", "c", "v")
	raw.Add(time.Now(), 1, 1, 1, 1, 1)
	raw.Columns["v"] = nil

	if _, err := Format(raw, ColumnMap{"o", "h", "l", "c", "v"}); !apperror.Is(err, apperror.SchemaMismatch) {
		t.Errorf("err = %v, want SchemaMismatch", err)
	}
}

func TestParseFrequency(t *testing.T) {
	for _, s := range []string{"intraday", "Daily", " weekly ", "MONTHLY"} {
		if _, err := ParseFrequency(s); err != nil {
			t.Errorf("ParseFrequency(%q): %v", s, err)
		}
	}
	if _, err := ParseFrequency("hourly"); !apperror.Is(err, apperror.InvalidFrequency) {
		t.Errorf("ParseFrequency(hourly) err = %v, want InvalidFrequency", err)
	}
}

func TestOptionsGet(t *testing.T) {
	o := Options{"interval": "5min", "blank": " "}
	if got := o.Get("interval", "1min"); got != "5min" {
		t.Errorf("Get(interval) = %q", got)
	}
	if got := o.Get("blank", "x"); got != "x" {
		t.Errorf("Get(blank) = %q", got)
	}
	var none Options
	if got := none.Get("interval", "1min"); got != "1min" {
		t.Errorf("nil Options Get = %q", got)
	}
}
