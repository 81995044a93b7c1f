package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s, nil)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10), nil)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeWallClockInLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got, ok := ParseTime("2024-01-02 15:30:00", loc)
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 1, 2, 20, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %v got %v", want, got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	cases := map[string]float64{
		"185.25":  185.25,
		"1.1700%": 1.17,
		"-0.5%":   -0.5,
		"":        -1,
		"n/a":     -1,
	}
	for in, want := range cases {
		if got := ParseFloatDefault(in, -1); got != want {
			t.Fatalf("%q: want %v got %v", in, want, got)
		}
	}
}

func TestSplitSymbols(t *testing.T) {
	got := SplitSymbols(" tsla, aapl,,MSFT ")
	want := []string{"TSLA", "AAPL", "MSFT"}
	if len(got) != len(want) {
		t.Fatalf("want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v got %v", want, got)
		}
	}
}
