package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2023-04-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeInstrumentLayout(t *testing.T) {
	got, ok := ParseTime("2023-04-10 10:10:10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Hour() != 10 || got.Day() != 10 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2023, 4, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2023, 4, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestJoinDateTime(t *testing.T) {
	s := JoinDateTime(" 2023-04-10", "10:10:10 ")
	if s != "2023-04-10 10:10:10" {
		t.Fatalf("unexpected join %q", s)
	}
	if _, ok := ParseTime(s); !ok {
		t.Fatalf("joined string should parse")
	}
}

func TestParseFloatSentinels(t *testing.T) {
	for _, s := range []string{"", "NaN", "NA", "null", "-", "n/a"} {
		if _, ok := ParseFloat(s); ok {
			t.Fatalf("expected !ok for %q", s)
		}
	}
	v, ok := ParseFloat(" 1.25 ")
	if !ok || v != 1.25 {
		t.Fatalf("unexpected parse %v %v", v, ok)
	}
}
