package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("12", 5); got != 12 {
		t.Fatalf("unexpected %d", got)
	}
	if got := ParseIntDefault("", 5); got != 5 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("x", 5); got != 5 {
		t.Fatalf("expected default, got %d", got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("0.25", 1); got != 0.25 {
		t.Fatalf("unexpected %v", got)
	}
	if got := ParseFloatDefault("NaN", 1); got != 1 {
		t.Fatalf("expected default, got %v", got)
	}
}
