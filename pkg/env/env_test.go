package env

import "testing"

func TestGetPrefersPrefixedName(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PPEKEEPER_LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "x"); got != "console" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("PPEKEEPER_MISSING_KEY", "  ")
	if got := Get("MISSING_KEY", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("PPEKEEPER_FLAG_ON", "true")
	t.Setenv("PPEKEEPER_FLAG_BAD", "maybe")
	if !Bool("FLAG_ON", false) {
		t.Fatal("expected true")
	}
	if !Bool("FLAG_BAD", true) {
		t.Fatal("expected fallback on bad value")
	}
	if Bool("FLAG_UNSET", false) {
		t.Fatal("expected fallback when unset")
	}
}
