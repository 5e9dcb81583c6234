package instance

import "testing"

func TestIDPrefersExplicitOverride(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("PPEKEEPER_INSTANCE_ID", "api-7")
	if got := ID(); got != "api-7" {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv("PPEKEEPER_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	if got := ID(); got != "worker.2" {
		t.Fatalf("expected dyno, got %q", got)
	}
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv("PPEKEEPER_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if ID() == "" {
		t.Fatal("expected a non-empty id")
	}
}
