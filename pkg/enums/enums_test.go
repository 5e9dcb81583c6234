package enums

import "testing"

func TestCategoryKindPolicy(t *testing.T) {
	tests := []struct {
		kind      CategoryKind
		serial    bool
		size      bool
		condition bool
	}{
		{kind: CategoryKindGarment, serial: true, size: true},
		{kind: CategoryKindHeadwear, serial: true},
		{kind: CategoryKindFootwear, size: true, condition: true},
		{kind: CategoryKindOther},
	}

	for _, tt := range tests {
		if got := tt.kind.RequiresSerial(); got != tt.serial {
			t.Fatalf("%s RequiresSerial = %v, want %v", tt.kind, got, tt.serial)
		}
		if got := tt.kind.RequiresSize(); got != tt.size {
			t.Fatalf("%s RequiresSize = %v, want %v", tt.kind, got, tt.size)
		}
		if got := tt.kind.RequiresCondition(); got != tt.condition {
			t.Fatalf("%s RequiresCondition = %v, want %v", tt.kind, got, tt.condition)
		}
	}
}

func TestParseHelpersRejectUnknown(t *testing.T) {
	if _, err := ParseCategoryKind("gloves"); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
	if _, err := ParseCondition("broken"); err == nil {
		t.Fatal("expected unknown condition to fail")
	}
	if _, err := ParseEmployeeStatus("retired"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if got, err := ParseStockMovementType("receipt"); err != nil || got != StockMovementTypeReceipt {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
}

func TestIssuanceStateTerminal(t *testing.T) {
	if IssuanceStateIdle.IsTerminal() || IssuanceStateAwaitingReplacementSelection.IsTerminal() {
		t.Fatal("idle and awaiting states are not terminal")
	}
	if !IssuanceStateCommitted.IsTerminal() || !IssuanceStateRejected.IsTerminal() {
		t.Fatal("committed and rejected states are terminal")
	}
}
