package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing item code")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing item code" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"reason": "validation_failed"})
	if got := base.DetailsMap()["reason"]; got != "validation_failed" {
		t.Fatalf("details should be preserved, got %v", got)
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load employee")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsAndIsFollowWrappedChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInsufficientStock, "short"))
	if got := As(err); got == nil || got.Code() != CodeInsufficientStock {
		t.Fatalf("As failed to return typed error")
	}
	if !Is(err, CodeInsufficientStock) {
		t.Fatalf("Is should match code through wrapping")
	}
	if Is(err, CodeNotFound) {
		t.Fatalf("Is should not match a different code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk full"), "write movement")
	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("unexpected dump code %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_master_items_code", TableName: "master_items"}
	err := Wrap(CodeConflict, fmt.Errorf("insert master item: %w", pgErr), "duplicate code")

	d := Dump(err)
	if d.DB == nil {
		t.Fatalf("expected db dump")
	}
	if d.DB.Driver != "pgx" || d.DB.Code != "23505" || d.DB.Constraint != "uq_master_items_code" {
		t.Fatalf("unexpected db dump %+v", d.DB)
	}
	fields := d.Fields()
	if fields["db_table"] != "master_items" {
		t.Fatalf("expected db_table field, got %v", fields)
	}

	pqDump := Dump(fmt.Errorf("wrap: %w", &pq.Error{Code: "23503", Table: "assignments"}))
	if pqDump.DB == nil || pqDump.DB.Driver != "pq" || pqDump.DB.Table != "assignments" {
		t.Fatalf("unexpected pq dump %+v", pqDump.DB)
	}
	if _, ok := Dump(stdErrors.New("plain")).Fields()["db_code"]; ok {
		t.Fatalf("plain errors must not carry db fields")
	}
}

func TestWithDetailMergesIntoMap(t *testing.T) {
	err := Newf(CodeInsufficientStock, "only %d left", 2).
		WithDetail("available", 2).
		WithDetail("requested", 3)
	if err.Message() != "only 2 left" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	details := err.DetailsMap()
	if details["available"] != 2 || details["requested"] != 3 {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("wrap: %w", Wrap(CodeDependency, stdErrors.New("timeout"), "load"))) {
		t.Fatalf("dependency errors should be retryable")
	}
	if IsRetryable(New(CodeValidation, "bad")) {
		t.Fatalf("validation errors are not retryable")
	}
	if IsRetryable(stdErrors.New("plain")) {
		t.Fatalf("untyped errors are not retryable")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection reset"), "save settings")
	if got := err.Error(); got != "DEPENDENCY_ERROR: save settings: connection reset" {
		t.Fatalf("unexpected error string %q", got)
	}
}
