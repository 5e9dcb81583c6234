package issuance

import (
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

// Reason tags why a request was rejected. It travels in the error details
// under the "reason" key.
type Reason string

const (
	ReasonEmployeeNotLoaded            Reason = "employee_not_loaded"
	ReasonNoItemsSelected              Reason = "no_items_selected"
	ReasonValidationFailed             Reason = "validation_failed"
	ReasonMasterItemNotSelected        Reason = "master_item_not_selected"
	ReasonInsufficientStock            Reason = "insufficient_stock"
	ReasonCapacityExceededUnresolvable Reason = "capacity_exceeded_unresolvable"
	ReasonReplacementTargetMissing     Reason = "replacement_target_missing"
	ReasonPartialCommitFailure         Reason = "partial_commit_failure"
	ReasonRepositoryError              Reason = "repository_error"
)

const detailReason = "reason"

// ReasonOf extracts the rejection reason carried by err, if any.
func ReasonOf(err error) Reason {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	if reason, ok := typed.DetailsMap()[detailReason].(Reason); ok {
		return reason
	}
	return ""
}

func reject(code pkgerrors.Code, reason Reason, message string, details map[string]any) *pkgerrors.Error {
	if details == nil {
		details = map[string]any{}
	}
	details[detailReason] = reason
	return pkgerrors.New(code, message).WithDetails(details)
}

func errEmployeeNotLoaded(employeeID string) error {
	return reject(pkgerrors.CodeNotFound, ReasonEmployeeNotLoaded, "employee not loaded",
		map[string]any{"employee_id": employeeID})
}

func errNoItemsSelected() error {
	return reject(pkgerrors.CodeValidation, ReasonNoItemsSelected, "no items selected", nil)
}

// errValidationFailed names the offending field and the item position within
// its category group. item is -1 for group level fields.
func errValidationFailed(field string, group, item int, message string) error {
	details := map[string]any{"field": field, "group": group}
	if item >= 0 {
		details["item"] = item
	}
	return reject(pkgerrors.CodeValidation, ReasonValidationFailed, message, details)
}

func errMasterItemNotSelected(category string) error {
	return reject(pkgerrors.CodeValidation, ReasonMasterItemNotSelected, "master item must be selected",
		map[string]any{"category": category})
}

func errInsufficientStock(masterItem string, available, requested int) error {
	return reject(pkgerrors.CodeInsufficientStock, ReasonInsufficientStock, "insufficient stock",
		map[string]any{"master_item": masterItem, "available": available, "requested": requested})
}

func errCapacityExceededUnresolvable(category string, active, pending, max int) error {
	return reject(pkgerrors.CodeStateConflict, ReasonCapacityExceededUnresolvable,
		"would exceed maximum; only 1-for-1 replacement is supported at capacity",
		map[string]any{"category": category, "active": active, "pending": pending, "max": max})
}

func errReplacementTargetMissing(category string, target uuid.UUID) error {
	return reject(pkgerrors.CodeStateConflict, ReasonReplacementTargetMissing,
		"replacement target is not an active assignment of this employee and category",
		map[string]any{"category": category, "assignment_id": target.String()})
}

func errPartialCommitFailure(cause error, succeeded, attempted int) error {
	details := map[string]any{"succeeded": succeeded, "attempted": attempted}
	if cause == nil {
		return reject(pkgerrors.CodeStateConflict, ReasonPartialCommitFailure,
			"batch write did not apply; nothing was persisted", details)
	}
	details[detailReason] = ReasonPartialCommitFailure
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "batch write failed; nothing was persisted").
		WithDetails(details)
}

func errRepository(cause error, action string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, action).
		WithDetails(map[string]any{detailReason: ReasonRepositoryError})
}
