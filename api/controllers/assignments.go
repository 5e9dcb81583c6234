package controllers

import (
	"net/http"

	"github.com/angelmondragon/ppekeeper-backend/api/responses"
	"github.com/angelmondragon/ppekeeper-backend/api/validators"
	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/types"
)

type assignmentUpdateRequest struct {
	ItemCode  *string     `json:"item_code,omitempty" validate:"omitempty,max=64"`
	IssueDate *types.Date `json:"issue_date,omitempty"`
	Size      *string     `json:"size,omitempty" validate:"omitempty,max=32"`
	Condition *string     `json:"condition,omitempty" validate:"omitempty,oneof=new used"`
	Active    *bool       `json:"active,omitempty"`
	Remarks   *string     `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

func (r assignmentUpdateRequest) toInput() assignments.UpdateInput {
	input := assignments.UpdateInput{
		ItemCode:  r.ItemCode,
		IssueDate: r.IssueDate.TimePtr(),
		Size:      r.Size,
		Active:    r.Active,
		Remarks:   r.Remarks,
	}
	if r.Condition != nil {
		condition := enums.Condition(*r.Condition)
		input.Condition = &condition
	}
	return input
}

type assignmentReturnRequest struct {
	Remarks string `json:"remarks,omitempty" validate:"max=500"`
}

// AssignmentUpdate edits a record in place. Stock is not touched.
func AssignmentUpdate(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignmentUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAssignmentResponse(*row))
	}
}

func AssignmentDelete(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AssignmentReturn deactivates a unit handed back without a replacement.
// The body is optional.
func AssignmentReturn(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignmentReturnRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		row, err := svc.Return(r.Context(), id, payload.Remarks)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAssignmentResponse(*row))
	}
}
