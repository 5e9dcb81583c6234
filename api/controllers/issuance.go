package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/ppekeeper-backend/api/responses"
	"github.com/angelmondragon/ppekeeper-backend/api/validators"
	"github.com/angelmondragon/ppekeeper-backend/internal/issuance"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/types"
)

// IssuanceEngine is the decision surface the issuance routes drive.
type IssuanceEngine interface {
	Issue(ctx context.Context, req issuance.Request) (*issuance.Outcome, error)
	Session(ctx context.Context, employeeID string) (*issuance.Session, error)
	Withdraw(ctx context.Context, employeeID string) error
}

type issuanceRequest struct {
	Groups []issuanceGroupRequest `json:"groups" validate:"dive"`
}

type issuanceGroupRequest struct {
	CategoryID          uuid.UUID             `json:"category_id" validate:"required"`
	MasterItemID        *uuid.UUID            `json:"master_item_id,omitempty"`
	ReplaceAssignmentID *uuid.UUID            `json:"replace_assignment_id,omitempty"`
	Items               []issuanceItemRequest `json:"items" validate:"dive"`
}

type issuanceItemRequest struct {
	ItemCode  string      `json:"item_code,omitempty" validate:"max=64"`
	IssueDate *types.Date `json:"issue_date,omitempty"`
	Size      string      `json:"size,omitempty" validate:"max=32"`
	Condition string      `json:"condition,omitempty" validate:"omitempty,oneof=new used"`
	Remarks   string      `json:"remarks,omitempty" validate:"max=500"`
}

func (r issuanceRequest) toRequest(employeeID string) issuance.Request {
	req := issuance.Request{EmployeeID: employeeID}
	for _, group := range r.Groups {
		items := make([]issuance.ItemRequest, 0, len(group.Items))
		for _, item := range group.Items {
			items = append(items, issuance.ItemRequest{
				ItemCode:  strings.TrimSpace(item.ItemCode),
				IssueDate: item.IssueDate.TimePtr(),
				Size:      strings.TrimSpace(item.Size),
				Condition: enums.Condition(strings.TrimSpace(item.Condition)),
				Remarks:   strings.TrimSpace(item.Remarks),
			})
		}
		req.Groups = append(req.Groups, issuance.CategoryRequest{
			CategoryID:          group.CategoryID,
			MasterItemID:        group.MasterItemID,
			ReplaceAssignmentID: group.ReplaceAssignmentID,
			Items:               items,
		})
	}
	return req
}

// IssuanceCreate runs one issuance batch. Committed batches answer 201; a
// pending replacement selection answers 200 with the candidates.
func IssuanceCreate(engine IssuanceEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issuance engine unavailable"))
			return
		}

		employeeID, err := validators.RequireParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload issuanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := engine.Issue(r.Context(), payload.toRequest(employeeID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if outcome.State == enums.IssuanceStateCommitted {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, toIssuanceResponse(outcome))
	}
}

func IssuanceSession(engine IssuanceEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employeeID, err := validators.RequireParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := engine.Session(r.Context(), employeeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// IssuanceWithdraw abandons a pending replacement selection.
func IssuanceWithdraw(engine IssuanceEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employeeID, err := validators.RequireParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.Withdraw(r.Context(), employeeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
