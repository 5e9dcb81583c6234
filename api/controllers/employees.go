package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/ppekeeper-backend/api/responses"
	"github.com/angelmondragon/ppekeeper-backend/api/validators"
	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/employees"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/types"
)

type employeeRequest struct {
	ID              string      `json:"id,omitempty" validate:"omitempty,max=64"`
	Name            string      `json:"name" validate:"required,max=200"`
	Status          string      `json:"status" validate:"required,oneof=active separated"`
	EntryDate       *types.Date `json:"entry_date,omitempty"`
	Process         *string     `json:"process,omitempty" validate:"omitempty,max=100"`
	Remarks         *string     `json:"remarks,omitempty" validate:"omitempty,max=500"`
	ClothesLocker1F *string     `json:"clothes_locker_1f,omitempty" validate:"omitempty,max=32"`
	ShoesLocker1F   *string     `json:"shoes_locker_1f,omitempty" validate:"omitempty,max=32"`
	ClothesLocker2F *string     `json:"clothes_locker_2f,omitempty" validate:"omitempty,max=32"`
	ShoesLocker2F   *string     `json:"shoes_locker_2f,omitempty" validate:"omitempty,max=32"`
}

func (r employeeRequest) toInput() employees.Input {
	return employees.Input{
		ID:              strings.TrimSpace(r.ID),
		Name:            strings.TrimSpace(r.Name),
		Status:          enums.EmployeeStatus(r.Status),
		EntryDate:       r.EntryDate.TimePtr(),
		Process:         r.Process,
		Remarks:         r.Remarks,
		ClothesLocker1F: r.ClothesLocker1F,
		ShoesLocker1F:   r.ShoesLocker1F,
		ClothesLocker2F: r.ClothesLocker2F,
		ShoesLocker2F:   r.ShoesLocker2F,
	}
}

func EmployeeList(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toEmployeeResponses(rows), 0)
	}
}

func EmployeeGet(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.RequireParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		employee, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEmployeeResponse(*employee))
	}
}

func EmployeeCreate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload employeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		employee, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toEmployeeResponse(*employee))
	}
}

// EmployeeUpdate replaces the writable fields. The employee number in the
// path is authoritative; an id in the body is ignored.
func EmployeeUpdate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.RequireParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload employeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		employee, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEmployeeResponse(*employee))
	}
}

// EmployeeDelete removes the employee together with every assignment.
func EmployeeDelete(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.RequireParam(r, "employeeId")
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

func EmployeeSearch(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := validators.SanitizeString(r.URL.Query().Get("name"), 100)
		if name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name query parameter is required").
				WithDetails(map[string]any{"field": "name"}))
			return
		}
		rows, err := svc.SearchByName(r.Context(), name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toEmployeeResponses(rows), 0)
	}
}

// EmployeeByItemCode finds who holds, or held, a serialised unit.
func EmployeeByItemCode(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := validators.SanitizeString(r.URL.Query().Get("code"), 64)
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code query parameter is required").
				WithDetails(map[string]any{"field": "code"}))
			return
		}
		rows, err := svc.FindByItemCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toEmployeeResponses(rows), 0)
	}
}

// EmployeeAssignments lists an employee's assignments; ?active=false includes
// deactivated history.
func EmployeeAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.RequireParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListForEmployee(r.Context(), id, activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toAssignmentResponses(rows), 0)
	}
}
