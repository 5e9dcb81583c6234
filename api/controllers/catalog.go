package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/ppekeeper-backend/api/responses"
	"github.com/angelmondragon/ppekeeper-backend/api/validators"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
)

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Kind        string  `json:"kind" validate:"required,oneof=garment headwear footwear other"`
	CapacityKey *string `json:"capacity_key,omitempty" validate:"omitempty,max=64"`
	Remarks     *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

func (r categoryRequest) toInput() catalog.CategoryInput {
	return catalog.CategoryInput{
		Name:        strings.TrimSpace(r.Name),
		Kind:        enums.CategoryKind(r.Kind),
		CapacityKey: r.CapacityKey,
		Remarks:     r.Remarks,
	}
}

type masterItemRequest struct {
	Code              string    `json:"code" validate:"required,max=64"`
	Name              string    `json:"name" validate:"required,max=200"`
	CategoryID        uuid.UUID `json:"category_id" validate:"required"`
	Size              *string   `json:"size,omitempty" validate:"omitempty,max=32"`
	UnitOfMeasure     *string   `json:"unit_of_measure,omitempty" validate:"omitempty,max=32"`
	LifespanDays      *int      `json:"lifespan_days,omitempty" validate:"omitempty,min=0"`
	DefaultRemarks    *string   `json:"default_remarks,omitempty" validate:"omitempty,max=500"`
	LowStockThreshold int       `json:"low_stock_threshold" validate:"min=0"`
	InitialStock      int       `json:"initial_stock" validate:"min=0"`
}

func (r masterItemRequest) toInput() catalog.MasterItemInput {
	return catalog.MasterItemInput{
		Code:              strings.TrimSpace(r.Code),
		Name:              strings.TrimSpace(r.Name),
		CategoryID:        r.CategoryID,
		Size:              r.Size,
		UnitOfMeasure:     r.UnitOfMeasure,
		LifespanDays:      r.LifespanDays,
		DefaultRemarks:    r.DefaultRemarks,
		LowStockThreshold: r.LowStockThreshold,
		InitialStock:      r.InitialStock,
	}
}

type stockReceiveRequest struct {
	Quantity  int    `json:"quantity" validate:"min=1"`
	Reference string `json:"reference,omitempty" validate:"max=200"`
}

type stockCorrectRequest struct {
	Stock     *int   `json:"stock" validate:"required,min=0"`
	Reference string `json:"reference,omitempty" validate:"max=200"`
}

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]categoryResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toCategoryResponse(row))
		}
		responses.WriteList(w, out, 0)
	}
}

func CategoryGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.GetCategory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCategoryResponse(*category))
	}
}

func CategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCategoryResponse(*category))
	}
}

func CategoryUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.UpdateCategory(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCategoryResponse(*category))
	}
}

// CategoryDelete refuses while master items or assignments still point at
// the category.
func CategoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// MasterItemList lists the catalog, optionally narrowed by ?category_id=.
func MasterItemList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var categoryID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id").
					WithDetails(map[string]any{"field": "category_id"}))
				return
			}
			categoryID = &id
		}
		rows, err := svc.ListMasterItems(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toMasterItemResponses(rows), 0)
	}
}

func MasterItemGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "masterItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetMasterItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMasterItemResponse(*item))
	}
}

func MasterItemCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload masterItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CreateMasterItem(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toMasterItemResponse(*item))
	}
}

// MasterItemUpdate edits the descriptive fields. Stock only moves through the
// receive and correct routes.
func MasterItemUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "masterItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload masterItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateMasterItem(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMasterItemResponse(*item))
	}
}

func MasterItemDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "masterItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteMasterItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func MasterItemReceiveStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "masterItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockReceiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.ReceiveStock(r.Context(), id, payload.Quantity, strings.TrimSpace(payload.Reference))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMasterItemResponse(*item))
	}
}

// MasterItemCorrectStock overwrites the counter after a physical count.
func MasterItemCorrectStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "masterItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockCorrectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CorrectStock(r.Context(), id, *payload.Stock, strings.TrimSpace(payload.Reference))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMasterItemResponse(*item))
	}
}

func MasterItemLowStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toMasterItemResponses(rows), 0)
	}
}
