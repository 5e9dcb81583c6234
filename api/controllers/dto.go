package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ppekeeper-backend/internal/issuance"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	"github.com/angelmondragon/ppekeeper-backend/pkg/types"
)

type employeeResponse struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Status          enums.EmployeeStatus `json:"status"`
	EntryDate       *types.Date          `json:"entry_date,omitempty"`
	Process         *string              `json:"process,omitempty"`
	Remarks         *string              `json:"remarks,omitempty"`
	ClothesLocker1F *string              `json:"clothes_locker_1f,omitempty"`
	ShoesLocker1F   *string              `json:"shoes_locker_1f,omitempty"`
	ClothesLocker2F *string              `json:"clothes_locker_2f,omitempty"`
	ShoesLocker2F   *string              `json:"shoes_locker_2f,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toEmployeeResponse(e models.Employee) employeeResponse {
	return employeeResponse{
		ID:              e.ID,
		Name:            e.Name,
		Status:          e.Status,
		EntryDate:       types.DatePtr(e.EntryDate),
		Process:         e.Process,
		Remarks:         e.Remarks,
		ClothesLocker1F: e.ClothesLocker1F,
		ShoesLocker1F:   e.ShoesLocker1F,
		ClothesLocker2F: e.ClothesLocker2F,
		ShoesLocker2F:   e.ShoesLocker2F,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toEmployeeResponses(rows []models.Employee) []employeeResponse {
	out := make([]employeeResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEmployeeResponse(row))
	}
	return out
}

type categoryResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Kind        enums.CategoryKind `json:"kind"`
	CapacityKey *string            `json:"capacity_key,omitempty"`
	Remarks     *string            `json:"remarks,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toCategoryResponse(c models.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
		CapacityKey: c.CapacityKey,
		Remarks:     c.Remarks,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type masterItemResponse struct {
	ID                uuid.UUID `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	CategoryID        uuid.UUID `json:"category_id"`
	CategoryName      string    `json:"category_name,omitempty"`
	Size              *string   `json:"size,omitempty"`
	UnitOfMeasure     *string   `json:"unit_of_measure,omitempty"`
	LifespanDays      *int      `json:"lifespan_days,omitempty"`
	DefaultRemarks    *string   `json:"default_remarks,omitempty"`
	CurrentStock      int       `json:"current_stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toMasterItemResponse(m models.MasterItem) masterItemResponse {
	resp := masterItemResponse{
		ID:                m.ID,
		Code:              m.Code,
		Name:              m.Name,
		CategoryID:        m.CategoryID,
		Size:              m.Size,
		UnitOfMeasure:     m.UnitOfMeasure,
		LifespanDays:      m.LifespanDays,
		DefaultRemarks:    m.DefaultRemarks,
		CurrentStock:      m.CurrentStock,
		LowStockThreshold: m.LowStockThreshold,
		LowStock:          m.IsLowStock(),
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Category != nil {
		resp.CategoryName = m.Category.Name
	}
	return resp
}

func toMasterItemResponses(rows []models.MasterItem) []masterItemResponse {
	out := make([]masterItemResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMasterItemResponse(row))
	}
	return out
}

type assignmentResponse struct {
	ID           uuid.UUID        `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	CategoryID   uuid.UUID        `json:"category_id"`
	CategoryName string           `json:"category_name"`
	ItemCode     *string          `json:"item_code,omitempty"`
	IssueDate    types.Date       `json:"issue_date"`
	Size         *string          `json:"size,omitempty"`
	Condition    *enums.Condition `json:"condition,omitempty"`
	Active       bool             `json:"active"`
	Remarks      *string          `json:"remarks,omitempty"`
	MasterItemID *uuid.UUID       `json:"master_item_id,omitempty"`
	BatchID      *uuid.UUID       `json:"batch_id,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func toAssignmentResponse(a models.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		CategoryID:   a.CategoryID,
		CategoryName: a.CategoryName(),
		ItemCode:     a.ItemCode,
		IssueDate:    types.NewDate(a.IssueDate),
		Size:         a.Size,
		Condition:    a.Condition,
		Active:       a.Active,
		Remarks:      a.Remarks,
		MasterItemID: a.MasterItemID,
		BatchID:      a.BatchID,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAssignmentResponses(rows []models.Assignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAssignmentResponse(row))
	}
	return out
}

type stockMovementResponse struct {
	MasterItemID   uuid.UUID               `json:"master_item_id"`
	Type           enums.StockMovementType `json:"type"`
	RequestedDelta int                     `json:"requested_delta"`
	AppliedDelta   int                     `json:"applied_delta"`
	ResultingStock int                     `json:"resulting_stock"`
}

type issuanceResponse struct {
	State       enums.IssuanceState          `json:"state"`
	BatchID     *uuid.UUID                   `json:"batch_id,omitempty"`
	Created     []assignmentResponse         `json:"created,omitempty"`
	Deactivated []assignmentResponse         `json:"deactivated,omitempty"`
	Movements   []stockMovementResponse      `json:"movements,omitempty"`
	Prompts     []issuance.ReplacementPrompt `json:"prompts,omitempty"`
}

func toIssuanceResponse(outcome *issuance.Outcome) issuanceResponse {
	resp := issuanceResponse{
		State:   outcome.State,
		Prompts: outcome.Prompts,
	}
	if outcome.BatchID != uuid.Nil {
		id := outcome.BatchID
		resp.BatchID = &id
	}
	if len(outcome.Created) > 0 {
		resp.Created = toAssignmentResponses(outcome.Created)
	}
	if len(outcome.Deactivated) > 0 {
		resp.Deactivated = toAssignmentResponses(outcome.Deactivated)
	}
	for _, movement := range outcome.Movements {
		resp.Movements = append(resp.Movements, stockMovementResponse{
			MasterItemID:   movement.MasterItemID,
			Type:           movement.Type,
			RequestedDelta: movement.RequestedDelta,
			AppliedDelta:   movement.AppliedDelta,
			ResultingStock: movement.ResultingStock,
		})
	}
	return resp
}

type auditEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	OccurredAt    time.Time `json:"occurred_at"`
	OperationType string    `json:"operation_type"`
	Description   string    `json:"description"`
}

func toAuditEntryResponses(rows []models.AuditEntry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, auditEntryResponse{
			ID:            row.ID,
			OccurredAt:    row.OccurredAt,
			OperationType: row.OperationType,
			Description:   row.Description,
		})
	}
	return out
}
