package issuance

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
)

// Request is a batch of physical units to issue to one employee, grouped by
// category.
type Request struct {
	EmployeeID string            `json:"employee_id"`
	Groups     []CategoryRequest `json:"groups" validate:"dive"`
}

// CategoryRequest lists the units requested for one category. MasterItemID is
// mandatory for stock or capacity controlled categories. ReplaceAssignmentID
// answers a replacement prompt.
type CategoryRequest struct {
	CategoryID          uuid.UUID     `json:"category_id" validate:"required"`
	MasterItemID        *uuid.UUID    `json:"master_item_id,omitempty"`
	ReplaceAssignmentID *uuid.UUID    `json:"replace_assignment_id,omitempty"`
	Items               []ItemRequest `json:"items" validate:"dive"`
}

// ItemRequest describes one physical unit.
type ItemRequest struct {
	ItemCode  string          `json:"item_code,omitempty" validate:"max=64"`
	IssueDate *time.Time      `json:"issue_date,omitempty"`
	Size      string          `json:"size,omitempty" validate:"max=32"`
	Condition enums.Condition `json:"condition,omitempty"`
	Remarks   string          `json:"remarks,omitempty" validate:"max=500"`
}

func (r Request) itemCount() int {
	total := 0
	for _, group := range r.Groups {
		total += len(group.Items)
	}
	return total
}

// Outcome is the result of an accepted request: either committed writes or a
// prompt awaiting a replacement selection.
type Outcome struct {
	State       enums.IssuanceState
	BatchID     uuid.UUID
	Created     []models.Assignment
	Deactivated []models.Assignment
	Movements   []models.StockMovement
	Prompts     []ReplacementPrompt
}

// groupPlan is one category group after validation and lookups.
type groupPlan struct {
	index      int
	category   models.Category
	masterItem *models.MasterItem
	max        int
	active     []models.Assignment
	items      []ItemRequest
	replace    *models.Assignment
}

func (g groupPlan) pending() int {
	return len(g.items)
}

func (g groupPlan) capacityControlled() bool {
	return g.max > 0
}

func (g groupPlan) prompt() ReplacementPrompt {
	candidates := make([]Candidate, 0, len(g.active))
	for _, row := range g.active {
		candidates = append(candidates, Candidate{
			AssignmentID: row.ID,
			ItemCode:     row.ItemCode,
			IssueDate:    row.IssueDate,
			Size:         row.Size,
			Condition:    row.Condition,
		})
	}
	return ReplacementPrompt{
		CategoryID:   g.category.ID,
		CategoryName: g.category.Name,
		Max:          g.max,
		Active:       len(g.active),
		Candidates:   candidates,
	}
}

// validateItems applies the per unit rules of the category kind. The master
// item size, when present, replaces the requested size.
func validateItems(index int, kind enums.CategoryKind, masterItem *models.MasterItem, items []ItemRequest) error {
	seen := map[string]bool{}
	for i, item := range items {
		if item.IssueDate == nil || item.IssueDate.IsZero() {
			return errValidationFailed("issue_date", index, i, "issue date is required")
		}
		code := strings.TrimSpace(item.ItemCode)
		if kind.RequiresSerial() {
			if code == "" {
				return errValidationFailed("item_code", index, i, "item code is required")
			}
			if seen[code] {
				return errValidationFailed("item_code", index, i, "item code repeated in batch")
			}
			seen[code] = true
		}
		if kind.RequiresSize() && strings.TrimSpace(item.Size) == "" && !masterItemHasSize(masterItem) {
			return errValidationFailed("size", index, i, "size is required")
		}
		if item.Condition != "" && !item.Condition.IsValid() {
			return errValidationFailed("condition", index, i, "condition must be new or used")
		}
		if kind.RequiresCondition() && item.Condition == "" {
			return errValidationFailed("condition", index, i, "condition is required")
		}
	}
	return nil
}

func masterItemHasSize(item *models.MasterItem) bool {
	return item != nil && item.Size != nil && strings.TrimSpace(*item.Size) != ""
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
