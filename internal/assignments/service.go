package assignments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

// Service covers explicit maintenance of issuance records outside the
// issuance workflow.
type Service interface {
	ListForEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]models.Assignment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Return(ctx context.Context, id uuid.UUID, remarks string) (*models.Assignment, error)
}

// UpdateInput holds the editable fields of an assignment. Nil leaves a field as is.
type UpdateInput struct {
	ItemCode  *string          `json:"item_code,omitempty"`
	IssueDate *time.Time       `json:"issue_date,omitempty"`
	Size      *string          `json:"size,omitempty"`
	Condition *enums.Condition `json:"condition,omitempty"`
	Active    *bool            `json:"active,omitempty"`
	Remarks   *string          `json:"remarks,omitempty"`
}

type service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService wires the assignment maintenance service.
func NewService(repo Repository, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, audit: recorder}, nil
}

func (s *service) ListForEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]models.Assignment, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	rows, err := s.repo.ListByEmployee(ctx, employeeID, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	row, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Assignment, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(row, input); err != nil {
		return nil, err
	}
	if _, err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
	}
	s.audit.Record(ctx, enums.AuditOperationEditAssignment,
		fmt.Sprintf("Edited %s assignment %s of employee %s", row.CategoryName(), describeItem(row), row.EmployeeID))
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete assignment")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	s.audit.Record(ctx, enums.AuditOperationDeleteAssignment,
		fmt.Sprintf("Deleted %s assignment %s of employee %s", row.CategoryName(), describeItem(row), row.EmployeeID))
	return nil
}

// Return deactivates an assignment without issuing a replacement.
func (s *service) Return(ctx context.Context, id uuid.UUID, remarks string) (*models.Assignment, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !row.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is already inactive")
	}
	if note := strings.TrimSpace(remarks); note != "" {
		row.Remarks = &note
		if _, err := s.repo.Update(ctx, row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment remarks")
		}
	}
	affected, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate assignment")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is already inactive")
	}
	s.audit.Record(ctx, enums.AuditOperationReturn,
		fmt.Sprintf("Returned %s %s from employee %s", row.CategoryName(), describeItem(row), row.EmployeeID))
	return s.Get(ctx, id)
}

func applyUpdate(row *models.Assignment, input UpdateInput) error {
	if input.ItemCode != nil {
		row.ItemCode = trimmedOrNil(*input.ItemCode)
	}
	if input.IssueDate != nil {
		if input.IssueDate.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "issue_date cannot be empty")
		}
		row.IssueDate = *input.IssueDate
	}
	if input.Size != nil {
		row.Size = trimmedOrNil(*input.Size)
	}
	if input.Condition != nil {
		if !input.Condition.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid condition").
				WithDetails(map[string]any{"condition": *input.Condition})
		}
		condition := *input.Condition
		row.Condition = &condition
	}
	if input.Active != nil {
		row.Active = *input.Active
	}
	if input.Remarks != nil {
		row.Remarks = trimmedOrNil(*input.Remarks)
	}
	return nil
}

func describeItem(row *models.Assignment) string {
	if row.ItemCode != nil && *row.ItemCode != "" {
		return *row.ItemCode
	}
	if row.Size != nil && *row.Size != "" {
		return "size " + *row.Size
	}
	return row.ID.String()
}

func trimmedOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
