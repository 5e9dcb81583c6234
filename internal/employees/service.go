package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

const defaultSearchLimit = 50

// Service manages the employee master data.
type Service interface {
	List(ctx context.Context) ([]models.Employee, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, input Input) (*models.Employee, error)
	Update(ctx context.Context, id string, input Input) (*models.Employee, error)
	Delete(ctx context.Context, id string) error
	SearchByName(ctx context.Context, fragment string) ([]models.Employee, error)
	FindByItemCode(ctx context.Context, itemCode string) ([]models.Employee, error)
}

// Input carries the writable employee fields. ID is ignored on update.
type Input struct {
	ID              string               `json:"id" validate:"omitempty,max=64"`
	Name            string               `json:"name" validate:"required,max=200"`
	Status          enums.EmployeeStatus `json:"status" validate:"required"`
	EntryDate       *time.Time           `json:"entry_date,omitempty"`
	Process         *string              `json:"process,omitempty"`
	Remarks         *string              `json:"remarks,omitempty"`
	ClothesLocker1F *string              `json:"clothes_locker_1f,omitempty"`
	ShoesLocker1F   *string              `json:"shoes_locker_1f,omitempty"`
	ClothesLocker2F *string              `json:"clothes_locker_2f,omitempty"`
	ShoesLocker2F   *string              `json:"shoes_locker_2f,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        Repository
	assignments assignments.Repository
	audit       audit.Recorder
	tx          txRunner
}

// NewService wires the employee service.
func NewService(repo Repository, assignmentRepo assignments.Repository, recorder audit.Recorder, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if assignmentRepo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, assignments: assignmentRepo, audit: recorder, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	employee, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	return employee, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Employee, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	employee := &models.Employee{ID: id}
	if err := applyInput(employee, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "employee id already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create employee")
	}
	s.audit.Record(ctx, enums.AuditOperationAddEmployee, fmt.Sprintf("Added employee %s (%s)", employee.ID, employee.Name))
	return employee, nil
}

func (s *service) Update(ctx context.Context, id string, input Input) (*models.Employee, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(employee, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update employee")
	}
	s.audit.Record(ctx, enums.AuditOperationEditEmployee, fmt.Sprintf("Edited employee %s (%s)", employee.ID, employee.Name))
	return s.Get(ctx, employee.ID)
}

// Delete removes the employee together with every assignment they hold.
func (s *service) Delete(ctx context.Context, id string) error {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	var removed int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.assignments.WithTx(tx).DeleteByEmployee(ctx, employee.ID)
		if err != nil {
			return err
		}
		removed = n
		rows, err := s.repo.WithTx(tx).Delete(ctx, employee.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete employee")
	}
	s.audit.Record(ctx, enums.AuditOperationDeleteEmployee,
		fmt.Sprintf("Deleted employee %s (%s) and %d assignment(s)", employee.ID, employee.Name, removed))
	return nil
}

func (s *service) SearchByName(ctx context.Context, fragment string) ([]models.Employee, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	rows, err := s.repo.SearchByName(ctx, fragment, defaultSearchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search employees")
	}
	return rows, nil
}

// FindByItemCode returns every employee who holds or held the given unit.
func (s *service) FindByItemCode(ctx context.Context, itemCode string) ([]models.Employee, error) {
	itemCode = strings.TrimSpace(itemCode)
	if itemCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code is required")
	}
	ids, err := s.assignments.EmployeeIDsByItemCode(ctx, itemCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup item code")
	}
	rows, err := s.repo.FindMany(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employees")
	}
	return rows, nil
}

func applyInput(employee *models.Employee, input Input) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid employee status").
			WithDetails(map[string]any{"status": input.Status})
	}
	employee.Name = name
	employee.Status = input.Status
	employee.EntryDate = input.EntryDate
	employee.Process = trimmedOrNil(input.Process)
	employee.Remarks = trimmedOrNil(input.Remarks)
	employee.ClothesLocker1F = trimmedOrNil(input.ClothesLocker1F)
	employee.ShoesLocker1F = trimmedOrNil(input.ShoesLocker1F)
	employee.ClothesLocker2F = trimmedOrNil(input.ClothesLocker2F)
	employee.ShoesLocker2F = trimmedOrNil(input.ShoesLocker2F)
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
