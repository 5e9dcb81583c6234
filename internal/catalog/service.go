package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/capacity"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

// Service manages the PPE catalog: categories, master items, and their stock.
type Service interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListMasterItems(ctx context.Context, categoryID *uuid.UUID) ([]models.MasterItem, error)
	GetMasterItem(ctx context.Context, id uuid.UUID) (*models.MasterItem, error)
	CreateMasterItem(ctx context.Context, input MasterItemInput) (*models.MasterItem, error)
	UpdateMasterItem(ctx context.Context, id uuid.UUID, input MasterItemInput) (*models.MasterItem, error)
	DeleteMasterItem(ctx context.Context, id uuid.UUID) error

	ReceiveStock(ctx context.Context, id uuid.UUID, qty int, reference string) (*models.MasterItem, error)
	CorrectStock(ctx context.Context, id uuid.UUID, stock int, reference string) (*models.MasterItem, error)
	LowStock(ctx context.Context) ([]models.MasterItem, error)
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Remarks     *string            `json:"remarks,omitempty"`
	Kind        enums.CategoryKind `json:"kind" validate:"required"`
	CapacityKey *string            `json:"capacity_key,omitempty"`
}

// MasterItemInput carries the writable master item fields. InitialStock is
// only honoured on create.
type MasterItemInput struct {
	Code              string    `json:"code" validate:"required,max=64"`
	Name              string    `json:"name" validate:"required,max=200"`
	CategoryID        uuid.UUID `json:"category_id" validate:"required"`
	Size              *string   `json:"size,omitempty"`
	UnitOfMeasure     *string   `json:"unit_of_measure,omitempty"`
	LifespanDays      *int      `json:"lifespan_days,omitempty" validate:"omitempty,min=0"`
	DefaultRemarks    *string   `json:"default_remarks,omitempty"`
	LowStockThreshold int       `json:"low_stock_threshold" validate:"min=0"`
	InitialStock      int       `json:"initial_stock" validate:"min=0"`
}

type stockLedger interface {
	Receive(ctx context.Context, tx *gorm.DB, masterItemID uuid.UUID, qty int, reference string) (*models.StockMovement, error)
	Correct(ctx context.Context, tx *gorm.DB, masterItemID uuid.UUID, stock int, reference string) (*models.StockMovement, error)
	LowStock(ctx context.Context) ([]models.MasterItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	ledger stockLedger
	audit  audit.Recorder
	tx     txRunner
}

// NewService wires the catalog service.
func NewService(repo Repository, ledger stockLedger, recorder audit.Recorder, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ledger: ledger, audit: recorder, tx: tx}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "load category")
	}
	return category, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	category := &models.Category{}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	s.audit.Record(ctx, enums.AuditOperationAddCategory, fmt.Sprintf("Added category %s (%s)", category.Name, category.Kind))
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "load category")
	}
	previous := category.Name
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	desc := fmt.Sprintf("Updated category %s", category.Name)
	if previous != category.Name {
		desc = fmt.Sprintf("Renamed category %s to %s", previous, category.Name)
	}
	s.audit.Record(ctx, enums.AuditOperationEditCategory, desc)
	return category, nil
}

// DeleteCategory refuses while master items or assignments still reference it.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var name string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		category, err := repo.FindCategory(ctx, id)
		if err != nil {
			return notFoundOr(err, "category not found", "load category")
		}
		name = category.Name

		items, err := repo.CountMasterItems(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count master items")
		}
		if items > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has master items").
				WithDetails(map[string]any{"master_items": items})
		}
		assignments, err := repo.CountAssignments(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count assignments")
		}
		if assignments > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has assignments").
				WithDetails(map[string]any{"assignments": assignments})
		}
		if err := repo.DeleteCategory(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, enums.AuditOperationDeleteCategory, fmt.Sprintf("Deleted category %s", name))
	return nil
}

func (s *service) ListMasterItems(ctx context.Context, categoryID *uuid.UUID) ([]models.MasterItem, error) {
	var (
		items []models.MasterItem
		err   error
	)
	if categoryID != nil {
		items, err = s.repo.ListMasterItemsByCategory(ctx, *categoryID)
	} else {
		items, err = s.repo.ListMasterItems(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list master items")
	}
	return items, nil
}

func (s *service) GetMasterItem(ctx context.Context, id uuid.UUID) (*models.MasterItem, error) {
	item, err := s.repo.FindMasterItem(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "master item not found", "load master item")
	}
	return item, nil
}

func (s *service) CreateMasterItem(ctx context.Context, input MasterItemInput) (*models.MasterItem, error) {
	if input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial_stock must be non-negative")
	}
	item := &models.MasterItem{}
	if err := applyMasterItemInput(item, input); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindCategory(ctx, item.CategoryID); err != nil {
			return categoryReferenceError(err)
		}
		if err := repo.CreateMasterItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "master item code already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create master item")
		}
		if input.InitialStock > 0 {
			if _, err := s.ledger.Receive(ctx, tx, item.ID, input.InitialStock, "opening stock"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, enums.AuditOperationAddMasterItem,
		fmt.Sprintf("Added master item %s (%s) with stock %d", item.Code, item.Name, input.InitialStock))
	return s.GetMasterItem(ctx, item.ID)
}

func (s *service) UpdateMasterItem(ctx context.Context, id uuid.UUID, input MasterItemInput) (*models.MasterItem, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindMasterItem(ctx, id)
		if err != nil {
			return notFoundOr(err, "master item not found", "load master item")
		}
		if err := applyMasterItemInput(item, input); err != nil {
			return err
		}
		if _, err := repo.FindCategory(ctx, item.CategoryID); err != nil {
			return categoryReferenceError(err)
		}
		if err := repo.UpdateMasterItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "master item code already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update master item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, enums.AuditOperationEditMasterItem, fmt.Sprintf("Updated master item %s", strings.TrimSpace(input.Code)))
	return s.GetMasterItem(ctx, id)
}

// DeleteMasterItem removes the entry and clears it from existing assignments,
// which stay on record.
func (s *service) DeleteMasterItem(ctx context.Context, id uuid.UUID) error {
	var (
		code     string
		detached int64
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindMasterItem(ctx, id)
		if err != nil {
			return notFoundOr(err, "master item not found", "load master item")
		}
		code = item.Code
		detached, err = repo.DetachAssignments(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach assignments")
		}
		if err := repo.DeleteMasterItem(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete master item")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, enums.AuditOperationDeleteMasterItem,
		fmt.Sprintf("Deleted master item %s; %d assignment(s) detached", code, detached))
	return nil
}

func (s *service) ReceiveStock(ctx context.Context, id uuid.UUID, qty int, reference string) (*models.MasterItem, error) {
	movement, err := s.ledger.Receive(ctx, nil, id, qty, reference)
	if err != nil {
		return nil, err
	}
	item, err := s.GetMasterItem(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, enums.AuditOperationStockReceipt,
		fmt.Sprintf("Received %d of %s; stock now %d", qty, item.Code, movement.ResultingStock))
	return item, nil
}

func (s *service) CorrectStock(ctx context.Context, id uuid.UUID, stock int, reference string) (*models.MasterItem, error) {
	movement, err := s.ledger.Correct(ctx, nil, id, stock, reference)
	if err != nil {
		return nil, err
	}
	item, err := s.GetMasterItem(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, enums.AuditOperationStockCorrection,
		fmt.Sprintf("Corrected %s stock by %+d to %d", item.Code, movement.AppliedDelta, movement.ResultingStock))
	return item, nil
}

func (s *service) LowStock(ctx context.Context) ([]models.MasterItem, error) {
	return s.ledger.LowStock(ctx)
}

func applyCategoryInput(category *models.Category, input CategoryInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category kind").
			WithDetails(map[string]any{"kind": input.Kind})
	}
	key := trimmedOrNil(input.CapacityKey)
	if key != nil && !capacity.IsKnownKey(*key) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown capacity key").
			WithDetails(map[string]any{"capacity_key": *key, "known": capacity.Keys()})
	}
	category.Name = name
	category.Remarks = trimmedOrNil(input.Remarks)
	category.Kind = input.Kind
	category.CapacityKey = key
	return nil
}

func applyMasterItemInput(item *models.MasterItem, input MasterItemInput) error {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	switch {
	case code == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	case name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case input.CategoryID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	case input.LowStockThreshold < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold must be non-negative")
	case input.LifespanDays != nil && *input.LifespanDays < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "lifespan_days must be non-negative")
	}
	item.Code = code
	item.Name = name
	item.CategoryID = input.CategoryID
	item.Size = trimmedOrNil(input.Size)
	item.UnitOfMeasure = trimmedOrNil(input.UnitOfMeasure)
	item.LifespanDays = input.LifespanDays
	item.DefaultRemarks = trimmedOrNil(input.DefaultRemarks)
	item.LowStockThreshold = input.LowStockThreshold
	return nil
}

func categoryReferenceError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
}

func notFoundOr(err error, notFound, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
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
