package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
)

// Repository stores issuance records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, employeeID string, categoryID uuid.UUID) ([]models.Assignment, error)
	ListByEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]models.Assignment, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Deactivate(ctx context.Context, id uuid.UUID) (int64, error)
	Update(ctx context.Context, assignment *models.Assignment) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByEmployee(ctx context.Context, employeeID string) (int64, error)
	EmployeeIDsByItemCode(ctx context.Context, itemCode string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an assignment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListActive returns the employee's active assignments in one category, oldest first.
func (r *repository) ListActive(ctx context.Context, employeeID string, categoryID uuid.UUID) ([]models.Assignment, error) {
	var rows []models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("employee_id = ? AND category_id = ? AND active = ?", employeeID, categoryID, true).
		Order("issue_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Where("employee_id = ?", employeeID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.Assignment
	if err := query.Order("issue_date DESC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var row models.Assignment
	if err := r.db.WithContext(ctx).Preload("Category").First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit("Category").Create(assignment).Error
}

// Deactivate flips an active assignment to inactive. Zero rows means the
// assignment is missing or already inactive.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repository) Update(ctx context.Context, assignment *models.Assignment) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]any{
			"item_code":  assignment.ItemCode,
			"issue_date": assignment.IssueDate,
			"size":       assignment.Size,
			"condition":  assignment.Condition,
			"active":     assignment.Active,
			"remarks":    assignment.Remarks,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Assignment{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Assignment{}, "employee_id = ?", employeeID)
	return res.RowsAffected, res.Error
}

func (r *repository) EmployeeIDsByItemCode(ctx context.Context, itemCode string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Distinct().
		Where("item_code = ?", itemCode).
		Order("employee_id ASC").
		Pluck("employee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
