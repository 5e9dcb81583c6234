package employees

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
)

// Repository persists employee records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Employee, error)
	Find(ctx context.Context, id string) (*models.Employee, error)
	FindMany(ctx context.Context, ids []string) ([]models.Employee, error)
	SearchByName(ctx context.Context, fragment string, limit int) ([]models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an employee repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.Employee, error) {
	var rows []models.Employee
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Find(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *repository) FindMany(ctx context.Context, ids []string) ([]models.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Employee
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SearchByName(ctx context.Context, fragment string, limit int) ([]models.Employee, error) {
	pattern := "%" + strings.ToLower(fragment) + "%"
	var rows []models.Employee
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *repository) Update(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", employee.ID).
		Updates(map[string]any{
			"name":              employee.Name,
			"status":            employee.Status,
			"entry_date":        employee.EntryDate,
			"process":           employee.Process,
			"remarks":           employee.Remarks,
			"clothes_locker_1f": employee.ClothesLocker1F,
			"shoes_locker_1f":   employee.ShoesLocker1F,
			"clothes_locker_2f": employee.ClothesLocker2F,
			"shoes_locker_2f":   employee.ShoesLocker2F,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Employee{})
	return res.RowsAffected, res.Error
}
