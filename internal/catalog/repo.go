package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
)

// Repository manages categories and master items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CountMasterItems(ctx context.Context, categoryID uuid.UUID) (int64, error)
	CountAssignments(ctx context.Context, categoryID uuid.UUID) (int64, error)

	ListMasterItems(ctx context.Context) ([]models.MasterItem, error)
	ListMasterItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.MasterItem, error)
	FindMasterItem(ctx context.Context, id uuid.UUID) (*models.MasterItem, error)
	FindMasterItemByCode(ctx context.Context, code string) (*models.MasterItem, error)
	CreateMasterItem(ctx context.Context, item *models.MasterItem) error
	UpdateMasterItem(ctx context.Context, item *models.MasterItem) error
	DeleteMasterItem(ctx context.Context, id uuid.UUID) error
	DetachAssignments(ctx context.Context, masterItemID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":         category.Name,
			"remarks":      category.Remarks,
			"kind":         category.Kind,
			"capacity_key": category.CapacityKey,
		}).Error
}

func (r *repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

func (r *repository) CountMasterItems(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MasterItem{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *repository) CountAssignments(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *repository) ListMasterItems(ctx context.Context) ([]models.MasterItem, error) {
	var items []models.MasterItem
	if err := r.db.WithContext(ctx).Preload("Category").Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListMasterItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.MasterItem, error) {
	var items []models.MasterItem
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("code ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindMasterItem(ctx context.Context, id uuid.UUID) (*models.MasterItem, error) {
	var item models.MasterItem
	if err := r.db.WithContext(ctx).Preload("Category").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindMasterItemByCode(ctx context.Context, code string) (*models.MasterItem, error) {
	var item models.MasterItem
	if err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateMasterItem(ctx context.Context, item *models.MasterItem) error {
	return r.db.WithContext(ctx).Omit("Category").Create(item).Error
}

// UpdateMasterItem writes descriptive fields only; the stock counter belongs
// to the inventory ledger.
func (r *repository) UpdateMasterItem(ctx context.Context, item *models.MasterItem) error {
	return r.db.WithContext(ctx).
		Model(&models.MasterItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"code":                item.Code,
			"name":                item.Name,
			"category_id":         item.CategoryID,
			"size":                item.Size,
			"unit_of_measure":     item.UnitOfMeasure,
			"lifespan_days":       item.LifespanDays,
			"default_remarks":     item.DefaultRemarks,
			"low_stock_threshold": item.LowStockThreshold,
		}).Error
}

func (r *repository) DeleteMasterItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MasterItem{}, "id = ?", id).Error
}

// DetachAssignments clears the master item reference on every assignment
// pointing at masterItemID.
func (r *repository) DetachAssignments(ctx context.Context, masterItemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("master_item_id = ?", masterItemID).
		Update("master_item_id", nil)
	return res.RowsAffected, res.Error
}
