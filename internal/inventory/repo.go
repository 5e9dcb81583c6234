package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
)

// Repository manages the stock counters and their movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMasterItem(ctx context.Context, id uuid.UUID) (*models.MasterItem, error)
	ListMasterItems(ctx context.Context) ([]models.MasterItem, error)
	ListLowStock(ctx context.Context) ([]models.MasterItem, error)
	DecrementFloored(ctx context.Context, id uuid.UUID, qty int) (int64, error)
	Increment(ctx context.Context, id uuid.UUID, qty int) (int64, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) (int64, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, masterItemID uuid.UUID) ([]models.StockMovement, error)
	MovementTotals(ctx context.Context) (map[uuid.UUID]MovementTotal, error)
}

// MovementTotal aggregates the ledger rows of one master item.
type MovementTotal struct {
	Requested int
	Applied   int
	Count     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindMasterItem(ctx context.Context, id uuid.UUID) (*models.MasterItem, error) {
	var item models.MasterItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListMasterItems(ctx context.Context) ([]models.MasterItem, error) {
	var items []models.MasterItem
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListLowStock(ctx context.Context) ([]models.MasterItem, error) {
	var items []models.MasterItem
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("current_stock <= low_stock_threshold").
		Order("current_stock ASC, code ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementFloored lowers the counter by qty without letting it drop below zero.
func (r *repository) DecrementFloored(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE master_items
		 SET current_stock = CASE WHEN current_stock >= ? THEN current_stock - ? ELSE 0 END,
		     updated_at = ?
		 WHERE id = ?`,
		qty, qty, time.Now().UTC(), id,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) Increment(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE master_items SET current_stock = current_stock + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), id,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) SetStock(ctx context.Context, id uuid.UUID, stock int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE master_items SET current_stock = ?, updated_at = ? WHERE id = ?`,
		stock, time.Now().UTC(), id,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, masterItemID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("master_item_id = ?", masterItemID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) MovementTotals(ctx context.Context) (map[uuid.UUID]MovementTotal, error) {
	var rows []struct {
		MasterItemID uuid.UUID
		Requested    int
		Applied      int
		Count        int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("master_item_id, COALESCE(SUM(requested_delta), 0) AS requested, COALESCE(SUM(applied_delta), 0) AS applied, COUNT(*) AS count").
		Group("master_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[uuid.UUID]MovementTotal, len(rows))
	for _, row := range rows {
		totals[row.MasterItemID] = MovementTotal{Requested: row.Requested, Applied: row.Applied, Count: row.Count}
	}
	return totals, nil
}
