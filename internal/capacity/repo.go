package capacity

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
)

// Repository persists capacity ceilings as settings rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key string, value int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *repository) Upsert(ctx context.Context, key string, value int) error {
	return r.db.WithContext(ctx).Save(&models.Setting{Key: key, Value: value}).Error
}
