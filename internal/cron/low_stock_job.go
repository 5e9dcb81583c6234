package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
)

type lowStockLister interface {
	LowStock(ctx context.Context) ([]models.MasterItem, error)
}

type LowStockJobParams struct {
	Logger  *logger.Logger
	Ledger  lowStockLister
	Metrics *metrics.InventoryMetrics
}

func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &lowStockJob{logg: params.Logger, ledger: params.Ledger, metrics: params.Metrics}, nil
}

type lowStockJob struct {
	logg    *logger.Logger
	ledger  lowStockLister
	metrics *metrics.InventoryMetrics
}

func (j *lowStockJob) Name() string { return "low-stock" }

func (j *lowStockJob) Run(ctx context.Context) error {
	items, err := j.ledger.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	levels := make(map[string]int, len(items))
	for _, item := range items {
		levels[item.Code] = item.CurrentStock
		category := ""
		if item.Category != nil {
			category = item.Category.Name
		}
		itemCtx := j.logg.WithFields(ctx, map[string]any{
			"code":          item.Code,
			"category":      category,
			"current_stock": item.CurrentStock,
			"threshold":     item.LowStockThreshold,
		})
		j.logg.Warn(itemCtx, "inventory.low_stock")
	}
	j.metrics.SetLowStock(levels)
	j.logg.Info(j.logg.WithField(ctx, "low_stock_items", len(items)), "low stock scan complete")
	return nil
}
