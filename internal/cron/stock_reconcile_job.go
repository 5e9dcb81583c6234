package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/inventory"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
)

type stockReconciler interface {
	Reconcile(ctx context.Context) (*inventory.ReconcileReport, error)
}

type StockReconcileJobParams struct {
	Logger  *logger.Logger
	Ledger  stockReconciler
	Audit   audit.Recorder
	Metrics *metrics.InventoryMetrics
}

func NewStockReconcileJob(params StockReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &stockReconcileJob{
		logg:    params.Logger,
		ledger:  params.Ledger,
		audit:   params.Audit,
		metrics: params.Metrics,
	}, nil
}

type stockReconcileJob struct {
	logg    *logger.Logger
	ledger  stockReconciler
	audit   audit.Recorder
	metrics *metrics.InventoryMetrics
}

func (j *stockReconcileJob) Name() string { return "stock-reconcile" }

// Run compares every stock counter with its movement history. Counter drift
// fails the run, one error per item; floor clipping is only reported.
func (j *stockReconcileJob) Run(ctx context.Context) error {
	report, err := j.ledger.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("stock reconcile: %w", err)
	}

	var errs error
	drift := make(map[string]int, len(report.Drifts))
	for _, d := range report.Drifts {
		drift[d.Code] = d.Difference
		itemCtx := j.logg.WithFields(ctx, map[string]any{
			"master_item_id": d.MasterItemID.String(),
			"code":           d.Code,
			"current_stock":  d.CurrentStock,
			"ledger_stock":   d.LedgerStock,
			"difference":     d.Difference,
			"clipped_units":  d.ClippedUnits,
		})
		j.logg.Warn(itemCtx, "inventory.stock_drift")
		j.audit.Record(ctx, enums.AuditOperationStockDrift, describeDrift(d))
		if d.Difference != 0 {
			errs = multierr.Append(errs, fmt.Errorf("master item %s: counter %d differs from ledger %d",
				d.Code, d.CurrentStock, d.LedgerStock))
		}
	}
	j.metrics.SetDrift(drift)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked": report.Checked,
		"drifted": len(report.Drifts),
	})
	j.logg.Info(logCtx, "stock reconcile complete")
	return errs
}

func describeDrift(d inventory.Drift) string {
	if d.Difference == 0 {
		return fmt.Sprintf("%s (%s): %d unit(s) were not deducted because stock was already at zero",
			d.Name, d.Code, d.ClippedUnits)
	}
	return fmt.Sprintf("%s (%s): stock counter %d, movement ledger %d, difference %d",
		d.Name, d.Code, d.CurrentStock, d.LedgerStock, d.Difference)
}
