package cron

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/ppekeeper-backend/internal/inventory"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
)

type fakeReconciler struct {
	report *inventory.ReconcileReport
	err    error
}

func (f fakeReconciler) Reconcile(context.Context) (*inventory.ReconcileReport, error) {
	return f.report, f.err
}

type fakeLowStock struct {
	items []models.MasterItem
	err   error
}

func (f fakeLowStock) LowStock(context.Context) ([]models.MasterItem, error) {
	return f.items, f.err
}

type recordedAudit struct {
	ops          []enums.AuditOperation
	descriptions []string
}

func (r *recordedAudit) Record(_ context.Context, op enums.AuditOperation, description string) {
	r.ops = append(r.ops, op)
	r.descriptions = append(r.descriptions, description)
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name, code string) (float64, bool) {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if code == "" {
				return metric.GetGauge().GetValue(), true
			}
			for _, label := range metric.GetLabel() {
				if label.GetName() == "code" && label.GetValue() == code {
					return metric.GetGauge().GetValue(), true
				}
			}
		}
	}
	return 0, false
}

func TestStockReconcileJobReportsDrift(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := &recordedAudit{}
	report := &inventory.ReconcileReport{
		Checked: 3,
		Drifts: []inventory.Drift{
			{MasterItemID: uuid.New(), Code: "SUIT-L", Name: "Suit L", CurrentStock: 4, LedgerStock: 6, Difference: -2},
			{MasterItemID: uuid.New(), Code: "HAT-1", Name: "Hat", CurrentStock: 0, LedgerStock: 0, ClippedUnits: 1},
		},
	}
	job, err := NewStockReconcileJob(StockReconcileJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Ledger:  fakeReconciler{report: report},
		Audit:   recorder,
		Metrics: metrics.NewInventoryMetrics(reg),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	err = job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected drift to fail the run")
	}
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected one drift error, got %d: %v", got, err)
	}
	if !strings.Contains(err.Error(), "SUIT-L") {
		t.Fatalf("expected drifted code in error, got %v", err)
	}
	if len(recorder.ops) != 2 || recorder.ops[0] != enums.AuditOperationStockDrift {
		t.Fatalf("expected one audit entry per drift, got %v", recorder.ops)
	}
	if !strings.Contains(recorder.descriptions[1], "not deducted") {
		t.Fatalf("expected clipping description, got %q", recorder.descriptions[1])
	}
	if v, ok := gaugeValue(t, reg, "ppekeeper_inventory_stock_drift", "SUIT-L"); !ok || v != -2 {
		t.Fatalf("expected drift gauge -2, got %v (found=%v)", v, ok)
	}
}

func TestStockReconcileJobCleanRun(t *testing.T) {
	recorder := &recordedAudit{}
	job, err := NewStockReconcileJob(StockReconcileJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Ledger: fakeReconciler{report: &inventory.ReconcileReport{Checked: 5}},
		Audit:  recorder,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
	if len(recorder.ops) != 0 {
		t.Fatalf("expected no audit entries, got %v", recorder.ops)
	}
	if job.Name() != "stock-reconcile" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
}

func TestStockReconcileJobPropagatesLedgerError(t *testing.T) {
	job, _ := NewStockReconcileJob(StockReconcileJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Ledger: fakeReconciler{err: errors.New("db down")},
		Audit:  &recordedAudit{},
	})
	if err := job.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected ledger error, got %v", err)
	}
}

func TestLowStockJobSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	var out bytes.Buffer
	job, err := NewLowStockJob(LowStockJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: &out}),
		Ledger: fakeLowStock{items: []models.MasterItem{
			{Code: "SHOE-42", CurrentStock: 1, LowStockThreshold: 2, Category: &models.Category{Name: "Safety Shoes"}},
			{Code: "HAT-1", CurrentStock: 0, LowStockThreshold: 0},
		}},
		Metrics: metrics.NewInventoryMetrics(reg),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if v, ok := gaugeValue(t, reg, "ppekeeper_inventory_low_stock_items", ""); !ok || v != 2 {
		t.Fatalf("expected 2 low stock items, got %v", v)
	}
	if v, ok := gaugeValue(t, reg, "ppekeeper_inventory_current_stock", "SHOE-42"); !ok || v != 1 {
		t.Fatalf("expected SHOE-42 stock gauge 1, got %v", v)
	}
	if !strings.Contains(out.String(), "inventory.low_stock") {
		t.Fatalf("expected low stock log line")
	}
}

func TestLowStockJobRequiresLedger(t *testing.T) {
	if _, err := NewLowStockJob(LowStockJobParams{Logger: logger.New(logger.Options{Output: &bytes.Buffer{}})}); err == nil {
		t.Fatalf("expected ledger error")
	}
}
