package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Drift describes a master item whose counter disagrees with its movements,
// or whose decrements were clipped by the zero floor.
type Drift struct {
	MasterItemID uuid.UUID `json:"master_item_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	CurrentStock int       `json:"current_stock"`
	LedgerStock  int       `json:"ledger_stock"`
	Difference   int       `json:"difference"`
	ClippedUnits int       `json:"clipped_units"`
}

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Checked int     `json:"checked"`
	Drifts  []Drift `json:"drifts"`
}

// Ledger owns every mutation of master item stock counters. Each mutation
// writes a movement row in the same transaction. A nil tx makes the ledger
// open its own transaction.
type Ledger struct {
	repo Repository
	tx   txRunner
}

// NewLedger wires a ledger with its repository and transaction runner.
func NewLedger(repo Repository, tx txRunner) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Ledger{repo: repo, tx: tx}, nil
}

// Decrement reduces stock by qty, floored at zero. The returned movement
// carries both the requested and the applied delta.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, masterItemID uuid.UUID, qty int, reference string) (*models.StockMovement, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}
	return l.mutate(ctx, tx, masterItemID, enums.StockMovementTypeIssue, -qty, reference,
		func(repo Repository) (int64, error) { return repo.DecrementFloored(ctx, masterItemID, qty) })
}

// Receive adds qty units to stock.
func (l *Ledger) Receive(ctx context.Context, tx *gorm.DB, masterItemID uuid.UUID, qty int, reference string) (*models.StockMovement, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "received quantity must be positive")
	}
	return l.mutate(ctx, tx, masterItemID, enums.StockMovementTypeReceipt, qty, reference,
		func(repo Repository) (int64, error) { return repo.Increment(ctx, masterItemID, qty) })
}

// Correct overwrites stock with a counted value.
func (l *Ledger) Correct(ctx context.Context, tx *gorm.DB, masterItemID uuid.UUID, stock int, reference string) (*models.StockMovement, error) {
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "corrected stock must be non-negative")
	}
	var movement *models.StockMovement
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		before, err := repo.FindMasterItem(ctx, masterItemID)
		if err != nil {
			return err
		}
		delta := stock - before.CurrentStock
		movement, err = l.apply(ctx, repo, masterItemID, enums.StockMovementTypeCorrection, delta, reference,
			func(repo Repository) (int64, error) { return repo.SetStock(ctx, masterItemID, stock) })
		return err
	})
	if err != nil {
		return nil, mapError(err, "correct stock")
	}
	return movement, nil
}

// Reconcile compares every counter with the sum of its applied movements.
func (l *Ledger) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	items, err := l.repo.ListMasterItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list master items")
	}
	totals, err := l.repo.MovementTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock movements")
	}

	report := &ReconcileReport{Checked: len(items)}
	for _, item := range items {
		total := totals[item.ID]
		drift := Drift{
			MasterItemID: item.ID,
			Code:         item.Code,
			Name:         item.Name,
			CurrentStock: item.CurrentStock,
			LedgerStock:  total.Applied,
			Difference:   item.CurrentStock - total.Applied,
			ClippedUnits: total.Applied - total.Requested,
		}
		if drift.Difference != 0 || drift.ClippedUnits != 0 {
			report.Drifts = append(report.Drifts, drift)
		}
	}
	return report, nil
}

// LowStock lists master items at or below their threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]models.MasterItem, error) {
	items, err := l.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock items")
	}
	return items, nil
}

// Movements returns the ledger rows of one master item, oldest first.
func (l *Ledger) Movements(ctx context.Context, masterItemID uuid.UUID) ([]models.StockMovement, error) {
	movements, err := l.repo.ListMovements(ctx, masterItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}

func (l *Ledger) mutate(
	ctx context.Context,
	tx *gorm.DB,
	masterItemID uuid.UUID,
	movementType enums.StockMovementType,
	requested int,
	reference string,
	write func(Repository) (int64, error),
) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		var err error
		movement, err = l.apply(ctx, l.repo.WithTx(tx), masterItemID, movementType, requested, reference, write)
		return err
	})
	if err != nil {
		return nil, mapError(err, string(movementType)+" stock")
	}
	return movement, nil
}

func (l *Ledger) apply(
	ctx context.Context,
	repo Repository,
	masterItemID uuid.UUID,
	movementType enums.StockMovementType,
	requested int,
	reference string,
	write func(Repository) (int64, error),
) (*models.StockMovement, error) {
	before, err := repo.FindMasterItem(ctx, masterItemID)
	if err != nil {
		return nil, err
	}
	rows, err := write(repo)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	after, err := repo.FindMasterItem(ctx, masterItemID)
	if err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		MasterItemID:   masterItemID,
		Type:           movementType,
		RequestedDelta: requested,
		AppliedDelta:   after.CurrentStock - before.CurrentStock,
		ResultingStock: after.CurrentStock,
	}
	if ref := strings.TrimSpace(reference); ref != "" {
		movement.Reference = &ref
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	return movement, nil
}

func (l *Ledger) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return l.tx.WithTx(ctx, fn)
}

func mapError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "master item not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
