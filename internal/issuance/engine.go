package issuance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type employeeFinder interface {
	Find(ctx context.Context, id string) (*models.Employee, error)
}

type capacityReader interface {
	ForCategory(category models.Category) int
}

type stockLedger interface {
	Decrement(ctx context.Context, tx *gorm.DB, masterItemID uuid.UUID, qty int, reference string) (*models.StockMovement, error)
}

// EngineParams carries the engine collaborators. Metrics is optional.
type EngineParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Employees   employeeFinder
	Assignments assignments.Repository
	Catalog     catalog.Repository
	Capacity    capacityReader
	Ledger      stockLedger
	Audit       audit.Recorder
	Sessions    SessionStore
	Metrics     *metrics.IssuanceMetrics
}

// Engine decides whether a batch of PPE issuances commits, needs a
// replacement selection, or is rejected, and performs the commit.
type Engine struct {
	logg        *logger.Logger
	db          txRunner
	employees   employeeFinder
	assignments assignments.Repository
	catalog     catalog.Repository
	capacity    capacityReader
	ledger      stockLedger
	audit       audit.Recorder
	sessions    SessionStore
	metrics     *metrics.IssuanceMetrics
	now         func() time.Time
}

// NewEngine validates the collaborators and builds an engine.
func NewEngine(params EngineParams) (*Engine, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Employees == nil:
		return nil, fmt.Errorf("employee repository required")
	case params.Assignments == nil:
		return nil, fmt.Errorf("assignment repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case params.Capacity == nil:
		return nil, fmt.Errorf("capacity store required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("stock ledger required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session store required")
	}
	return &Engine{
		logg:        params.Logger,
		db:          params.DB,
		employees:   params.Employees,
		assignments: params.Assignments,
		catalog:     params.Catalog,
		capacity:    params.Capacity,
		ledger:      params.Ledger,
		audit:       params.Audit,
		sessions:    params.Sessions,
		metrics:     params.Metrics,
		now:         time.Now,
	}, nil
}

// Session returns the workflow position of an employee. Employees without a
// pending decision are idle.
func (e *Engine) Session(ctx context.Context, employeeID string) (*Session, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, errEmployeeNotLoaded(employeeID)
	}
	session, err := e.sessions.Get(ctx, employeeID)
	if err != nil {
		return nil, errRepository(err, "load issuance session")
	}
	if session == nil {
		return idleSession(employeeID), nil
	}
	return session, nil
}

// Withdraw drops a pending replacement decision and returns the employee to idle.
func (e *Engine) Withdraw(ctx context.Context, employeeID string) error {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return errEmployeeNotLoaded(employeeID)
	}
	if err := e.sessions.Delete(ctx, employeeID); err != nil {
		return errRepository(err, "clear issuance session")
	}
	e.logg.Info(e.logg.WithEmployeeID(ctx, employeeID), "issuance.session_withdrawn")
	return nil
}

// Issue runs the decision for one batch. A nil error comes with either a
// committed outcome or one awaiting a replacement selection; rejections are
// returned as typed errors whose reason is available through ReasonOf.
func (e *Engine) Issue(ctx context.Context, req Request) (*Outcome, error) {
	employeeID := strings.TrimSpace(req.EmployeeID)
	ctx = e.logg.WithEmployeeID(ctx, employeeID)

	outcome, err := e.issue(ctx, employeeID, req)
	if err != nil {
		reason := ReasonOf(err)
		e.metrics.ObserveOutcome(enums.IssuanceStateRejected.String(), string(reason))
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDependency {
			e.logg.Error(ctx, "issuance.rejected", err)
		} else {
			e.logg.Warn(e.logg.WithField(ctx, "reason", reason), "issuance.rejected")
		}
		return nil, err
	}
	e.metrics.ObserveOutcome(outcome.State.String(), "")
	return outcome, nil
}

func (e *Engine) issue(ctx context.Context, employeeID string, req Request) (*Outcome, error) {
	if employeeID == "" {
		return nil, errEmployeeNotLoaded(employeeID)
	}
	if _, err := e.employees.Find(ctx, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errEmployeeNotLoaded(employeeID)
		}
		return nil, errRepository(err, "load employee")
	}
	if req.itemCount() == 0 {
		return nil, errNoItemsSelected()
	}

	session, err := e.sessions.Get(ctx, employeeID)
	if err != nil {
		return nil, errRepository(err, "load issuance session")
	}

	plans, err := e.plan(ctx, employeeID, req)
	if err != nil {
		return nil, err
	}

	var prompts []ReplacementPrompt
	for _, plan := range plans {
		needsReplacement, err := e.decide(plan, session)
		if err != nil {
			return nil, err
		}
		if needsReplacement {
			prompts = append(prompts, plan.prompt())
		}
	}

	if len(prompts) > 0 {
		awaiting := &Session{
			EmployeeID: employeeID,
			State:      enums.IssuanceStateAwaitingReplacementSelection,
			Prompts:    prompts,
			UpdatedAt:  e.now().UTC(),
		}
		if err := e.sessions.Put(ctx, awaiting); err != nil {
			return nil, errRepository(err, "store issuance session")
		}
		e.logg.Info(e.logg.WithField(ctx, "categories", len(prompts)), "issuance.awaiting_replacement")
		return &Outcome{State: enums.IssuanceStateAwaitingReplacementSelection, Prompts: prompts}, nil
	}

	outcome, err := e.commit(ctx, employeeID, plans)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Delete(ctx, employeeID); err != nil {
		e.logg.Error(ctx, "issuance.session_clear_failed", err)
	}
	e.recordCommitted(ctx, employeeID, plans, outcome)
	return outcome, nil
}

// plan validates every group and loads what the decision needs. Nothing is
// written here.
func (e *Engine) plan(ctx context.Context, employeeID string, req Request) ([]groupPlan, error) {
	seen := map[uuid.UUID]bool{}
	plans := make([]groupPlan, 0, len(req.Groups))
	for index, group := range req.Groups {
		if len(group.Items) == 0 {
			if group.ReplaceAssignmentID != nil {
				return nil, errValidationFailed("items", index, -1, "replacement requires exactly one new item")
			}
			continue
		}
		if group.CategoryID == uuid.Nil {
			return nil, errValidationFailed("category_id", index, -1, "category is required")
		}
		if seen[group.CategoryID] {
			return nil, errValidationFailed("category_id", index, -1, "category listed more than once")
		}
		seen[group.CategoryID] = true

		category, err := e.catalog.FindCategory(ctx, group.CategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errValidationFailed("category_id", index, -1, "category not found")
			}
			return nil, errRepository(err, "load category")
		}
		catalogItems, err := e.catalog.ListMasterItemsByCategory(ctx, category.ID)
		if err != nil {
			return nil, errRepository(err, "list master items")
		}

		plan := groupPlan{
			index:    index,
			category: *category,
			max:      e.capacity.ForCategory(*category),
			items:    group.Items,
		}
		stockControlled := len(catalogItems) > 0
		if group.MasterItemID != nil {
			plan.masterItem = findMasterItem(catalogItems, *group.MasterItemID)
			if plan.masterItem == nil {
				return nil, errValidationFailed("master_item_id", index, -1, "master item does not belong to the category")
			}
		} else if stockControlled || plan.capacityControlled() {
			return nil, errMasterItemNotSelected(category.Name)
		}

		if err := validateItems(index, category.Kind, plan.masterItem, group.Items); err != nil {
			return nil, err
		}

		plan.active, err = e.assignments.ListActive(ctx, employeeID, category.ID)
		if err != nil {
			return nil, errRepository(err, "list active assignments")
		}

		if group.ReplaceAssignmentID != nil {
			if plan.pending() != 1 {
				return nil, errValidationFailed("items", index, -1, "replacement requires exactly one new item")
			}
			plan.replace = findAssignment(plan.active, *group.ReplaceAssignmentID)
			if plan.replace == nil {
				return nil, errReplacementTargetMissing(category.Name, *group.ReplaceAssignmentID)
			}
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return nil, errNoItemsSelected()
	}
	return plans, nil
}

// decide applies the stock and capacity rules to one group and reports
// whether it needs a replacement selection.
func (e *Engine) decide(plan groupPlan, session *Session) (bool, error) {
	pending := plan.pending()
	if plan.masterItem != nil && plan.masterItem.CurrentStock < pending {
		return false, errInsufficientStock(plan.masterItem.Name, plan.masterItem.CurrentStock, pending)
	}

	if plan.replace != nil {
		// a deactivation is only reachable from a pending prompt for this category
		prompt, ok := session.promptFor(plan.category.ID)
		if !ok || !prompt.hasCandidate(plan.replace.ID) {
			return false, errReplacementTargetMissing(plan.category.Name, plan.replace.ID)
		}
		if plan.capacityControlled() && len(plan.active)-1+pending > plan.max {
			return false, errCapacityExceededUnresolvable(plan.category.Name, len(plan.active), pending, plan.max)
		}
		return false, nil
	}

	active := len(plan.active)
	if !plan.capacityControlled() || active+pending <= plan.max {
		return false, nil
	}
	if pending == 1 && active+pending-plan.max == 1 {
		return true, nil
	}
	return false, errCapacityExceededUnresolvable(plan.category.Name, active, pending, plan.max)
}

// commit writes the whole batch in one transaction: deactivations, then
// insertions, then one decrement per master item.
func (e *Engine) commit(ctx context.Context, employeeID string, plans []groupPlan) (*Outcome, error) {
	batchID := uuid.New()
	outcome := &Outcome{State: enums.IssuanceStateCommitted, BatchID: batchID}

	attempted := 0
	for _, plan := range plans {
		attempted += plan.pending()
		if plan.replace != nil {
			attempted++
		}
	}

	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := e.assignments.WithTx(tx)
		catalogRepo := e.catalog.WithTx(tx)
		succeeded := 0

		for _, plan := range plans {
			if plan.replace == nil {
				continue
			}
			rows, err := repo.Deactivate(ctx, plan.replace.ID)
			if err != nil {
				return errPartialCommitFailure(err, succeeded, attempted)
			}
			if rows == 0 {
				return errPartialCommitFailure(nil, succeeded, attempted)
			}
			succeeded++
			deactivated := *plan.replace
			deactivated.Active = false
			outcome.Deactivated = append(outcome.Deactivated, deactivated)
		}

		for _, plan := range plans {
			for _, item := range plan.items {
				row := newAssignment(employeeID, batchID, plan, item)
				if err := repo.Create(ctx, row); err != nil {
					return errPartialCommitFailure(err, succeeded, attempted)
				}
				succeeded++
				row.Category = &plan.category
				outcome.Created = append(outcome.Created, *row)
			}
		}

		for _, plan := range plans {
			if plan.masterItem == nil {
				continue
			}
			current, err := catalogRepo.FindMasterItem(ctx, plan.masterItem.ID)
			if err != nil {
				return errRepository(err, "reload master item")
			}
			if current.CurrentStock < plan.pending() {
				return errInsufficientStock(current.Name, current.CurrentStock, plan.pending())
			}
			movement, err := e.ledger.Decrement(ctx, tx, plan.masterItem.ID, plan.pending(), batchID.String())
			if err != nil {
				return errRepository(err, "decrement stock")
			}
			outcome.Movements = append(outcome.Movements, *movement)
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errRepository(err, "commit issuance batch")
	}
	return outcome, nil
}

func newAssignment(employeeID string, batchID uuid.UUID, plan groupPlan, item ItemRequest) *models.Assignment {
	row := &models.Assignment{
		EmployeeID: employeeID,
		CategoryID: plan.category.ID,
		ItemCode:   optionalString(item.ItemCode),
		IssueDate:  item.IssueDate.UTC(),
		Size:       optionalString(item.Size),
		Active:     true,
		Remarks:    optionalString(item.Remarks),
		BatchID:    &batchID,
	}
	if item.Condition != "" {
		condition := item.Condition
		row.Condition = &condition
	}
	if plan.masterItem != nil {
		id := plan.masterItem.ID
		row.MasterItemID = &id
		if masterItemHasSize(plan.masterItem) {
			size := strings.TrimSpace(*plan.masterItem.Size)
			row.Size = &size
		}
		if row.Remarks == nil && plan.masterItem.DefaultRemarks != nil {
			remarks := *plan.masterItem.DefaultRemarks
			row.Remarks = &remarks
		}
	}
	return row
}

// recordCommitted writes one audit entry per domain event and updates metrics.
func (e *Engine) recordCommitted(ctx context.Context, employeeID string, plans []groupPlan, outcome *Outcome) {
	for _, row := range outcome.Deactivated {
		e.audit.Record(ctx, enums.AuditOperationReplace,
			fmt.Sprintf("Deactivated %s %s of employee %s for replacement", row.CategoryName(), describe(row), employeeID))
	}
	for _, row := range outcome.Created {
		e.audit.Record(ctx, enums.AuditOperationIssue,
			fmt.Sprintf("Issued %s %s to employee %s", row.CategoryName(), describe(row), employeeID))
	}
	for _, plan := range plans {
		e.metrics.AddUnits(plan.category.Name, plan.pending())
		if plan.masterItem == nil {
			continue
		}
		e.audit.Record(ctx, enums.AuditOperationStockDecrement,
			fmt.Sprintf("Stock of %s (%s) reduced by %d", plan.masterItem.Name, plan.masterItem.Code, plan.pending()))
	}
	logCtx := e.logg.WithFields(ctx, map[string]any{
		"batch_id":    outcome.BatchID.String(),
		"created":     len(outcome.Created),
		"deactivated": len(outcome.Deactivated),
	})
	e.logg.Info(logCtx, "issuance.committed")
}

func describe(row models.Assignment) string {
	parts := []string{}
	if row.ItemCode != nil {
		parts = append(parts, *row.ItemCode)
	}
	if row.Size != nil {
		parts = append(parts, "size "+*row.Size)
	}
	if row.Condition != nil {
		parts = append(parts, row.Condition.String())
	}
	if len(parts) == 0 {
		return row.ID.String()
	}
	return strings.Join(parts, ", ")
}

func findMasterItem(items []models.MasterItem, id uuid.UUID) *models.MasterItem {
	for i := range items {
		if items[i].ID == id {
			item := items[i]
			return &item
		}
	}
	return nil
}

func findAssignment(rows []models.Assignment, id uuid.UUID) *models.Assignment {
	for i := range rows {
		if rows[i].ID == id {
			row := rows[i]
			return &row
		}
	}
	return nil
}
