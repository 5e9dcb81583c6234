// Package seed loads reference data (capacity ceilings, categories, catalog
// entries, employees) from a YAML document.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/internal/employees"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
)

// Document is the seed file layout.
type Document struct {
	Capacity    map[string]int `yaml:"capacity"`
	Categories  []Category     `yaml:"categories"`
	MasterItems []MasterItem   `yaml:"master_items"`
	Employees   []Employee     `yaml:"employees"`
}

type Category struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	CapacityKey string `yaml:"capacity_key"`
	Remarks     string `yaml:"remarks"`
}

type MasterItem struct {
	Code              string `yaml:"code"`
	Name              string `yaml:"name"`
	Category          string `yaml:"category"`
	Size              string `yaml:"size"`
	UnitOfMeasure     string `yaml:"unit_of_measure"`
	LifespanDays      *int   `yaml:"lifespan_days"`
	DefaultRemarks    string `yaml:"default_remarks"`
	LowStockThreshold int    `yaml:"low_stock_threshold"`
	InitialStock      int    `yaml:"initial_stock"`
}

type Employee struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Status  string `yaml:"status"`
	Process string `yaml:"process"`
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(r io.Reader) (*Document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &doc, nil
}

// ParseFile opens and decodes path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

type catalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input catalog.CategoryInput) (*models.Category, error)
	ListMasterItems(ctx context.Context, categoryID *uuid.UUID) ([]models.MasterItem, error)
	CreateMasterItem(ctx context.Context, input catalog.MasterItemInput) (*models.MasterItem, error)
}

type capacityStore interface {
	Snapshot() map[string]int
	SetAll(values map[string]int) error
	Save(ctx context.Context) error
}

type employeeService interface {
	Get(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, input employees.Input) (*models.Employee, error)
}

type LoaderParams struct {
	Logger    *logger.Logger
	Catalog   catalogService
	Capacity  capacityStore
	Employees employeeService
	Audit     audit.Recorder
}

// Loader applies seed documents. Existing rows, matched by category name,
// master item code, or employee id, are left untouched.
type Loader struct {
	logg      *logger.Logger
	catalog   catalogService
	capacity  capacityStore
	employees employeeService
	audit     audit.Recorder
}

func NewLoader(params LoaderParams) (*Loader, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Capacity == nil {
		return nil, fmt.Errorf("capacity store required")
	}
	if params.Employees == nil {
		return nil, fmt.Errorf("employee service required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Loader{
		logg:      params.Logger,
		catalog:   params.Catalog,
		capacity:  params.Capacity,
		employees: params.Employees,
		audit:     params.Audit,
	}, nil
}

// Summary counts what one Apply created.
type Summary struct {
	Capacity    bool
	Categories  int
	MasterItems int
	Employees   int
}

// Apply writes the document. Entries that fail are skipped and their errors
// combined; the rest still apply.
func (l *Loader) Apply(ctx context.Context, doc *Document) (Summary, error) {
	var summary Summary
	if doc == nil {
		return summary, nil
	}
	var errs error

	if len(doc.Capacity) > 0 {
		if err := l.applyCapacity(ctx, doc.Capacity); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			summary.Capacity = true
		}
	}

	categories, err := l.catalog.ListCategories(ctx)
	if err != nil {
		return summary, multierr.Append(errs, err)
	}
	byName := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byName[strings.ToLower(c.Name)] = c
	}
	for _, c := range doc.Categories {
		if _, ok := byName[strings.ToLower(strings.TrimSpace(c.Name))]; ok {
			continue
		}
		created, err := l.catalog.CreateCategory(ctx, categoryInput(c))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category %q: %w", c.Name, err))
			continue
		}
		byName[strings.ToLower(created.Name)] = *created
		summary.Categories++
	}

	items, err := l.catalog.ListMasterItems(ctx, nil)
	if err != nil {
		return summary, multierr.Append(errs, err)
	}
	codes := make(map[string]bool, len(items))
	for _, item := range items {
		codes[item.Code] = true
	}
	for _, item := range doc.MasterItems {
		code := strings.TrimSpace(item.Code)
		if codes[code] {
			continue
		}
		category, ok := byName[strings.ToLower(strings.TrimSpace(item.Category))]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("master item %q: unknown category %q", item.Code, item.Category))
			continue
		}
		if _, err := l.catalog.CreateMasterItem(ctx, masterItemInput(item, category.ID)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("master item %q: %w", item.Code, err))
			continue
		}
		codes[code] = true
		summary.MasterItems++
	}

	for _, e := range doc.Employees {
		created, err := l.applyEmployee(ctx, e)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("employee %q: %w", e.ID, err))
			continue
		}
		if created {
			summary.Employees++
		}
	}

	l.audit.Record(ctx, enums.AuditOperationSeed, fmt.Sprintf(
		"Seed applied: %d categories, %d master items, %d employees, capacity updated: %t",
		summary.Categories, summary.MasterItems, summary.Employees, summary.Capacity))
	l.logg.Info(l.logg.WithFields(ctx, map[string]any{
		"categories":   summary.Categories,
		"master_items": summary.MasterItems,
		"employees":    summary.Employees,
		"failures":     len(multierr.Errors(errs)),
	}), "seed.applied")
	return summary, errs
}

// applyCapacity overlays the document values on the current ceilings so a
// partial capacity block still saves the full set.
func (l *Loader) applyCapacity(ctx context.Context, values map[string]int) error {
	merged := l.capacity.Snapshot()
	for key, value := range values {
		merged[key] = value
	}
	if err := l.capacity.SetAll(merged); err != nil {
		return fmt.Errorf("capacity: %w", err)
	}
	if err := l.capacity.Save(ctx); err != nil {
		return fmt.Errorf("capacity: %w", err)
	}
	return nil
}

func (l *Loader) applyEmployee(ctx context.Context, e Employee) (bool, error) {
	_, err := l.employees.Get(ctx, e.ID)
	if err == nil {
		return false, nil
	}
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		return false, err
	}
	status := enums.EmployeeStatus(strings.TrimSpace(e.Status))
	if status == "" {
		status = enums.EmployeeStatusActive
	}
	input := employees.Input{ID: e.ID, Name: e.Name, Status: status}
	if process := strings.TrimSpace(e.Process); process != "" {
		input.Process = &process
	}
	if _, err := l.employees.Create(ctx, input); err != nil {
		return false, err
	}
	return true, nil
}

func categoryInput(c Category) catalog.CategoryInput {
	input := catalog.CategoryInput{
		Name: strings.TrimSpace(c.Name),
		Kind: enums.CategoryKind(strings.TrimSpace(c.Kind)),
	}
	if key := strings.TrimSpace(c.CapacityKey); key != "" {
		input.CapacityKey = &key
	}
	if remarks := strings.TrimSpace(c.Remarks); remarks != "" {
		input.Remarks = &remarks
	}
	return input
}

func masterItemInput(item MasterItem, categoryID uuid.UUID) catalog.MasterItemInput {
	input := catalog.MasterItemInput{
		Code:              strings.TrimSpace(item.Code),
		Name:              strings.TrimSpace(item.Name),
		CategoryID:        categoryID,
		LifespanDays:      item.LifespanDays,
		LowStockThreshold: item.LowStockThreshold,
		InitialStock:      item.InitialStock,
	}
	input.Size = optional(item.Size)
	input.UnitOfMeasure = optional(item.UnitOfMeasure)
	input.DefaultRemarks = optional(item.DefaultRemarks)
	return input
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
