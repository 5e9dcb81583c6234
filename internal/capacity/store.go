package capacity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

// Capacity keys link a category to its per-employee ceiling.
const (
	KeyMaxActiveSuits       = "max_active_suits"
	KeyMaxActiveHats        = "max_active_hats"
	KeyMaxActiveSafetyShoes = "max_active_safety_shoes"
	KeyMaxActiveCanvasShoes = "max_active_canvas_shoes"
)

var builtinDefaults = map[string]int{
	KeyMaxActiveSuits:       3,
	KeyMaxActiveHats:        3,
	KeyMaxActiveSafetyShoes: 1,
	KeyMaxActiveCanvasShoes: 1,
}

// Defaults returns a copy of the built-in ceilings.
func Defaults() map[string]int {
	out := make(map[string]int, len(builtinDefaults))
	for k, v := range builtinDefaults {
		out[k] = v
	}
	return out
}

// Keys lists the known capacity keys in stable order.
func Keys() []string {
	keys := make([]string, 0, len(builtinDefaults))
	for k := range builtinDefaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key names one of the capacity ceilings.
func IsKnownKey(key string) bool {
	_, ok := builtinDefaults[key]
	return ok
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store holds the capacity ceilings for the process. Reads are served from
// memory; Load and Save are the only storage boundaries.
type Store struct {
	mu     sync.RWMutex
	values map[string]int
	repo   Repository
	tx     txRunner
}

// NewStore builds a store primed with the built-in defaults.
func NewStore(repo Repository, tx txRunner) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Store{values: Defaults(), repo: repo, tx: tx}, nil
}

// Get returns the configured ceiling for key. Unknown keys are uncontrolled.
func (s *Store) Get(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return builtinDefaults[key]
}

// ForCategory returns the ceiling that applies to category, 0 when the
// category carries no capacity key.
func (s *Store) ForCategory(category models.Category) int {
	if category.CapacityKey == nil {
		return 0
	}
	key := strings.TrimSpace(*category.CapacityKey)
	if key == "" {
		return 0
	}
	return s.Get(key)
}

// Snapshot returns a copy of every ceiling.
func (s *Store) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SetAll replaces every ceiling at once. The map must carry each known key
// with a non-negative value; nothing changes when validation fails.
func (s *Store) SetAll(values map[string]int) error {
	if err := validateValues(values); err != nil {
		return err
	}
	next := make(map[string]int, len(values))
	for k, v := range values {
		next[k] = v
	}
	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	return nil
}

// RestoreDefaults resets the in-memory ceilings. Callers must Save to persist.
func (s *Store) RestoreDefaults() {
	s.mu.Lock()
	s.values = Defaults()
	s.mu.Unlock()
}

// Load replaces the in-memory ceilings with persisted values. Keys missing
// from storage keep their built-in default; unknown rows are ignored.
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load capacity settings")
	}
	next := Defaults()
	for _, row := range rows {
		if !IsKnownKey(row.Key) || row.Value < 0 {
			continue
		}
		next[row.Key] = row.Value
	}
	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	return nil
}

// Save persists the full set of ceilings in one transaction.
func (s *Store) Save(ctx context.Context) error {
	snapshot := s.Snapshot()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, key := range Keys() {
			if err := repo.Upsert(ctx, key, snapshot[key]); err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save capacity settings")
	}
	return nil
}

func validateValues(values map[string]int) error {
	var missing, unknown, negative []string
	for key, v := range values {
		if !IsKnownKey(key) {
			unknown = append(unknown, key)
			continue
		}
		if v < 0 {
			negative = append(negative, key)
		}
	}
	for _, key := range Keys() {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 && len(unknown) == 0 && len(negative) == 0 {
		return nil
	}
	sort.Strings(unknown)
	sort.Strings(negative)
	details := map[string]any{}
	if len(missing) > 0 {
		details["missing"] = missing
	}
	if len(unknown) > 0 {
		details["unknown"] = unknown
	}
	if len(negative) > 0 {
		details["negative"] = negative
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "capacity settings must include every key with a non-negative value").
		WithDetails(details)
}
