package controllers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/angelmondragon/ppekeeper-backend/api/responses"
	"github.com/angelmondragon/ppekeeper-backend/api/validators"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/capacity"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
)

// CapacitySettings is the capacity store surface the settings routes use.
type CapacitySettings interface {
	Snapshot() map[string]int
	SetAll(values map[string]int) error
	Save(ctx context.Context) error
	RestoreDefaults()
}

type capacityRequest struct {
	Values map[string]int `json:"values" validate:"required"`
}

type capacityResponse struct {
	Values    map[string]int `json:"values"`
	Defaults  map[string]int `json:"defaults"`
	Persisted bool           `json:"persisted"`
}

func newCapacityResponse(store CapacitySettings, persisted bool) capacityResponse {
	return capacityResponse{
		Values:    store.Snapshot(),
		Defaults:  capacity.Defaults(),
		Persisted: persisted,
	}
}

// CapacityGet reports the live ceilings next to the built-in defaults.
func CapacityGet(store CapacitySettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, newCapacityResponse(store, true))
	}
}

// CapacityUpdate replaces and persists every ceiling. A failed save rolls the
// in-memory values back so the process never serves unsaved ceilings.
func CapacityUpdate(store CapacitySettings, recorder audit.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload capacityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		previous := store.Snapshot()
		if err := store.SetAll(payload.Values); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Save(r.Context()); err != nil {
			if rollbackErr := store.SetAll(previous); rollbackErr != nil && logg != nil {
				logg.Error(r.Context(), "settings.capacity_rollback_failed", rollbackErr)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recorder.Record(r.Context(), enums.AuditOperationSaveSettings, describeCapacity(payload.Values))
		responses.WriteSuccess(w, newCapacityResponse(store, true))
	}
}

// CapacityRestoreDefaults resets the in-memory ceilings only; a following
// PUT persists them.
func CapacityRestoreDefaults(store CapacitySettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.RestoreDefaults()
		if logg != nil {
			logg.Info(r.Context(), "settings.capacity_defaults_restored")
		}
		responses.WriteSuccess(w, newCapacityResponse(store, false))
	}
}

func describeCapacity(values map[string]int) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, values[key]))
	}
	return "Saved capacity settings: " + strings.Join(parts, ", ")
}
