package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IssuanceMetrics counts engine outcomes and issued units.
type IssuanceMetrics struct {
	outcomes *prometheus.CounterVec
	units    *prometheus.CounterVec
}

// NewIssuanceMetrics registers the issuance metrics on the provided registerer.
func NewIssuanceMetrics(reg prometheus.Registerer) *IssuanceMetrics {
	if reg == nil {
		return &IssuanceMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issuance_outcomes_total",
		Help:      "Issuance requests by resulting state and rejection reason.",
	}, []string{"state", "reason"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issuance_units_total",
		Help:      "Physical PPE units issued, by category.",
	}, []string{"category"})
	reg.MustRegister(outcomes, units)
	return &IssuanceMetrics{outcomes: outcomes, units: units}
}

// ObserveOutcome records one engine decision. reason is empty unless rejected.
func (m *IssuanceMetrics) ObserveOutcome(state, reason string) {
	if m == nil || m.outcomes == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.outcomes.WithLabelValues(normalizeLabel(state), reason).Inc()
}

// AddUnits records committed units for a category.
func (m *IssuanceMetrics) AddUnits(category string, units int) {
	if m == nil || m.units == nil || units <= 0 {
		return
	}
	m.units.WithLabelValues(normalizeLabel(category)).Add(float64(units))
}

// InventoryMetrics exposes stock health gauges fed by scheduled jobs.
type InventoryMetrics struct {
	lowStock   prometheus.Gauge
	drift      *prometheus.GaugeVec
	stockLevel *prometheus.GaugeVec
}

// NewInventoryMetrics registers the inventory gauges on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_low_stock_items",
		Help:      "Master items at or below their low stock threshold.",
	})
	drift := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_stock_drift",
		Help:      "Difference between recorded stock and the movement ledger, per master item code.",
	}, []string{"code"})
	stockLevel := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_current_stock",
		Help:      "Current stock per low-stock master item code.",
	}, []string{"code"})
	reg.MustRegister(lowStock, drift, stockLevel)
	return &InventoryMetrics{lowStock: lowStock, drift: drift, stockLevel: stockLevel}
}

// SetLowStock records the number of items below threshold and their levels.
func (m *InventoryMetrics) SetLowStock(levels map[string]int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(len(levels)))
	m.stockLevel.Reset()
	for code, stock := range levels {
		m.stockLevel.WithLabelValues(normalizeLabel(code)).Set(float64(stock))
	}
}

// SetDrift replaces the drift gauge with the latest reconcile result.
func (m *InventoryMetrics) SetDrift(drift map[string]int) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.Reset()
	for code, delta := range drift {
		m.drift.WithLabelValues(normalizeLabel(code)).Set(float64(delta))
	}
}
