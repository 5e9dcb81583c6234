package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/ppekeeper-backend/api/controllers"
	"github.com/angelmondragon/ppekeeper-backend/api/middleware"
	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/internal/employees"
	"github.com/angelmondragon/ppekeeper-backend/pkg/config"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
)

// RouterParams carries everything the HTTP surface is wired to.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Health      map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Issuance    controllers.IssuanceEngine
	Employees   employees.Service
	Assignments assignments.Service
	Catalog     catalog.Service
	Capacity    controllers.CapacitySettings
	Audit       audit.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Health))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", controllers.EmployeeList(p.Employees, logg))
			r.Post("/", controllers.EmployeeCreate(p.Employees, logg))
			r.Get("/search", controllers.EmployeeSearch(p.Employees, logg))
			r.Get("/by-item-code", controllers.EmployeeByItemCode(p.Employees, logg))

			r.Route("/{employeeId}", func(r chi.Router) {
				r.Get("/", controllers.EmployeeGet(p.Employees, logg))
				r.Put("/", controllers.EmployeeUpdate(p.Employees, logg))
				r.Delete("/", controllers.EmployeeDelete(p.Employees, logg))
				r.Get("/assignments", controllers.EmployeeAssignments(p.Assignments, logg))

				r.Post("/issuances", controllers.IssuanceCreate(p.Issuance, logg))
				r.Get("/issuances/session", controllers.IssuanceSession(p.Issuance, logg))
				r.Delete("/issuances/session", controllers.IssuanceWithdraw(p.Issuance, logg))
			})
		})

		r.Route("/assignments/{assignmentId}", func(r chi.Router) {
			r.Put("/", controllers.AssignmentUpdate(p.Assignments, logg))
			r.Delete("/", controllers.AssignmentDelete(p.Assignments, logg))
			r.Post("/return", controllers.AssignmentReturn(p.Assignments, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.CategoryList(p.Catalog, logg))
				r.Post("/", controllers.CategoryCreate(p.Catalog, logg))
				r.Get("/{categoryId}", controllers.CategoryGet(p.Catalog, logg))
				r.Put("/{categoryId}", controllers.CategoryUpdate(p.Catalog, logg))
				r.Delete("/{categoryId}", controllers.CategoryDelete(p.Catalog, logg))
			})
			r.Route("/master-items", func(r chi.Router) {
				r.Get("/", controllers.MasterItemList(p.Catalog, logg))
				r.Post("/", controllers.MasterItemCreate(p.Catalog, logg))
				r.Get("/low-stock", controllers.MasterItemLowStock(p.Catalog, logg))
				r.Get("/{masterItemId}", controllers.MasterItemGet(p.Catalog, logg))
				r.Put("/{masterItemId}", controllers.MasterItemUpdate(p.Catalog, logg))
				r.Delete("/{masterItemId}", controllers.MasterItemDelete(p.Catalog, logg))
				r.Post("/{masterItemId}/stock/receive", controllers.MasterItemReceiveStock(p.Catalog, logg))
				r.Post("/{masterItemId}/stock/correct", controllers.MasterItemCorrectStock(p.Catalog, logg))
			})
		})

		r.Route("/settings/capacity", func(r chi.Router) {
			r.Get("/", controllers.CapacityGet(p.Capacity))
			r.Put("/", controllers.CapacityUpdate(p.Capacity, p.Audit, logg))
			r.Post("/restore-defaults", controllers.CapacityRestoreDefaults(p.Capacity, logg))
		})

		r.Get("/audit", controllers.AuditList(p.Audit, logg))
	})

	return r
}
