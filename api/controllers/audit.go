package controllers

import (
	"net/http"

	"github.com/angelmondragon/ppekeeper-backend/api/responses"
	"github.com/angelmondragon/ppekeeper-backend/api/validators"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
)

// AuditList serves the audit log, newest first. from and to accept calendar
// dates; to covers its whole day.
func AuditList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDate(r, "from", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 200, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), audit.Filter{
			From:          from,
			To:            to,
			OperationType: validators.SanitizeString(r.URL.Query().Get("type"), 100),
			Limit:         limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, toAuditEntryResponses(rows), limit)
	}
}
