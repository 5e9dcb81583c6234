package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
)

const defaultListLimit = 500

// Recorder is the append-only action log consumed by the domain services.
type Recorder interface {
	Record(ctx context.Context, op enums.AuditOperation, description string)
}

// Service records and lists audit entries.
type Service interface {
	Recorder
	List(ctx context.Context, filter Filter) ([]models.AuditEntry, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Record writes an entry and never fails the caller; storage errors are logged.
func (s *service) Record(ctx context.Context, op enums.AuditOperation, description string) {
	entry := &models.AuditEntry{
		OccurredAt:    s.now().UTC(),
		OperationType: op.String(),
		Description:   description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"operation_type": op.String(),
			"description":    description,
		})
		s.logg.Error(logCtx, "audit.record_failed", err)
	}
}

// List returns matching entries, newest first.
func (s *service) List(ctx context.Context, filter Filter) ([]models.AuditEntry, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return entries, nil
}
