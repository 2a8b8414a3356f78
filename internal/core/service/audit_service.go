package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/ports"
)

type auditService struct {
	repo ports.SessionEventRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that writes session events to repo.
func NewAuditService(repo ports.SessionEventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process validates and persists a single session event.
func (s *auditService) Process(ctx context.Context, ev domain.SessionEvent) error {
	if ev.VisitorID == "" || ev.Type == "" {
		return fmt.Errorf("process session event: %w: visitor and type are required", domain.ErrInvalidInput)
	}
	if ev.At.IsZero() {
		return fmt.Errorf("process session event: %w: missing timestamp", domain.ErrInvalidInput)
	}

	if err := s.repo.InsertEvent(ctx, &ev); err != nil {
		return fmt.Errorf("process session event: %w", err)
	}

	s.log.Debug().
		Str("visitor", ev.VisitorID).
		Str("event", string(ev.Type)).
		Int64("user_id", ev.UserID).
		Msg("session event recorded")
	return nil
}
