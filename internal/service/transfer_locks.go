package service

import (
	"context"
	"log/slog"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/ledger"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
)

type transferLocks struct {
	ledger    ledger.Ledger
	auditRepo repository.AuditRepository
	verifier  PasswordVerifier
	log       *slog.Logger
	now       func() time.Time
}

func NewTransferLocks(ldg ledger.Ledger, auditRepo repository.AuditRepository, verifier PasswordVerifier, log *slog.Logger) TransferLocks {
	return &transferLocks{
		ledger:    ldg,
		auditRepo: auditRepo,
		verifier:  verifier,
		log:       logger.For(log, "transfer_locks"),
		now:       time.Now,
	}
}

func (s *transferLocks) UpdateMovement(ctx context.Context, m *domain.Movement) error {
	existing, err := s.ledger.GetMovement(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := requireUnlocked(existing); err != nil {
		return err
	}
	return s.ledger.UpdateMovement(ctx, m)
}

func (s *transferLocks) DeleteMovement(ctx context.Context, id int64) error {
	existing, err := s.ledger.GetMovement(ctx, id)
	if err != nil {
		return err
	}
	if err := requireUnlocked(existing); err != nil {
		return err
	}
	return s.ledger.DeleteMovement(ctx, id)
}

// Unlock opens a period-managed movement for manual correction. The operator
// is expected to relock it right after.
func (s *transferLocks) Unlock(ctx context.Context, actor domain.Actor, id int64, password, note string) (*domain.Movement, error) {
	if err := s.verifier.Verify(password); err != nil {
		s.log.WarnContext(ctx, "Movement unlock refused", "movement_id", id, "actor", actor.Name, "error", err)
		return nil, err
	}
	return s.setLocked(ctx, actor, id, false, note)
}

func (s *transferLocks) Relock(ctx context.Context, actor domain.Actor, id int64, note string) (*domain.Movement, error) {
	return s.setLocked(ctx, actor, id, true, note)
}

func (s *transferLocks) setLocked(ctx context.Context, actor domain.Actor, id int64, locked bool, note string) (*domain.Movement, error) {
	m, err := s.ledger.GetMovement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.PeriodManaged() {
		return nil, domain.NewValidationError("movement is not period-managed")
	}
	if m.Locked == locked {
		return m, nil
	}
	if err := s.ledger.SetMovementLocked(ctx, id, locked); err != nil {
		return nil, domain.AsDependencyError("set movement lock", err)
	}
	m.Locked = locked

	action, event := domain.AuditActionMovementUnlocked, "movement_unlocked"
	if locked {
		action, event = domain.AuditActionMovementRelocked, "movement_relocked"
	}
	at := s.now()
	entry := &domain.AuditEntry{
		OrgID:      m.OrgID,
		Actor:      actor.Name,
		Action:     action,
		TargetType: "movement",
		TargetID:   m.ID,
		Note:       note,
		CreatedOn:  at,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	logger.Event(ctx, s.log, event,
		"org_id", m.OrgID, "movement_id", m.ID, "period_id", *m.PeriodID, "actor", actor.Name, "at", at)
	return m, nil
}

func requireUnlocked(m *domain.Movement) error {
	if m.PeriodManaged() && m.Locked {
		return &domain.ImmutableError{Resource: "movement", ID: m.ID, Reason: "period-managed movement is locked"}
	}
	return nil
}
