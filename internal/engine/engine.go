// Package engine implements the bid lifecycle and award state machine:
// requirement approval, announcement publication, proposal intake,
// evaluator assignment, scoring and the award/reject/promote transitions
// with their contract side effects.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bidmarket/internal/apperr"
)

type Engine struct {
	store  Store
	inTx   TxRunner
	log    *slog.Logger
	notify Notifier
	now    func() time.Time
}

func New(store Store, inTx TxRunner, log *slog.Logger, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		store:  store,
		inTx:   inTx,
		log:    log,
		notify: notifier,
		now:    time.Now,
	}
}

// ResolveCaller looks up the identity behind a username. This is the
// identity-provider boundary; the engine only needs role and organization.
func (e *Engine) ResolveCaller(ctx context.Context, username string) (Caller, error) {
	u, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		return Caller{}, err
	}
	org, err := e.store.GetOrganization(ctx, u.OrganizationID)
	if err != nil {
		return Caller{}, err
	}
	return Caller{UserID: u.ID, Role: u.Role, OrgID: u.OrganizationID, OrgKind: org.Kind}, nil
}

// failTx classifies a transaction error: taxonomy errors pass through so
// clients can tell Conflict from Validation; anything else is an
// OperationFailed with the cause attached.
func failTx(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrForbidden) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrConflict) {
		return err
	}
	return apperr.OperationFailed(op, err)
}
