package engine

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// SubmitProposalInput is a vendor submission against an open announcement.
type SubmitProposalInput struct {
	AnnouncementID int
	ProposedPrice  int64
	Pitch          string
}

// SubmitProposal accepts a vendor submission, enforcing the submission
// window and the one-proposal-per-vendor constraint.
func (e *Engine) SubmitProposal(ctx context.Context, caller Caller, in SubmitProposalInput) (*models.Proposal, error) {
	const op = "engine.SubmitProposal"
	if !caller.IsVendorSide() {
		return nil, apperr.Forbidden("proposals are submitted by vendor members")
	}
	if in.ProposedPrice < 0 {
		return nil, apperr.Validation("proposed price must not be negative")
	}
	ann, err := e.store.GetAnnouncement(ctx, in.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if !ann.AcceptsSubmissions(e.now()) {
		return nil, apperr.Conflict("submission window closed")
	}
	if exists, err := e.store.HasProposal(ctx, ann.ID, caller.OrgID); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.Conflict("duplicate submission")
	}

	p := &models.Proposal{
		AnnouncementID: ann.ID,
		VendorOrgID:    caller.OrgID,
		SubmitterID:    caller.UserID,
		ProposedPrice:  in.ProposedPrice,
		Pitch:          in.Pitch,
		Status:         models.ProposalSubmitted,
	}
	// the unique (announcement, vendor) constraint is the authoritative
	// duplicate guard; a concurrent submit surfaces here as Conflict
	err = e.inTx(ctx, func(tx Store) error {
		return tx.CreateProposal(ctx, p)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	e.dispatch(caller.UserID, "proposal_submitted", p)
	return p, nil
}
