package engine

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// AwardResult is the awarded proposal together with its contract.
type AwardResult struct {
	Proposal *models.Proposal `json:"proposal"`
	Contract *models.Contract `json:"contract"`
}

// Award transitions a proposal to awarded: creates the contract, bulk
// rejects every other open proposal of the announcement and closes the
// announcement, all in one transaction. At most one proposal per
// announcement may ever be awarded; the partial unique index backs the
// in-transaction check under concurrent calls.
func (e *Engine) Award(ctx context.Context, caller Caller, proposalID int, finalPrice *int64) (*AwardResult, error) {
	const op = "engine.Award"
	p, ann, err := e.loadProposalAnnouncement(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("awards are decided by the owning agency")
	}
	if !p.Status.Awardable() {
		return nil, apperr.Conflict("proposal is not awardable from status %s", p.Status)
	}
	price, err := resolveFinalPrice(p, finalPrice)
	if err != nil {
		return nil, err
	}

	contract := newContract(ann, p, price, "")
	err = e.inTx(ctx, func(tx Store) error {
		cur, err := tx.GetProposal(ctx, p.ID)
		if err != nil {
			return err
		}
		if !cur.Status.Awardable() {
			return apperr.Conflict("proposal is not awardable from status %s", cur.Status)
		}
		if winner, err := tx.GetAwardedProposal(ctx, ann.ID); err != nil {
			return err
		} else if winner != nil {
			return apperr.Conflict("announcement already has an awarded proposal")
		}
		if err := tx.UpdateProposalStatus(ctx, p.ID, models.ProposalAwarded); err != nil {
			return err
		}
		// an awarded proposal may not carry a reserve rank
		if cur.ReserveRank != nil {
			if err := tx.SetProposalReserveRank(ctx, p.ID, nil); err != nil {
				return err
			}
		}
		if err := tx.CreateContract(ctx, contract); err != nil {
			return err
		}
		if _, err := tx.RejectOpenProposals(ctx, ann.ID, p.ID); err != nil {
			return err
		}
		return tx.UpdateAnnouncementStatus(ctx, ann.ID, models.AnnouncementClosed)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	p.Status = models.ProposalAwarded
	p.ReserveRank = nil
	e.dispatch(p.SubmitterID, "proposal_awarded", contract)
	return &AwardResult{Proposal: p, Contract: contract}, nil
}

// Reject transitions an open proposal to rejected. A contracted proposal
// is immutable and cannot be rejected.
func (e *Engine) Reject(ctx context.Context, caller Caller, proposalID int) (*models.Proposal, error) {
	const op = "engine.Reject"
	p, ann, err := e.loadProposalAnnouncement(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("rejections are decided by the owning agency")
	}
	if !p.Status.CanTransitionTo(models.ProposalRejected) {
		return nil, apperr.Conflict("proposal cannot be rejected from status %s", p.Status)
	}
	if c, err := e.store.GetContractByProposal(ctx, p.ID); err != nil {
		return nil, err
	} else if c != nil {
		return nil, apperr.Conflict("proposal is under contract")
	}
	err = e.inTx(ctx, func(tx Store) error {
		cur, err := tx.GetProposal(ctx, p.ID)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransitionTo(models.ProposalRejected) {
			return apperr.Conflict("proposal cannot be rejected from status %s", cur.Status)
		}
		if c, err := tx.GetContractByProposal(ctx, cur.ID); err != nil {
			return err
		} else if c != nil {
			return apperr.Conflict("proposal is under contract")
		}
		return tx.UpdateProposalStatus(ctx, p.ID, models.ProposalRejected)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	p.Status = models.ProposalRejected
	e.dispatch(p.SubmitterID, "proposal_rejected", p)
	return p, nil
}

// SetReserveRank assigns or clears a proposal's backup position. Ranks are
// unique per announcement among proposals that hold one.
func (e *Engine) SetReserveRank(ctx context.Context, caller Caller, proposalID int, rank *int) (*models.Proposal, error) {
	const op = "engine.SetReserveRank"
	p, ann, err := e.loadProposalAnnouncement(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("reserve ranks are managed by the owning agency")
	}
	if p.Status == models.ProposalAwarded {
		return nil, apperr.Conflict("an awarded proposal cannot hold a reserve rank")
	}
	if rank != nil && *rank < 1 {
		return nil, apperr.Validation("reserve rank must be a positive integer")
	}
	err = e.inTx(ctx, func(tx Store) error {
		cur, err := tx.GetProposal(ctx, p.ID)
		if err != nil {
			return err
		}
		if cur.Status == models.ProposalAwarded {
			return apperr.Conflict("an awarded proposal cannot hold a reserve rank")
		}
		if rank != nil {
			holder, err := tx.GetProposalHoldingRank(ctx, ann.ID, *rank)
			if err != nil {
				return err
			}
			if holder != nil && holder.ID != p.ID {
				return apperr.Conflict("reserve rank %d is already held", *rank)
			}
		}
		return tx.SetProposalReserveRank(ctx, p.ID, rank)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	p.ReserveRank = rank
	return p, nil
}

// PromoteFromReserve awards a reserve candidate. A currently awarded
// proposal is demoted to rejected and its contract's payment status reset
// to pending; the superseding award gets a fresh contract.
func (e *Engine) PromoteFromReserve(ctx context.Context, caller Caller, proposalID int, finalPrice *int64, previousWinnerNote string) (*AwardResult, error) {
	const op = "engine.PromoteFromReserve"
	p, ann, err := e.loadProposalAnnouncement(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("promotions are decided by the owning agency")
	}
	if p.ReserveRank == nil || p.Status == models.ProposalAwarded {
		return nil, apperr.Conflict("proposal is not a reserve candidate")
	}
	price, err := resolveFinalPrice(p, finalPrice)
	if err != nil {
		return nil, err
	}

	contract := newContract(ann, p, price, previousWinnerNote)
	err = e.inTx(ctx, func(tx Store) error {
		cur, err := tx.GetProposal(ctx, p.ID)
		if err != nil {
			return err
		}
		if cur.ReserveRank == nil || cur.Status == models.ProposalAwarded {
			return apperr.Conflict("proposal is not a reserve candidate")
		}
		winner, err := tx.GetAwardedProposal(ctx, ann.ID)
		if err != nil {
			return err
		}
		if winner != nil {
			if err := tx.UpdateProposalStatus(ctx, winner.ID, models.ProposalRejected); err != nil {
				return err
			}
			// supersede, don't delete: the old contract row stays with
			// its payment status back at pending
			if old, err := tx.GetContractByProposal(ctx, winner.ID); err != nil {
				return err
			} else if old != nil {
				if err := tx.UpdateContractPaymentStatus(ctx, old.ID, models.PaymentPending); err != nil {
					return err
				}
			}
		}
		if err := tx.SetProposalReserveRank(ctx, p.ID, nil); err != nil {
			return err
		}
		if err := tx.UpdateProposalStatus(ctx, p.ID, models.ProposalAwarded); err != nil {
			return err
		}
		if err := tx.CreateContract(ctx, contract); err != nil {
			return err
		}
		return tx.UpdateAnnouncementStatus(ctx, ann.ID, models.AnnouncementClosed)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	p.Status = models.ProposalAwarded
	p.ReserveRank = nil
	e.dispatch(p.SubmitterID, "proposal_awarded", contract)
	return &AwardResult{Proposal: p, Contract: contract}, nil
}

func (e *Engine) loadProposalAnnouncement(ctx context.Context, proposalID int) (*models.Proposal, *models.Announcement, error) {
	p, err := e.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	ann, err := e.store.GetAnnouncement(ctx, p.AnnouncementID)
	if err != nil {
		return nil, nil, err
	}
	return p, ann, nil
}

func resolveFinalPrice(p *models.Proposal, finalPrice *int64) (int64, error) {
	price := p.ProposedPrice
	if finalPrice != nil {
		price = *finalPrice
	}
	if price < 0 {
		return 0, apperr.Validation("final price must not be negative")
	}
	return price, nil
}
