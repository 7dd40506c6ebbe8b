package engine

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// PaymentSplit derives the payment terms of a contract: prepayment is 30%
// of the final price rounded half up, balance is the exact complement so
// the two always sum to the final price.
func PaymentSplit(finalPrice int64) (prepayment, balance int64) {
	prepayment = (finalPrice*30 + 50) / 100
	return prepayment, finalPrice - prepayment
}

func newContract(ann *models.Announcement, p *models.Proposal, finalPrice int64, note string) *models.Contract {
	prepayment, balance := PaymentSplit(finalPrice)
	return &models.Contract{
		AnnouncementID:   ann.ID,
		ProposalID:       p.ID,
		VendorOrgID:      p.VendorOrgID,
		AgencyID:         ann.AgencyID,
		FinalPrice:       finalPrice,
		PrepaymentAmount: prepayment,
		BalanceAmount:    balance,
		PaymentStatus:    models.PaymentPending,
		Note:             note,
	}
}

// UpdatePaymentStatus advances a contract through
// pending -> prepayment_paid -> all_paid. Independent of the award
// invariants.
func (e *Engine) UpdatePaymentStatus(ctx context.Context, caller Caller, contractID int, status models.PaymentStatus) (*models.Contract, error) {
	const op = "engine.UpdatePaymentStatus"
	switch status {
	case models.PaymentPending, models.PaymentPrepaymentPaid, models.PaymentAllPaid:
	default:
		return nil, apperr.Validation("unknown payment status %q", status)
	}
	c, err := e.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(c.AgencyID) {
		return nil, apperr.Forbidden("payment status is managed by the agency")
	}
	if !c.PaymentStatus.CanTransitionTo(status) {
		return nil, apperr.Conflict("payment status cannot move from %s to %s", c.PaymentStatus, status)
	}
	err = e.inTx(ctx, func(tx Store) error {
		return tx.UpdateContractPaymentStatus(ctx, c.ID, status)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	c.PaymentStatus = status
	return c, nil
}

// GetContract returns a contract to either party of it.
func (e *Engine) GetContract(ctx context.Context, caller Caller, contractID int) (*models.Contract, error) {
	c, err := e.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(c.AgencyID) && caller.OrgID != c.VendorOrgID {
		return nil, apperr.Forbidden("contract is visible to its parties only")
	}
	return c, nil
}
