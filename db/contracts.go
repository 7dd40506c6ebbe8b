package db

import (
	"context"
	"database/sql"
	"errors"

	"bidmarket/models"

	"github.com/jmoiron/sqlx"
)

func (s *Storage) CreateContract(ctx context.Context, c *models.Contract) error {
	const op = "db.CreateContract"
	query := `
        INSERT INTO contract
            (announcement_id, proposal_id, vendor_org_id, agency_id, final_price,
             prepayment_amount, balance_amount, payment_status, note)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at`
	err := s.ext.QueryRowxContext(ctx, query,
		c.AnnouncementID, c.ProposalID, c.VendorOrgID, c.AgencyID, c.FinalPrice,
		c.PrepaymentAmount, c.BalanceAmount, c.PaymentStatus, c.Note).
		Scan(&c.ID, &c.CreatedAt)
	return wrapErr(op, err)
}

func (s *Storage) GetContract(ctx context.Context, id int) (*models.Contract, error) {
	const op = "db.GetContract"
	c := &models.Contract{}
	query := `SELECT * FROM contract WHERE id=$1`
	if err := sqlx.GetContext(ctx, s.ext, c, query, id); err != nil {
		return nil, wrapErr(op, err)
	}
	return c, nil
}

// GetContractByProposal returns the contract referencing a proposal, or nil
// when the proposal was never contracted. A promotion creates a new
// contract for the new winner, so the latest one is the binding one.
func (s *Storage) GetContractByProposal(ctx context.Context, proposalID int) (*models.Contract, error) {
	const op = "db.GetContractByProposal"
	c := &models.Contract{}
	query := `
        SELECT * FROM contract
        WHERE proposal_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT 1`
	err := sqlx.GetContext(ctx, s.ext, c, query, proposalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return c, nil
}

func (s *Storage) UpdateContractPaymentStatus(ctx context.Context, id int, status models.PaymentStatus) error {
	const op = "db.UpdateContractPaymentStatus"
	query := `UPDATE contract SET payment_status=$1 WHERE id=$2`
	_, err := s.ext.ExecContext(ctx, query, status, id)
	return wrapErr(op, err)
}
