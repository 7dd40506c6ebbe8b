package db

import (
	"context"
	"database/sql"
	"errors"

	"bidmarket/models"

	"github.com/jmoiron/sqlx"
)

func (s *Storage) CreateProposal(ctx context.Context, p *models.Proposal) error {
	const op = "db.CreateProposal"
	query := `
        INSERT INTO proposal
            (announcement_id, vendor_org_id, submitter_id, proposed_price, pitch, status)
        VALUES
            ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	err := s.ext.QueryRowxContext(ctx, query,
		p.AnnouncementID, p.VendorOrgID, p.SubmitterID, p.ProposedPrice, p.Pitch, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	return wrapErr(op, err)
}

func (s *Storage) GetProposal(ctx context.Context, id int) (*models.Proposal, error) {
	const op = "db.GetProposal"
	p := &models.Proposal{}
	query := `SELECT * FROM proposal WHERE id=$1`
	if err := sqlx.GetContext(ctx, s.ext, p, query, id); err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

func (s *Storage) GetProposalsByAnnouncement(ctx context.Context, announcementID int) ([]models.Proposal, error) {
	const op = "db.GetProposalsByAnnouncement"
	proposals := []models.Proposal{}
	query := `SELECT * FROM proposal WHERE announcement_id=$1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.ext, &proposals, query, announcementID); err != nil {
		return nil, wrapErr(op, err)
	}
	return proposals, nil
}

func (s *Storage) GetUserProposals(ctx context.Context, vendorOrgID, limit, offset int) ([]models.Proposal, error) {
	const op = "db.GetUserProposals"
	proposals := []models.Proposal{}
	query := `
        SELECT * FROM proposal
        WHERE vendor_org_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	if err := sqlx.SelectContext(ctx, s.ext, &proposals, query, vendorOrgID, limit, offset); err != nil {
		return nil, wrapErr(op, err)
	}
	return proposals, nil
}

// HasProposal reports whether the vendor already submitted against the
// announcement. An application-level pre-check; the unique constraint on
// (announcement_id, vendor_org_id) is the authoritative guard.
func (s *Storage) HasProposal(ctx context.Context, announcementID, vendorOrgID int) (bool, error) {
	const op = "db.HasProposal"
	var count int
	query := `SELECT COUNT(1) FROM proposal WHERE announcement_id=$1 AND vendor_org_id=$2`
	if err := sqlx.GetContext(ctx, s.ext, &count, query, announcementID, vendorOrgID); err != nil {
		return false, wrapErr(op, err)
	}
	return count > 0, nil
}

// GetAwardedProposal returns the current winner of an announcement, or nil
// when none exists.
func (s *Storage) GetAwardedProposal(ctx context.Context, announcementID int) (*models.Proposal, error) {
	const op = "db.GetAwardedProposal"
	p := &models.Proposal{}
	query := `SELECT * FROM proposal WHERE announcement_id=$1 AND status=$2`
	err := sqlx.GetContext(ctx, s.ext, p, query, announcementID, models.ProposalAwarded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// GetProposalHoldingRank returns the proposal holding the reserve rank in
// an announcement, or nil when the rank is free.
func (s *Storage) GetProposalHoldingRank(ctx context.Context, announcementID, rank int) (*models.Proposal, error) {
	const op = "db.GetProposalHoldingRank"
	p := &models.Proposal{}
	query := `SELECT * FROM proposal WHERE announcement_id=$1 AND reserve_rank=$2`
	err := sqlx.GetContext(ctx, s.ext, p, query, announcementID, rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

func (s *Storage) UpdateProposalStatus(ctx context.Context, id int, status models.ProposalStatus) error {
	const op = "db.UpdateProposalStatus"
	query := `UPDATE proposal SET status=$1 WHERE id=$2`
	_, err := s.ext.ExecContext(ctx, query, status, id)
	return wrapErr(op, err)
}

func (s *Storage) SetProposalReserveRank(ctx context.Context, id int, rank *int) error {
	const op = "db.SetProposalReserveRank"
	query := `UPDATE proposal SET reserve_rank=$1 WHERE id=$2`
	_, err := s.ext.ExecContext(ctx, query, rank, id)
	return wrapErr(op, err)
}

// RejectOpenProposals bulk-transitions every submitted or under-review
// proposal of the announcement to rejected, except the given one. Returns
// the number of proposals rejected.
func (s *Storage) RejectOpenProposals(ctx context.Context, announcementID, exceptProposalID int) (int, error) {
	const op = "db.RejectOpenProposals"
	query := `
        UPDATE proposal
        SET status=$1
        WHERE announcement_id=$2 AND id<>$3 AND status IN ($4, $5)`
	res, err := s.ext.ExecContext(ctx, query,
		models.ProposalRejected, announcementID, exceptProposalID,
		models.ProposalSubmitted, models.ProposalUnderReview)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(n), nil
}
