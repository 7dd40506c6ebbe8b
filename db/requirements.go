package db

import (
	"context"
	"time"

	"bidmarket/models"

	"github.com/jmoiron/sqlx"
)

func (s *Storage) CreateRequirement(ctx context.Context, r *models.Requirement) error {
	const op = "db.CreateRequirement"
	query := `
        INSERT INTO requirement
            (agency_id, project_id, title, description, issuance_mode, status, estimated_price, closing_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	err := s.ext.QueryRowxContext(ctx, query,
		r.AgencyID, r.ProjectID, r.Title, r.Description, r.IssuanceMode,
		r.Status, r.EstimatedPrice, r.ClosingAt).
		Scan(&r.ID, &r.CreatedAt)
	return wrapErr(op, err)
}

func (s *Storage) GetRequirement(ctx context.Context, id int) (*models.Requirement, error) {
	const op = "db.GetRequirement"
	r := &models.Requirement{}
	query := `SELECT * FROM requirement WHERE id=$1`
	if err := sqlx.GetContext(ctx, s.ext, r, query, id); err != nil {
		return nil, wrapErr(op, err)
	}
	return r, nil
}

func (s *Storage) UpdateRequirementStatus(ctx context.Context, id int, status models.RequirementStatus, publishedAt *time.Time) error {
	const op = "db.UpdateRequirementStatus"
	query := `
        UPDATE requirement
        SET status=$1, published_at=COALESCE($2, published_at)
        WHERE id=$3`
	_, err := s.ext.ExecContext(ctx, query, status, publishedAt, id)
	return wrapErr(op, err)
}

func (s *Storage) CreateRequirementElement(ctx context.Context, e *models.RequirementElement) error {
	const op = "db.CreateRequirementElement"
	query := `
        INSERT INTO requirement_element
            (requirement_id, element_type, detail, allocated_budget, prepayment_ratio,
             prepayment_due_at, balance_due_at, parent_element_id)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`
	err := s.ext.QueryRowxContext(ctx, query,
		e.RequirementID, e.ElementType, e.Detail, e.AllocatedBudget,
		e.PrepaymentRatio, e.PrepaymentDueAt, e.BalanceDueAt, e.ParentElementID).
		Scan(&e.ID)
	return wrapErr(op, err)
}

func (s *Storage) GetRequirementElements(ctx context.Context, requirementID int) ([]models.RequirementElement, error) {
	const op = "db.GetRequirementElements"
	elements := []models.RequirementElement{}
	query := `SELECT * FROM requirement_element WHERE requirement_id=$1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.ext, &elements, query, requirementID); err != nil {
		return nil, wrapErr(op, err)
	}
	return elements, nil
}

func (s *Storage) CreateApproval(ctx context.Context, a *models.Approval) error {
	const op = "db.CreateApproval"
	query := `
        INSERT INTO approval (requirement_id, requester_id, status, comment)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	err := s.ext.QueryRowxContext(ctx, query,
		a.RequirementID, a.RequesterID, a.Status, a.Comment).
		Scan(&a.ID, &a.CreatedAt)
	return wrapErr(op, err)
}

// GetLatestPendingApproval returns the most recent unresolved approval
// entry for a requirement, by creation order.
func (s *Storage) GetLatestPendingApproval(ctx context.Context, requirementID int) (*models.Approval, error) {
	const op = "db.GetLatestPendingApproval"
	a := &models.Approval{}
	query := `
        SELECT * FROM approval
        WHERE requirement_id=$1 AND status=$2
        ORDER BY created_at DESC, id DESC
        LIMIT 1`
	if err := sqlx.GetContext(ctx, s.ext, a, query, requirementID, models.ApprovalPending); err != nil {
		return nil, wrapErr(op, err)
	}
	return a, nil
}

func (s *Storage) ResolveApproval(ctx context.Context, id, resolverID int, status models.ApprovalStatus, comment string) error {
	const op = "db.ResolveApproval"
	query := `
        UPDATE approval
        SET status=$1, resolver_id=$2, comment=$3, resolved_at=NOW()
        WHERE id=$4`
	_, err := s.ext.ExecContext(ctx, query, status, resolverID, comment, id)
	return wrapErr(op, err)
}
