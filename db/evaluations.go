package db

import (
	"context"

	"bidmarket/models"

	"github.com/jmoiron/sqlx"
)

// CreateAssignment inserts an evaluator assignment, skipping duplicates.
// Returns false when the (announcement, evaluator) pair was already
// assigned.
func (s *Storage) CreateAssignment(ctx context.Context, a *models.EvaluatorAssignment) (bool, error) {
	const op = "db.CreateAssignment"
	query := `
        INSERT INTO evaluator_assignment (announcement_id, evaluator_id, scope, mode)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (announcement_id, evaluator_id) DO NOTHING
        RETURNING id, created_at`
	rows, err := s.ext.QueryxContext(ctx, query, a.AnnouncementID, a.EvaluatorID, a.Scope, a.Mode)
	if err != nil {
		return false, wrapErr(op, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return false, wrapErr(op, rows.Err())
	}
	if err := rows.Scan(&a.ID, &a.CreatedAt); err != nil {
		return false, wrapErr(op, err)
	}
	return true, nil
}

func (s *Storage) HasAssignment(ctx context.Context, announcementID, evaluatorID int) (bool, error) {
	const op = "db.HasAssignment"
	var count int
	query := `SELECT COUNT(1) FROM evaluator_assignment WHERE announcement_id=$1 AND evaluator_id=$2`
	if err := sqlx.GetContext(ctx, s.ext, &count, query, announcementID, evaluatorID); err != nil {
		return false, wrapErr(op, err)
	}
	return count > 0, nil
}

func (s *Storage) GetAssignments(ctx context.Context, announcementID int) ([]models.EvaluatorAssignment, error) {
	const op = "db.GetAssignments"
	assignments := []models.EvaluatorAssignment{}
	query := `SELECT * FROM evaluator_assignment WHERE announcement_id=$1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.ext, &assignments, query, announcementID); err != nil {
		return nil, wrapErr(op, err)
	}
	return assignments, nil
}

func (s *Storage) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	const op = "db.CreateEvaluation"
	query := `
        INSERT INTO evaluation
            (proposal_id, evaluator_id, portfolio_score, additional_score,
             price_score, total_score, comment)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`
	err := s.ext.QueryRowxContext(ctx, query,
		e.ProposalID, e.EvaluatorID, e.PortfolioScore, e.AdditionalScore,
		e.PriceScore, e.TotalScore, e.Comment).
		Scan(&e.ID, &e.CreatedAt)
	return wrapErr(op, err)
}

func (s *Storage) HasEvaluation(ctx context.Context, proposalID, evaluatorID int) (bool, error) {
	const op = "db.HasEvaluation"
	var count int
	query := `SELECT COUNT(1) FROM evaluation WHERE proposal_id=$1 AND evaluator_id=$2`
	if err := sqlx.GetContext(ctx, s.ext, &count, query, proposalID, evaluatorID); err != nil {
		return false, wrapErr(op, err)
	}
	return count > 0, nil
}

func (s *Storage) GetEvaluationsByAnnouncement(ctx context.Context, announcementID int) ([]models.Evaluation, error) {
	const op = "db.GetEvaluationsByAnnouncement"
	evaluations := []models.Evaluation{}
	query := `
        SELECT e.* FROM evaluation e
        JOIN proposal p ON e.proposal_id = p.id
        WHERE p.announcement_id = $1
        ORDER BY e.id`
	if err := sqlx.SelectContext(ctx, s.ext, &evaluations, query, announcementID); err != nil {
		return nil, wrapErr(op, err)
	}
	return evaluations, nil
}

func (s *Storage) CreateEvaluatorHistory(ctx context.Context, h *models.EvaluatorHistory) error {
	const op = "db.CreateEvaluatorHistory"
	query := `
        INSERT INTO evaluator_history
            (evaluator_id, announcement_id, project_id, element_type, score, completed_at)
        VALUES
            ($1, $2, $3, $4, $5, $6)
        RETURNING id`
	err := s.ext.QueryRowxContext(ctx, query,
		h.EvaluatorID, h.AnnouncementID, h.ProjectID, h.ElementType, h.Score, h.CompletedAt).
		Scan(&h.ID)
	return wrapErr(op, err)
}
