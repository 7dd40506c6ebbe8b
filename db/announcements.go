package db

import (
	"context"

	"bidmarket/models"

	"github.com/jmoiron/sqlx"
)

func (s *Storage) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	const op = "db.CreateAnnouncement"
	query := `
        INSERT INTO announcement
            (requirement_id, agency_id, element_type, anchor_element_id, title, description,
             channel, contact_private, estimated_price, closing_at, status,
             price_weight, portfolio_weight, additional_weight, price_penalty)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id, created_at`
	err := s.ext.QueryRowxContext(ctx, query,
		a.RequirementID, a.AgencyID, a.ElementType, a.AnchorElementID, a.Title,
		a.Description, a.Channel, a.ContactPrivate, a.EstimatedPrice, a.ClosingAt,
		a.Status, a.PriceWeight, a.PortfolioWeight, a.AdditionalWeight, a.PricePenalty).
		Scan(&a.ID, &a.CreatedAt)
	return wrapErr(op, err)
}

func (s *Storage) GetAnnouncement(ctx context.Context, id int) (*models.Announcement, error) {
	const op = "db.GetAnnouncement"
	a := &models.Announcement{}
	query := `SELECT * FROM announcement WHERE id=$1`
	if err := sqlx.GetContext(ctx, s.ext, a, query, id); err != nil {
		return nil, wrapErr(op, err)
	}
	return a, nil
}

func (s *Storage) GetAnnouncementsByRequirement(ctx context.Context, requirementID int) ([]models.Announcement, error) {
	const op = "db.GetAnnouncementsByRequirement"
	announcements := []models.Announcement{}
	query := `SELECT * FROM announcement WHERE requirement_id=$1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.ext, &announcements, query, requirementID); err != nil {
		return nil, wrapErr(op, err)
	}
	return announcements, nil
}

func (s *Storage) GetAnnouncementsByProject(ctx context.Context, projectID int) ([]models.Announcement, error) {
	const op = "db.GetAnnouncementsByProject"
	announcements := []models.Announcement{}
	query := `
        SELECT a.* FROM announcement a
        JOIN requirement r ON a.requirement_id = r.id
        WHERE r.project_id = $1
        ORDER BY a.id`
	if err := sqlx.SelectContext(ctx, s.ext, &announcements, query, projectID); err != nil {
		return nil, wrapErr(op, err)
	}
	return announcements, nil
}

func (s *Storage) UpdateAnnouncementStatus(ctx context.Context, id int, status models.AnnouncementStatus) error {
	const op = "db.UpdateAnnouncementStatus"
	query := `UPDATE announcement SET status=$1 WHERE id=$2`
	_, err := s.ext.ExecContext(ctx, query, status, id)
	return wrapErr(op, err)
}

// ListOpenAnnouncements returns open announcements visible to the caller:
// public ones always, agency-private ones only for the owning agency.
func (s *Storage) ListOpenAnnouncements(ctx context.Context, agencyID, limit, offset int) ([]models.Announcement, error) {
	const op = "db.ListOpenAnnouncements"
	announcements := []models.Announcement{}
	query := `
        SELECT * FROM announcement
        WHERE status=$1 AND (channel=$2 OR agency_id=$3)
        ORDER BY closing_at ASC
        LIMIT $4 OFFSET $5`
	err := sqlx.SelectContext(ctx, s.ext, &announcements, query,
		models.AnnouncementOpen, models.ChannelPublic, agencyID, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return announcements, nil
}
