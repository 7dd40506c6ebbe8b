package db

import (
	"context"

	"bidmarket/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "db.CreateUser"
	query := `
        INSERT INTO users (username, first_name, last_name, role, organization_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := s.ext.QueryRowxContext(ctx, query,
		u.Username, u.FirstName, u.LastName, u.Role, u.OrganizationID).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return wrapErr(op, err)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "db.GetUserByUsername"
	u := &models.User{}
	query := `SELECT * FROM users WHERE username=$1`
	if err := sqlx.GetContext(ctx, s.ext, u, query, username); err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

func (s *Storage) GetUsers(ctx context.Context, ids []int) ([]models.User, error) {
	const op = "db.GetUsers"
	users := []models.User{}
	query := `SELECT * FROM users WHERE id = ANY($1) ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.ext, &users, query, pq.Array(ids)); err != nil {
		return nil, wrapErr(op, err)
	}
	return users, nil
}

func (s *Storage) CreateOrganization(ctx context.Context, o *models.Organization) error {
	const op = "db.CreateOrganization"
	query := `
        INSERT INTO organization (name, kind)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	err := s.ext.QueryRowxContext(ctx, query, o.Name, o.Kind).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return wrapErr(op, err)
}

func (s *Storage) GetOrganization(ctx context.Context, id int) (*models.Organization, error) {
	const op = "db.GetOrganization"
	o := &models.Organization{}
	query := `SELECT * FROM organization WHERE id=$1`
	if err := sqlx.GetContext(ctx, s.ext, o, query, id); err != nil {
		return nil, wrapErr(op, err)
	}
	return o, nil
}
