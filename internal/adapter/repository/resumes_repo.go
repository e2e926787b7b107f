package repository

import (
	"context"
	"errors"

	"resume-builder/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResumesRepo stores resumes in PostgreSQL.
type ResumesRepo struct {
	pool *pgxpool.Pool
}

func NewResumesRepo(pool *pgxpool.Pool) *ResumesRepo {
	return &ResumesRepo{pool: pool}
}

func (r *ResumesRepo) LatestByUser(ctx context.Context, userID string) (*domain.StoredResume, error) {
	var row domain.StoredResume
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, title, content, created_at, updated_at
		FROM resumes WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`, userID).
		Scan(&row.ID, &row.UserID, &row.Title, &row.Content, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.NetworkError{Op: "select resume", Err: err}
	}
	return &row, nil
}

func (r *ResumesRepo) Insert(ctx context.Context, s *domain.StoredResume) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO resumes (id, user_id, title, content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.UserID, s.Title, s.Content, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return &domain.NetworkError{Op: "insert resume", Err: err}
	}
	return nil
}

func (r *ResumesRepo) Update(ctx context.Context, s *domain.StoredResume) error {
	tag, err := r.pool.Exec(ctx, `UPDATE resumes SET title = $2, content = $3, updated_at = $4
		WHERE id = $1 AND user_id = $5`,
		s.ID, s.Title, s.Content, s.UpdatedAt, s.UserID)
	if err != nil {
		return &domain.NetworkError{Op: "update resume", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
