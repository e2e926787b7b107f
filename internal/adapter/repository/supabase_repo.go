package repository

import (
	"context"
	"encoding/json"
	"time"

	"resume-builder/internal/domain"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const resumesTable = "resumes"

type supabaseRow struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r supabaseRow) stored() *domain.StoredResume {
	return &domain.StoredResume{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Content:   []byte(r.Content),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// SupabaseRepo stores resumes through the Supabase PostgREST API.
// The client calls do not take a context.
type SupabaseRepo struct {
	client *supabase.Client
}

func NewSupabaseRepo(client *supabase.Client) *SupabaseRepo {
	return &SupabaseRepo{client: client}
}

func (r *SupabaseRepo) LatestByUser(_ context.Context, userID string) (*domain.StoredResume, error) {
	var rows []supabaseRow
	_, err := r.client.From(resumesTable).
		Select("id,user_id,title,content,created_at,updated_at", "", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, &domain.NetworkError{Op: "select resume", Err: err}
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].stored(), nil
}

func (r *SupabaseRepo) Insert(_ context.Context, s *domain.StoredResume) error {
	row := supabaseRow{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Content:   json.RawMessage(s.Content),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	var out []supabaseRow
	if _, err := r.client.From(resumesTable).Insert(row, false, "", "representation", "").ExecuteTo(&out); err != nil {
		return &domain.NetworkError{Op: "insert resume", Err: err}
	}
	return nil
}

func (r *SupabaseRepo) Update(_ context.Context, s *domain.StoredResume) error {
	patch := map[string]interface{}{
		"title":      s.Title,
		"content":    json.RawMessage(s.Content),
		"updated_at": s.UpdatedAt,
	}
	var out []supabaseRow
	_, err := r.client.From(resumesTable).
		Update(patch, "representation", "").
		Eq("id", s.ID.String()).
		Eq("user_id", s.UserID).
		ExecuteTo(&out)
	if err != nil {
		return &domain.NetworkError{Op: "update resume", Err: err}
	}
	if len(out) == 0 {
		return domain.ErrNotFound
	}
	return nil
}
