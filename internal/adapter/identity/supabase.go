package identity

import (
	"context"
	"time"

	"resume-builder/internal/domain"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseProvider sends magic links through GoTrue and verifies the access
// token the link hands back. GoTrue calls take no context.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(client *supabase.Client) *SupabaseProvider {
	return &SupabaseProvider{client: client}
}

func (p *SupabaseProvider) SendMagicLink(_ context.Context, email string) error {
	if err := p.client.Auth.OTP(types.OTPRequest{Email: email, CreateUser: true}); err != nil {
		return &domain.NetworkError{Op: "send magic link", Err: err}
	}
	return nil
}

func (p *SupabaseProvider) Verify(_ context.Context, token string) (domain.Session, error) {
	user, err := p.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return domain.Session{}, domain.ErrInvalidToken
	}
	return domain.Session{UserID: user.ID.String(), Email: user.Email, IssuedAt: time.Now().UTC()}, nil
}
