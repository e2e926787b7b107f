package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-builder/internal/domain"

	"go.uber.org/zap"
)

// IdentityProvider delivers passwordless sign-in links and verifies them.
type IdentityProvider interface {
	SendMagicLink(ctx context.Context, email string) error
	// Verify exchanges a link token for a session or returns domain.ErrInvalidToken.
	Verify(ctx context.Context, token string) (domain.Session, error)
}

type Identity struct {
	provider IdentityProvider
	logger   *zap.Logger
}

func NewIdentity(provider IdentityProvider, logger *zap.Logger) *Identity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identity{provider: provider, logger: logger}
}

// NormalizeEmail trims and lowercases email and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := formValidator().Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrMalformedEmail, email)
	}
	return email, nil
}

func (i *Identity) RequestSignIn(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	if err := i.provider.SendMagicLink(ctx, email); err != nil {
		i.logger.Warn("sign-in link delivery failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	i.logger.Info("sign-in link sent", zap.String("email", email))
	return nil
}

func (i *Identity) CompleteSignIn(ctx context.Context, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, domain.ErrInvalidToken
	}
	s, err := i.provider.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("verify sign-in: %w", err)
	}
	i.logger.Info("signed in", zap.String("user_id", s.UserID))
	return s, nil
}
