package identity

import (
	"errors"
	"time"

	"resume-builder/internal/domain"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeLink    = "link"
	TokenTypeSession = "session"
)

var ErrTokenExpired = errors.New("token expired")

type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`

	jwtlib.RegisteredClaims
}

// signer issues and checks HS256 tokens of one type.
type signer struct {
	secret    []byte
	tokenType string
	expiresIn time.Duration
	now       func() time.Time
}

func (s *signer) issue(userID, email string) (string, time.Time, error) {
	if len(s.secret) == 0 || s.expiresIn <= 0 {
		return "", time.Time{}, domain.ErrInvalidToken
	}
	now := s.now().UTC()
	exp := now.Add(s.expiresIn)
	c := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: s.tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
			Subject:   userID,
		},
	}
	t, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.secret)
	return t, exp, err
}

func (s *signer) parse(token string) (Claims, error) {
	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	)
	var c Claims
	tok, err := p.ParseWithClaims(token, &c, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, errors.Join(domain.ErrInvalidToken, ErrTokenExpired)
		}
		return Claims{}, domain.ErrInvalidToken
	}
	if tok == nil || !tok.Valid || c.TokenType != s.tokenType || c.UserID == "" {
		return Claims{}, domain.ErrInvalidToken
	}
	return c, nil
}

func (c Claims) session() domain.Session {
	s := domain.Session{UserID: c.UserID, Email: c.Email}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	return s
}

// SessionTokens signs the session cookie so a new workspace can pick the
// sign-in back up.
type SessionTokens struct {
	signer
}

// DefaultSessionTTL is the lifetime of the session cookie.
const DefaultSessionTTL = 7 * 24 * time.Hour

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionTokens{signer{secret: []byte(secret), tokenType: TokenTypeSession, expiresIn: ttl, now: time.Now}}
}

// Issue returns the cookie value and its expiry.
func (t *SessionTokens) Issue(s domain.Session) (string, time.Time, error) {
	return t.issue(s.UserID, s.Email)
}

func (t *SessionTokens) Parse(token string) (domain.Session, error) {
	c, err := t.parse(token)
	if err != nil {
		return domain.Session{}, err
	}
	return c.session(), nil
}
