package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

// Config holds signing secrets and lifetimes for bearer tokens.
type Config struct {
	AccessSecret        string
	RefreshSecret       string
	AccessTTL           time.Duration
	RememberMeAccessTTL time.Duration
	RefreshTTL          time.Duration
}

// Pair is a freshly issued access/refresh pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessTTL        time.Duration
	RefreshExpiresAt time.Time
}

// Tokens converts the pair into its response shape.
func (p Pair) Tokens() models.AuthTokens {
	return models.AuthTokens{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    int64(p.AccessTTL / time.Second),
	}
}

// Codec signs and verifies access and refresh tokens with separate HS256 secrets.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec validates cfg and returns a codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RememberMeAccessTTL <= 0 {
		cfg.RememberMeAccessTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue signs a token of the given type for subject that expires after ttl.
func (c *Codec) Issue(subject, email string, typ models.TokenType, ttl time.Duration) (string, *models.TokenClaims, error) {
	secret, err := c.secret(typ)
	if err != nil {
		return "", nil, err
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	claims := &models.TokenClaims{
		Email: email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, claims, nil
}

// IssuePair signs an access and a refresh token for the user. rememberMe only
// extends the access token.
func (c *Codec) IssuePair(userID, email string, rememberMe bool) (Pair, error) {
	accessTTL := c.AccessTTL(rememberMe)
	access, _, err := c.Issue(userID, email, models.TokenTypeAccess, accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshClaims, err := c.Issue(userID, email, models.TokenTypeRefresh, c.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessTTL:        accessTTL,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// AccessTTL returns the access token lifetime for the session kind.
func (c *Codec) AccessTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return c.cfg.RememberMeAccessTTL
	}
	return c.cfg.AccessTTL
}

// RefreshTTL returns the refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration {
	return c.cfg.RefreshTTL
}

// Verify checks signature, expiry and type. Any failure yields nil.
func (c *Codec) Verify(signed string, expected models.TokenType) *models.TokenClaims {
	secret, err := c.secret(expected)
	if err != nil || signed == "" {
		return nil
	}

	claims := &models.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil
	}
	if claims.Type != expected || claims.Subject == "" {
		return nil
	}
	return claims
}

func (c *Codec) secret(typ models.TokenType) ([]byte, error) {
	switch typ {
	case models.TokenTypeAccess:
		return []byte(c.cfg.AccessSecret), nil
	case models.TokenTypeRefresh:
		return []byte(c.cfg.RefreshSecret), nil
	default:
		return nil, fmt.Errorf("unknown token type %q", typ)
	}
}
