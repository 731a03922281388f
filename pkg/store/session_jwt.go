package store

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultJWTIssuer   = "bookstore-api"
	defaultJWTAudience = "bookstore-client"
	defaultJWTTTL      = 60 * time.Minute
)

// DefaultJWTLeeway is the clock skew NewJWTSessionStore tolerates.
const DefaultJWTLeeway = 30 * time.Second

var (
	// ErrSubjectRequired is returned when a token is requested for an empty username.
	ErrSubjectRequired = errors.New("username cannot be empty")
	// ErrSigningKeyMissing is returned when no signing secret is configured.
	ErrSigningKeyMissing = errors.New("jwt signing key is missing")
)

// JWTOptions configures JWT claim validation behavior.
type JWTOptions struct {
	Issuer   string
	Audience string
	// Leeway is the clock skew tolerated on exp and iat. Zero means none.
	Leeway time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// JWTSessionStore issues and validates HS256 JWTs. It keeps no server-side
// state: a token is valid until it expires.
type JWTSessionStore struct {
	secret []byte
	ttl    time.Duration

	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// NewJWTSessionStore builds a stateless HS256 token store.
func NewJWTSessionStore(secret string, ttl time.Duration) *JWTSessionStore {
	return NewJWTSessionStoreWithOptions(secret, ttl, JWTOptions{Leeway: DefaultJWTLeeway})
}

// NewJWTSessionStoreWithOptions builds the store with custom claim options.
func NewJWTSessionStoreWithOptions(secret string, ttl time.Duration, opts JWTOptions) *JWTSessionStore {
	if ttl == 0 {
		ttl = defaultJWTTTL
	}
	opts = normalizeJWTOptions(opts)
	return &JWTSessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
		now:      opts.Now,
	}
}

// NewSession creates a signed JWT asserting username as subject.
func (s *JWTSessionStore) NewSession(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", ErrSubjectRequired
	}
	if len(s.secret) == 0 {
		return "", ErrSigningKeyMissing
	}
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GetUsernameByToken validates a JWT and returns the subject.
// Signature, algorithm, issuer, audience and expiry are all enforced.
func (s *JWTSessionStore) GetUsernameByToken(token string) (string, bool, error) {
	claims, err := s.parseAndVerify(token)
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", false, errors.New("token subject missing")
	}
	return claims.Subject, true, nil
}

func (s *JWTSessionStore) parseAndVerify(token string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, errors.New("invalid token format")
	}
	if len(s.secret) == 0 {
		return claims, ErrSigningKeyMissing
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	return claims, nil
}

func normalizeJWTOptions(opts JWTOptions) JWTOptions {
	opts.Issuer = strings.TrimSpace(opts.Issuer)
	opts.Audience = strings.TrimSpace(opts.Audience)
	if opts.Issuer == "" {
		opts.Issuer = defaultJWTIssuer
	}
	if opts.Audience == "" {
		opts.Audience = defaultJWTAudience
	}
	if opts.Leeway < 0 {
		opts.Leeway = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}
