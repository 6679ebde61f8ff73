package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Config is populated from JWT_* environment variables.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string `env:"JWT_SECRET,required"`
	// Issuer, when set, is required in the iss claim.
	Issuer string `env:"JWT_ISSUER"`
	// Audience, when set, is required in the aud claim.
	Audience string `env:"JWT_AUDIENCE"`
	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
	// TTL is the lifetime of generated tokens.
	TTL time.Duration `env:"JWT_TTL" envDefault:"1h"`
}

// Service signs and verifies HS256 tokens.
type Service struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
	ttl      time.Duration
	now      func() time.Time
}

// New creates a Service from cfg.
func New(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		key:      []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Generate signs claims, filling issuer, audience and timestamps when unset.
func (s *Service) Generate(claims Claims) (string, error) {
	now := s.now()
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	if len(claims.Audience) == 0 && s.audience != "" {
		claims.Audience = jwtlib.ClaimStrings{s.audience}
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwtlib.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(s.ttl))
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse verifies tokenString and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(tokenString, claims, func(*jwtlib.Token) (any, error) {
		return s.key, nil
	}, s.parserOptions()...)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errors.Join(ErrExpiredToken, err)
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}

func (s *Service) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithLeeway(s.leeway),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwtlib.WithAudience(s.audience))
	}
	return opts
}
