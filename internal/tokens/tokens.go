package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the caller. Email is the only field the rest of the API
// relies on; any other caller-supplied fields ride along in Extra.
type Claims struct {
	Email string
	Extra map[string]any
	jwt.RegisteredClaims
}

var registeredKeys = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"}

// ClaimsFromBody turns a token request body into claims. A non-string email
// is kept as an extra field.
func ClaimsFromBody(body map[string]any) Claims {
	var c Claims
	for k, v := range body {
		if k == "email" {
			if s, ok := v.(string); ok {
				c.Email = s
				continue
			}
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any, len(body))
		}
		c.Extra[k] = v
	}
	for _, k := range registeredKeys {
		delete(c.Extra, k)
	}
	return c
}

func (c Claims) MarshalJSON() ([]byte, error) {
	registered, err := json.Marshal(c.RegisteredClaims)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(c.Extra)+8)
	if err := json.Unmarshal(registered, &out); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, taken := out[k]; !taken {
			out[k] = v
		}
	}
	if c.Email != "" {
		out["email"] = c.Email
	}
	return json.Marshal(out)
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	var out Claims
	if err := json.Unmarshal(data, &out.RegisteredClaims); err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if email, ok := fields["email"].(string); ok {
		out.Email = email
		delete(fields, "email")
	}
	for _, k := range registeredKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		out.Extra = fields
	}
	*c = out
	return nil
}

// Service issues and verifies HS256 identity tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewService(secret []byte, opts ...Option) *Service {
	s := &Service{secret: secret, ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Issue(claims Claims) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	if claims.Subject == "" {
		claims.Subject = claims.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
