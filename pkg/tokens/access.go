package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultAccessTTL = 15 * time.Minute

var ErrUnexpectedSigningMethod = errors.New("unexpected signing method")

type AccessClaims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AccessCodec signs and verifies the short-lived access tokens. It is
// constructed once at startup and injected where needed; the signing secret
// is never global state.
type AccessCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewAccessCodec(secret []byte, ttl time.Duration) *AccessCodec {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &AccessCodec{secret: secret, ttl: ttl}
}

// Sign mints an HS256 token carrying the account id as subject plus the
// role and username claims. Returns the token and its expiry instant.
func (c *AccessCodec) Sign(subject, role, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(c.ttl)
	claims := AccessClaims{
		Role:     role,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature and expiry. The signing method is pinned to
// HS256.
func (c *AccessCodec) Parse(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedSigningMethod
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &claims, nil
}
