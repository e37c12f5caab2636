package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotJWT = errors.New("jwt: token is not a JWT")

// Info is what a client may learn from a token without the signing key.
type Info struct {
	Subject   string
	Username  string
	ID        string
	Issuer    string
	Algorithm string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carries an exp claim.
func (i Info) HasExpiry() bool { return !i.ExpiresAt.IsZero() }

// Expired reports whether the token's exp lies before now. Tokens without
// exp never expire client-side.
func (i Info) Expired(now time.Time) bool {
	return i.HasExpiry() && !now.Before(i.ExpiresAt)
}

// ExpiresIn returns the time left before exp, or 0 when expired or unset.
func (i Info) ExpiresIn(now time.Time) time.Duration {
	if !i.HasExpiry() || i.Expired(now) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}

// Inspect decodes the claims of token without verifying its signature.
// Opaque tokens yield [ErrNotJWT].
func Inspect(token string) (Info, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if strings.Count(token, ".") != 2 {
		return Info{}, ErrNotJWT
	}

	var claims Claims
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return Info{}, errors.Join(ErrNotJWT, err)
	}

	info := Info{
		Subject:   claims.Subject,
		Username:  claims.Username,
		ID:        claims.ID,
		Issuer:    claims.Issuer,
		Algorithm: parsed.Method.Alg(),
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
