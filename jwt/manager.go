package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the signature algorithm of a [Manager].
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

var (
	ErrInvalidTTL    = errors.New("jwt: ttl must be positive")
	ErrInvalidLeeway = errors.New("jwt: leeway must be between 0 and 2m")
	ErrMissingKey    = errors.New("jwt: missing key")
	ErrInvalidKey    = errors.New("jwt: invalid ed25519 key")
	ErrUnknownMethod = errors.New("jwt: unsupported signing method")
	ErrEmptySubject  = errors.New("jwt: empty subject")
	ErrVerifyOnly    = errors.New("jwt: manager holds no signing key")
)

// Config configures a [Manager]. PrivateKey is the HMAC secret for
// MethodHS256. For MethodEd25519 both keys accept raw bytes or PEM, and a
// Manager without PrivateKey can only verify.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Claims are carried by session tokens. Subject is the user id; Username is
// what the client shows before the profile has loaded.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Manager mints and checks session tokens for the fake team server.
type Manager struct {
	ttl    time.Duration
	issuer string
	method jwt.SigningMethod
	sign   any
	verify any
	parser *jwt.Parser
}

// NewManager resolves the keys in cfg once and returns a [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, ErrInvalidLeeway
	}

	m := &Manager{ttl: cfg.TTL, issuer: cfg.Issuer}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, ErrMissingKey
		}
		m.method = jwt.SigningMethodHS256
		m.sign, m.verify = cfg.PrivateKey, cfg.PrivateKey
	case MethodEd25519:
		pub, err := edKey[ed25519.PublicKey](cfg.PublicKey, ed25519.PublicKeySize, func(b []byte) (any, error) {
			return jwt.ParseEdPublicKeyFromPEM(b)
		})
		if err != nil {
			return nil, err
		}
		m.method = jwt.SigningMethodEdDSA
		m.verify = pub
		if len(cfg.PrivateKey) > 0 {
			priv, err := edKey[ed25519.PrivateKey](cfg.PrivateKey, ed25519.PrivateKeySize, func(b []byte) (any, error) {
				return jwt.ParseEdPrivateKeyFromPEM(b)
			})
			if err != nil {
				return nil, err
			}
			m.sign = priv
		}
	default:
		return nil, ErrUnknownMethod
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	m.parser = jwt.NewParser(opts...)
	return m, nil
}

// Issue mints a token for userID. Every token gets a fresh jti so logout can
// revoke it individually.
func (m *Manager) Issue(userID, username string) (string, error) {
	if userID == "" {
		return "", ErrEmptySubject
	}
	if m.sign == nil {
		return "", ErrVerifyOnly
	}
	now := time.Now()
	return jwt.NewWithClaims(m.method, Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}).SignedString(m.sign)
}

// Verify parses tokenStr and returns its claims when the signature, expiry
// and issuer hold and a subject is present.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(tokenStr, claims, m.keyFunc); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return claims, nil
}

func (m *Manager) keyFunc(*jwt.Token) (any, error) {
	return m.verify, nil
}

// edKey accepts either a raw key of the expected size or a PEM block.
func edKey[K ed25519.PublicKey | ed25519.PrivateKey](raw []byte, size int, fromPEM func([]byte) (any, error)) (K, error) {
	if len(raw) == 0 {
		return nil, ErrMissingKey
	}
	if len(raw) == size {
		return K(raw), nil
	}
	parsed, err := fromPEM(raw)
	if err != nil {
		return nil, ErrInvalidKey
	}
	key, ok := parsed.(K)
	if !ok {
		return nil, ErrInvalidKey
	}
	return key, nil
}
