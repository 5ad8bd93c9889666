package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum accepted length of the HMAC signing secret in bytes.
const MinSecretLen = 32

var (
	// ErrTokenMalformed is returned when a token cannot be parsed or lacks required claims.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenInvalidSignature is returned when the signature does not match the payload or the alg is not HS256.
	ErrTokenInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when the current time is at or past the token expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidClaims is returned by Encode when claims are incomplete.
	ErrInvalidClaims = errors.New("invalid token claims")
	// ErrInvalidKey is returned when the signing secret is missing or too short.
	ErrInvalidKey = errors.New("invalid key")
)

// TokenClass distinguishes access tokens from refresh tokens.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// Valid reports whether c is a known token class.
func (c TokenClass) Valid() bool {
	return c == TokenClassAccess || c == TokenClassRefresh
}

// Claims is the decoded content of a session token.
type Claims struct {
	UserID    string
	Username  string
	Email     string
	DeviceID  string
	Class     TokenClass
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the JWT payload. Timestamps are Unix-epoch milliseconds.
type tokenClaims struct {
	jwt.RegisteredClaims
	Username    string     `json:"usr,omitempty"`
	Email       string     `json:"email,omitempty"`
	DeviceID    string     `json:"did"`
	Class       TokenClass `json:"cls"`
	IssuedAtMs  int64      `json:"iat_ms"`
	ExpiresAtMs int64      `json:"exp_ms"`
}

// TokenCodec signs and verifies compact HS256 session tokens with a shared secret.
type TokenCodec struct {
	secret []byte
	parser *jwt.Parser
	nowF   func() time.Time
}

// NewTokenCodec returns a TokenCodec that signs with secret. The secret must be at
// least MinSecretLen bytes.
func NewTokenCodec(secret []byte) (*TokenCodec, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrInvalidKey
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenCodec{
		secret: key,
		// Expiry is checked in Decode at millisecond precision.
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation()),
		nowF:   time.Now,
	}, nil
}

// Encode signs claims. A zero IssuedAt is set to the current time.
func (c *TokenCodec) Encode(claims Claims) (string, error) {
	if claims.DeviceID == "" || !claims.Class.Valid() || claims.ExpiresAt.IsZero() {
		return "", ErrInvalidClaims
	}
	if claims.IssuedAt.IsZero() {
		claims.IssuedAt = c.nowF()
	}
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: claims.UserID},
		Username:         claims.Username,
		Email:            claims.Email,
		DeviceID:         claims.DeviceID,
		Class:            claims.Class,
		IssuedAtMs:       claims.IssuedAt.UnixMilli(),
		ExpiresAtMs:      claims.ExpiresAt.UnixMilli(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(c.secret)
}

// Decode verifies the signature of token, then its claims and expiry.
// It returns exactly one of ErrTokenMalformed, ErrTokenInvalidSignature or ErrTokenExpired on failure.
func (c *TokenCodec) Decode(token string) (Claims, error) {
	var tc tokenClaims
	_, err := c.parser.ParseWithClaims(token, &tc, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, c.classifyParseError(token, err)
	}
	if tc.DeviceID == "" || !tc.Class.Valid() || tc.IssuedAtMs <= 0 || tc.ExpiresAtMs <= 0 {
		return Claims{}, ErrTokenMalformed
	}
	claims := Claims{
		UserID:    tc.Subject,
		Username:  tc.Username,
		Email:     tc.Email,
		DeviceID:  tc.DeviceID,
		Class:     tc.Class,
		IssuedAt:  time.UnixMilli(tc.IssuedAtMs),
		ExpiresAt: time.UnixMilli(tc.ExpiresAtMs),
	}
	if !c.nowF().Before(claims.ExpiresAt) {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}

// classifyParseError maps a parser failure to a codec error. The parser decodes claims
// before it verifies, so a well-formed token whose claims do not decode is reported as a
// signature failure unless its HS256 signature actually matches.
func (c *TokenCodec) classifyParseError(token string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed) && c.hasForgedSignature(token):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}

// hasForgedSignature reports whether token has a decodable header and payload but its
// signature is not a valid HS256 signature over them.
func (c *TokenCodec) hasForgedSignature(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, seg := range parts[:2] {
		if _, err := c.parser.DecodeSegment(seg); err != nil {
			return false
		}
	}
	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return true
	}
	return jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.secret) != nil
}
