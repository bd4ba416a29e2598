package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken mirrors internal/auth's token-validation error, returned
// whenever a connecting peer's bearer token cannot be verified.
var ErrInvalidToken = errors.New("session: invalid or expired token")

// Claims is the JWT payload simserver issues and verifies, grounded on
// internal/auth's Claims type but carrying an operator identity rather than
// a user/character UUID pair — spec.md's slots are per-operator, not
// per-character.
type Claims struct {
	OperatorID string `json:"operator_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies operator identity tokens with a shared
// HMAC secret.
type TokenIssuer struct {
	secret     []byte
	expiration time.Duration
}

// NewTokenIssuer constructs a TokenIssuer with the given HMAC secret and
// token lifetime.
func NewTokenIssuer(secret []byte, expiration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, expiration: expiration}
}

// Issue mints a token asserting operatorID as the bearer's stable identity.
func (t *TokenIssuer) Issue(operatorID string) (string, error) {
	claims := &Claims{
		OperatorID: operatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates tokenString and extracts the operator identity.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.OperatorID == "" {
		return "", ErrInvalidToken
	}
	return claims.OperatorID, nil
}
