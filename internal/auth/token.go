package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
)

// TokenIssuer signs and verifies session tokens. Tokens are stateless:
// the user id travels in the subject claim and verification needs only
// the shared secret, no storage lookup.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue creates a signed token bound to userId, valid for the fixed window.
func (ti *TokenIssuer) Issue(userId string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userId,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to issue session token, try again later.",
		}
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the bound user id.
// Any defect (malformed, tampered, expired, wrong algorithm) fails closed.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrAuth,
				Message: "Token is not valid.",
			}
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Token is not valid.",
		}
	}
	return claims.Subject, nil
}
