package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"secrets/internal/pkg/randx"
)

// TokenIssuer identifies cookies minted by this server.
const TokenIssuer = "secrets-server"

// signToken wraps a session ID in an HS256 JWT. The only claims are the ID,
// issuer and timestamps: the cookie says nothing about who the user is.
func signToken(sessionID string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.StandardClaims{
		Id:        sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Issuer:    TokenIssuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken validates the signature, expiry and issuer and returns the session ID.
func parseToken(tokenString string, secret []byte) (string, error) {
	claims := &jwt.StandardClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.Issuer != TokenIssuer {
		return "", errors.New("invalid or expired token")
	}

	if !randx.IsValidToken(claims.Id, randx.SessionIDBytes) {
		return "", errors.New("malformed session id")
	}

	return claims.Id, nil
}
