// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the claim set asserted by a Parley bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenIssuer creates and verifies signed bearer tokens asserting a
// username. Tokens are stateless: no server-side session store, no
// revocation list, and no expiry.
//
// The signing key is process-wide configuration loaded once at startup
// and never rotated within a process lifetime.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates a TokenIssuer with the given signing key.
func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_EMPTY_SECRET").Errorf("signing secret cannot be empty")
	}
	return &TokenIssuer{secret: secret}, nil
}

// Issue signs a token over {username, issued_at}.
func (t *TokenIssuer) Issue(username string) (string, error) {
	if username == "" {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("username cannot be empty")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Username: username,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("username", username).
			Wrap(err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the asserted username.
// Any malformed, unsigned, or foreign-keyed token yields ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", oops.Code("AUTH_INVALID_TOKEN").Wrap(errors.Join(ErrInvalidToken, err))
	}
	if !token.Valid || claims.Username == "" {
		return "", oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
	}
	return claims.Username, nil
}
