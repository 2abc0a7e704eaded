// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

// Package identity extracts the stable account identifier from the session
// token the auth server issues after sign-in. The identifier is never a
// secret; it only seeds key derivation. Signature verification already
// happened at the transport boundary, so the token is parsed unverified
// here.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the session token cannot be parsed.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrNoSubject is returned when the token carries no subject claim.
	// The coordinator must refuse to derive a key in that case.
	ErrNoSubject = errors.New("session token has no subject")
)

// TokenAccountID returns the subject claim of the session token, used as
// the account identifier for key derivation.
func TokenAccountID(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrNoSubject
	}

	return sub, nil
}
