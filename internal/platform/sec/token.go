// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (JWT signing, secret
// comparison) from the gate and the handlers. There is exactly one shared
// secret: a token proves "authenticated" and nothing else.
package sec

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure outcome of [TokenService.Validate].
//
// Malformed, tampered and expired tokens all map to it so that callers learn
// nothing about which check failed.
var ErrInvalidToken = errors.New("sec: invalid token")

// CapabilityClaims is the payload embedded inside a capability token.
type CapabilityClaims struct {
	jwt.RegisteredClaims

	// Authenticated is always true for tokens issued by this server.
	Authenticated bool `json:"auth"`
}

// TokenService issues and validates HS256 capability tokens.
type TokenService struct {
	secret     []byte
	issuer     string
	timeToLive time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService signing with the shared secret.
func NewTokenService(secret, issuer string, timeToLive time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sec: token secret is empty")
	}
	if timeToLive <= 0 {
		return nil, fmt.Errorf("sec: token ttl must be positive, got %s", timeToLive)
	}

	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		timeToLive: timeToLive,
		now:        time.Now,
	}, nil
}

// Issue creates a new token carrying the authenticated claim and the configured expiry.
func (service *TokenService) Issue() (string, error) {
	currentTime := service.now()
	claims := CapabilityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.timeToLive)),
		},
		Authenticated: true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Validate checks the signature, issuer and expiry of a token.
// Every failure returns [ErrInvalidToken].
func (service *TokenService) Validate(tokenString string) error {
	claims := &CapabilityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return service.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil || !token.Valid || !claims.Authenticated {
		return ErrInvalidToken
	}

	return nil
}

// EqualSecret compares two opaque secrets in constant time.
func EqualSecret(given, stored []byte) bool {
	return subtle.ConstantTimeCompare(given, stored) == 1
}
