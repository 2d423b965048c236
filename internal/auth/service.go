// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package auth implements the shared-password login that trades a password
// hash for a capability token.
//
// # Architecture
//
// There is no account model: the server holds one hash file, and any client
// that presents the same bytes receives a token. The token's grant folder is
// provisioned at login so its static media URLs work immediately.
package auth

import (
	"bytes"
	"fmt"
	"os"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
	"github.com/taibuivan/mediavault/internal/platform/sec"
)

// TokenIssuer mints capability tokens.
type TokenIssuer interface {
	Issue() (string, error)
}

// GrantProvisioner creates the media grant of a token.
type GrantProvisioner interface {
	Ensure(token string) (string, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string `json:"token"`
	MediaPath string `json:"mediaPath"`
}

// Service verifies the shared password and issues tokens.
type Service struct {
	hashFile    string
	tokens      TokenIssuer
	provisioner GrantProvisioner
}

// NewService constructs a login [Service].
//
// hashFile is read on every login so that replacing it takes effect without a restart.
func NewService(hashFile string, tokens TokenIssuer, provisioner GrantProvisioner) *Service {
	return &Service{
		hashFile:    hashFile,
		tokens:      tokens,
		provisioner: provisioner,
	}
}

// Login compares the presented hash with the stored one.
//
// # Returns
//   - A [*Session] carrying the token and the client's media path.
//   - [apperr.Unauthorized] on mismatch, without saying why.
func (service *Service) Login(passwordHash string) (*Session, error) {
	// ── 1. Credential Check ───────────────────────────────────────────────

	stored, err := os.ReadFile(service.hashFile)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: read password hash: %w", err))
	}

	if !sec.EqualSecret([]byte(passwordHash), bytes.TrimSpace(stored)) {
		return nil, apperr.Unauthorized("Invalid password")
	}

	// ── 2. Token Issuance ─────────────────────────────────────────────────

	token, err := service.tokens.Issue()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: issue token: %w", err))
	}

	grant, err := service.provisioner.Ensure(token)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: provision grant: %w", err))
	}

	return &Session{Token: token, MediaPath: "/media/" + grant}, nil
}

// CheckHashFile verifies at startup that the password hash exists and is not empty.
func CheckHashFile(path string) error {
	stored, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("auth: read password hash: %w", err)
	}
	if len(bytes.TrimSpace(stored)) == 0 {
		return fmt.Errorf("auth: password hash file %s is empty", path)
	}
	return nil
}
