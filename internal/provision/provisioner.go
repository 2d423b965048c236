// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package provision maps capability tokens to per-client views of the media roots.

Each distinct token owns a grant folder under the grant root, named by the
token's last characters and holding one symbolic link per media kind. The
folder name doubles as a capability: static media is served from it without a
token.

Lifecycle:

  - Ensure creates a grant lazily on the first authorized request, and is a
    cheap existence check afterwards.
  - PurgeAll removes every grant except the reserved assets folder. It runs
    once at startup, never while clients may be mid-download.
*/
package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// Provisioner creates and purges grant folders.
type Provisioner struct {
	root      string
	links     map[string]string
	suffixLen int
	logger    *slog.Logger

	// inflight collapses concurrent first requests for the same token.
	inflight singleflight.Group
}

// New creates a Provisioner rooted at root.
//
// links maps a link name (media kind) to the directory it points at; relative
// targets are resolved against the working directory.
func New(root string, links map[string]string, suffixLen int, logger *slog.Logger) (*Provisioner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("provision: resolve root %s: %w", root, err)
	}

	resolved := make(map[string]string, len(links))
	for name, target := range links {
		absTarget, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("provision: resolve %s target %s: %w", name, target, err)
		}
		resolved[name] = absTarget
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("provision: create root: %w", err)
	}

	return &Provisioner{
		root:      absRoot,
		links:     resolved,
		suffixLen: suffixLen,
		logger:    logger,
	}, nil
}

// Root returns the absolute grant root.
func (provisioner *Provisioner) Root() string {
	return provisioner.root
}

// GrantName derives the folder name of a token: its last suffixLen characters.
func (provisioner *Provisioner) GrantName(token string) string {
	if len(token) <= provisioner.suffixLen {
		return token
	}
	return token[len(token)-provisioner.suffixLen:]
}

// Exists reports whether grant names a provisioned folder.
func (provisioner *Provisioner) Exists(grant string) bool {
	if !validGrantName(grant) || grant == constants.ReservedAssetsFolder {
		return false
	}
	info, err := os.Stat(filepath.Join(provisioner.root, grant))
	return err == nil && info.IsDir()
}

// Ensure makes sure the token's grant folder exists and returns its name.
//
// It is idempotent and safe to call on every request: once the folder exists
// the cost is a single stat.
func (provisioner *Provisioner) Ensure(token string) (string, error) {
	grant := provisioner.GrantName(token)
	if !validGrantName(grant) || grant == constants.ReservedAssetsFolder {
		return "", fmt.Errorf("provision: token yields unusable grant name %q", grant)
	}

	dir := filepath.Join(provisioner.root, grant)
	if _, err := os.Lstat(dir); err == nil {
		return grant, nil
	}

	_, err, _ := provisioner.inflight.Do(grant, func() (any, error) {
		return nil, provisioner.create(dir)
	})
	if err != nil {
		return "", err
	}

	return grant, nil
}

// create builds the folder and its links. On failure the partial folder is
// removed so that the next request retries instead of finding a broken grant.
func (provisioner *Provisioner) create(dir string) error {
	if _, err := os.Lstat(dir); err == nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("provision: create grant: %w", err)
	}

	for name, target := range provisioner.links {
		err := os.Symlink(target, filepath.Join(dir, name))
		if err != nil && !errors.Is(err, fs.ErrExist) {
			_ = os.RemoveAll(dir)
			return fmt.Errorf("provision: link %s: %w", name, err)
		}
	}

	provisioner.logger.Info("grant_provisioned",
		slog.String("grant", filepath.Base(dir)),
		slog.Int("links", len(provisioner.links)),
	)
	return nil
}

// PurgeAll deletes every grant folder except the reserved assets folder.
//
// Only call it before the server accepts connections.
func (provisioner *Provisioner) PurgeAll() error {
	entries, err := os.ReadDir(provisioner.root)
	if err != nil {
		return fmt.Errorf("provision: list grants: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.Name() == constants.ReservedAssetsFolder {
			continue
		}
		if err := os.RemoveAll(filepath.Join(provisioner.root, entry.Name())); err != nil {
			return fmt.Errorf("provision: remove grant %s: %w", entry.Name(), err)
		}
		removed++
	}

	provisioner.logger.Info("grants_purged", slog.Int("removed", removed))
	return nil
}

// validGrantName rejects names that could escape the grant root.
func validGrantName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
