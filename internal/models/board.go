package models

import (
	"strings"
	"time"
)

type Board struct {
	Id          string
	Name        string
	SyncEnabled bool
	// EncryptedToken holds the GitHub access token as nonce_hex:ciphertext_hex.
	EncryptedToken *string
	// RepoFullName is the "owner/name" of the mirrored repository.
	RepoFullName *string
	// ProjectNumber is the GitHub Projects v2 number, when the board also
	// mirrors its status into a project field.
	ProjectNumber *int
	CreatedAt     time.Time
}

// SyncConfigured reports whether the board can talk to GitHub at all.
// SyncEnabled without a token or repo is a broken configuration and is
// treated as disabled.
func (b Board) SyncConfigured() bool {
	return b.SyncEnabled && b.EncryptedToken != nil && b.RepoFullName != nil
}

// SplitRepo splits an "owner/name" identifier.
func SplitRepo(fullName string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, true
}
