// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package session

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/scrypt"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/logging"
)

// scrypt cost parameters. N=32768 keeps a single verification well under
// interactive latency while staying memory-hard against GPU brute force.
const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// CredentialVerifier checks the admin password against a pre-computed salted
// scrypt hash supplied out of band as hex. It holds no session state and
// fails closed on any configuration or decoding problem.
type CredentialVerifier struct {
	hashHex string
	saltHex string
}

// NewCredentialVerifier creates a verifier from hex-encoded secrets. Missing
// values are tolerated here and reported at verification time.
func NewCredentialVerifier(hashHex, saltHex string) *CredentialVerifier {
	return &CredentialVerifier{
		hashHex: hashHex,
		saltHex: saltHex,
	}
}

// Configured reports whether both secrets are present.
func (v *CredentialVerifier) Configured() bool {
	return v.hashHex != "" && v.saltHex != ""
}

// Verify reports whether the candidate password matches the configured hash.
// Never panics or returns an error: unset or malformed configuration, decode
// failures, and KDF failures all verify as false. The comparison runs in
// time independent of where a mismatch occurs.
func (v *CredentialVerifier) Verify(password string) bool {
	if !v.Configured() {
		logging.Warn().Msg("admin credentials not configured; rejecting login")
		return false
	}

	storedHash, err := hex.DecodeString(v.hashHex)
	if err != nil || len(storedHash) == 0 {
		logging.Warn().Msg("admin password hash is not valid hex; rejecting login")
		return false
	}

	salt, err := hex.DecodeString(v.saltHex)
	if err != nil {
		logging.Warn().Msg("admin salt is not valid hex; rejecting login")
		return false
	}

	computed, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(storedHash))
	if err != nil {
		logging.Warn().Err(err).Msg("password hashing failed; rejecting login")
		return false
	}

	return subtle.ConstantTimeCompare(computed, storedHash) == 1
}

// HashPassword derives the hex hash for a password and salt using the same
// parameters Verify uses. Exposed for the one-time credential setup tooling.
func HashPassword(password string, salt []byte, length int) (string, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, length)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
