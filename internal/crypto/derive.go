// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Versioned labels fixing the derivation context. Bumping the version
// changes every derived key, so a bump must ship together with a scheme
// migration.
const (
	saltLabel = "fieldvault-salt-v1:"
	keyLabel  = "fieldvault-key-v1:"

	pbkdf2Iterations = 100_000
	derivedKeyLen    = 32 // 256 bits
	derivedSaltLen   = 16
)

// keyDeriver is the private implementation of [KeyDeriver].
type keyDeriver struct {
	iterations int
}

// NewKeyDeriver constructs a [KeyDeriver] running PBKDF2-HMAC-SHA256 with
// 100 000 iterations over account-scoped key material.
func NewKeyDeriver() KeyDeriver {
	return &keyDeriver{iterations: pbkdf2Iterations}
}

// DeriveKey implements [KeyDeriver]. The salt is the first 16 bytes of
// SHA-256 over a versioned salt label plus the account id; the key material
// is a versioned key label plus the account id. Both inputs are fixed, so
// the derived key is byte-identical across sessions and devices.
func (d *keyDeriver) DeriveKey(accountID string) ([]byte, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}

	saltDigest := sha256.Sum256([]byte(saltLabel + accountID))
	salt := saltDigest[:derivedSaltLen]

	material := []byte(keyLabel + accountID)
	key := pbkdf2.Key(material, salt, d.iterations, derivedKeyLen, sha256.New)

	return key, nil
}
