// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	gcmNonceLen = 12
	gcmTagLen   = 16

	// minCipherTextLen is the smallest decoded blob Decrypt will treat as a
	// real ciphertext. Anything shorter cannot contain a nonce plus an auth
	// tag and is handed back unchanged as legacy plaintext.
	minCipherTextLen = gcmNonceLen + gcmTagLen
)

// fieldCipher is the private implementation of [FieldCipher].
type fieldCipher struct{}

// NewFieldCipher constructs an AES-256-GCM [FieldCipher].
func NewFieldCipher() FieldCipher {
	return &fieldCipher{}
}

// Encrypt implements [FieldCipher]. The value is serialised to text
// (strings as-is, everything else via JSON), sealed with AES-256-GCM under
// a fresh random 12-byte nonce, and returned as base64(nonce || ct+tag).
func (f *fieldCipher) Encrypt(key []byte, value any) (string, error) {
	if len(key) != derivedKeyLen {
		return "", fmt.Errorf("%w: %d", ErrInvalidKey, len(key))
	}

	plaintext, err := encodePlainValue(value)
	if err != nil {
		return "", fmt.Errorf("serialize field value: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ct := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	blob := append(nonce, ct...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt implements [FieldCipher]. Values that cannot possibly be
// ciphertexts (empty, not base64, shorter than nonce+tag) are returned
// unchanged so that records written before encryption was introduced keep
// reading back correctly.
func (f *fieldCipher) Decrypt(key []byte, ciphertext string) (any, error) {
	if len(key) != derivedKeyLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKey, len(key))
	}
	if ciphertext == "" {
		return ciphertext, nil
	}

	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		// Not base64 at all: a legacy plaintext value, not an error.
		return ciphertext, nil
	}
	if len(blob) < minCipherTextLen {
		return ciphertext, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	nonce, ct := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return decodePlainValue(string(plaintext)), nil
}

// encodePlainValue turns a field value into the text that gets sealed.
// Strings are used verbatim; numbers, booleans, and nested structures go
// through JSON so decodePlainValue can restore their shape.
func encodePlainValue(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodePlainValue restores the shape of a decrypted value: numeric text
// parses back to a number, JSON text back to a structure, everything else
// stays a string.
func decodePlainValue(plaintext string) any {
	if plaintext == "" {
		return ""
	}

	if n, err := strconv.ParseFloat(plaintext, 64); err == nil {
		return n
	}

	switch plaintext[0] {
	case '{', '[', '"':
		var value any
		if err := json.Unmarshal([]byte(plaintext), &value); err == nil {
			return value
		}
	}

	switch strings.TrimSpace(plaintext) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	return plaintext
}
