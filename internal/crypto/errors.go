package crypto

import "errors"

var (
	// ErrNoAccount is returned when key derivation is attempted without an
	// authenticated account identifier.
	ErrNoAccount = errors.New("no account id provided")

	// ErrInvalidKey is returned when a cipher operation receives a key that
	// is not 32 bytes long.
	ErrInvalidKey = errors.New("invalid key length")

	// ErrDecrypt is returned when the GCM authentication tag does not verify:
	// the ciphertext was tampered with or a different key was used.
	ErrDecrypt = errors.New("field decryption failed")
)
