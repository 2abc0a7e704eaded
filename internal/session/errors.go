package session

import "errors"

var (
	// ErrNoAccount is returned when Initialize is called before sign-in
	// completed, i.e. without an account identifier.
	ErrNoAccount = errors.New("no authenticated account")

	// ErrKeyDerivation is returned when the key derivation primitive fails.
	// Fatal to initialization; never retried automatically.
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrSelfTest is returned when the freshly derived key fails its
	// encrypt/decrypt round trip. A key that cannot pass its own self-test
	// must never be marked ready.
	ErrSelfTest = errors.New("key self-test failed")
)
