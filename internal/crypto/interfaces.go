package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// KeyDeriver turns an account identifier into a reproducible AES-256 key.
// Derivation is deterministic: the same account always yields the same key,
// so every device of the account reconstructs it without the key ever being
// stored or transmitted.
//
// The account identifier is not a secret. Anyone holding it plus this
// algorithm can rebuild the key; that tradeoff buys zero-friction
// multi-device sync and is a recorded product decision, not a bug to patch
// here.
type KeyDeriver interface {
	// DeriveKey derives the 256-bit key for accountID. An empty accountID is
	// refused: no key must ever be derived for a missing identity.
	DeriveKey(accountID string) ([]byte, error)
}

// FieldCipher encrypts and decrypts a single record field value with
// AES-256-GCM. The wire form is base64(nonce || ciphertext+tag) with a fresh
// random 96-bit nonce on every Encrypt call.
type FieldCipher interface {
	// Encrypt ciphers a scalar or JSON-serialisable value under key.
	// Returns an error if the key length is wrong, serialisation fails, or
	// the nonce cannot be generated.
	Encrypt(key []byte, value any) (string, error)

	// Decrypt reverses Encrypt. Inputs too short or not base64 at all are
	// returned unchanged with a nil error: they are legacy plaintext values
	// that predate encryption, not failures. An authentication-tag mismatch
	// (tampering or wrong key) returns ErrDecrypt.
	//
	// On success the value comes back in the shape it was encrypted:
	// numeric text as a number, JSON text as the parsed structure,
	// everything else as a string.
	Decrypt(key []byte, ciphertext string) (any, error)
}
