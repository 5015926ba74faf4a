package vault

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the salt length used for passphrase key derivation.
const SaltSize = 16

// Argon2id parameters. Fixed; changing them changes every derived key.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// ErrPassphraseTooWeak indicates the passphrase is below the minimum length.
var ErrPassphraseTooWeak = errors.New("vault: passphrase too weak (minimum 8 characters)")

// MinPassphraseLength is the minimum accepted passphrase length.
const MinPassphraseLength = 8

// DeriveKey derives a KeySize-byte master key from a passphrase using
// Argon2id. If salt is nil a fresh random salt is generated; the caller
// must persist the returned salt to derive the same key again.
func DeriveKey(passphrase, salt []byte) (key, usedSalt []byte, err error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, nil, ErrPassphraseTooWeak
	}
	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, fmt.Errorf("vault: derive key: %w", err)
		}
	} else if len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("vault: salt must be %d bytes", SaltSize)
	}

	key = argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, KeySize)
	return key, salt, nil
}

// GenerateKey generates a random KeySize-byte master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("vault: generate key: %w", err)
	}
	return key, nil
}

// ZeroKey zeros a key in memory after use.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
