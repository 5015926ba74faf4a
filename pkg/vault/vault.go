// Package vault implements the client-side encryption envelope for
// liquidstore values.
//
// A sealed value is hex(nonce || ciphertext || tag), produced with an AEAD
// cipher under a caller-supplied 256-bit master key. The store itself never
// sees the key; sealing and opening happen entirely on the caller side.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required master key length in bytes (AES-256 / ChaCha20).
const KeySize = 32

var (
	// ErrInvalidKeySize indicates the master key is not exactly KeySize
	// bytes. Short or long keys are rejected, never truncated or padded.
	ErrInvalidKeySize = errors.New("vault: key must be 32 bytes")

	// ErrCannotDecrypt covers every open failure: bad encoding, undersized
	// input, wrong key, or tampered ciphertext. The cases are deliberately
	// indistinguishable.
	ErrCannotDecrypt = errors.New("vault: cannot decrypt")
)

// Algorithm selects the AEAD used by a Cipher.
type Algorithm string

const (
	// AlgorithmAESGCM is the default envelope algorithm.
	AlgorithmAESGCM Algorithm = "aes-gcm"

	// AlgorithmChaCha20 is the software-friendly alternative for hosts
	// without AES acceleration.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Cipher is a stateless envelope bound to one master key.
type Cipher struct {
	aead cipher.AEAD
	algo Algorithm
}

// NewCipher creates an AES-256-GCM envelope cipher.
func NewCipher(key []byte) (*Cipher, error) {
	return NewCipherWithAlgorithm(key, AlgorithmAESGCM)
}

// NewCipherWithAlgorithm creates an envelope cipher with an explicit
// algorithm. Both algorithms produce interchangeable envelope layouts but
// not interchangeable ciphertexts.
func NewCipherWithAlgorithm(key []byte, algo Algorithm) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	switch algo {
	case AlgorithmAESGCM, "":
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &Cipher{aead: aead, algo: AlgorithmAESGCM}, nil
	case AlgorithmChaCha20:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		return &Cipher{aead: aead, algo: AlgorithmChaCha20}, nil
	default:
		return nil, errors.New("vault: unknown algorithm: " + string(algo))
	}
}

// Algorithm returns the cipher's algorithm.
func (c *Cipher) Algorithm() Algorithm {
	return c.algo
}

// Seal encrypts plaintext, prepending a fresh random nonce, and returns
// the hex-encoded envelope.
func (c *Cipher) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	combined := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(combined), nil
}

// Open decrypts a hex-encoded envelope produced by Seal.
func (c *Cipher) Open(encoded string) (string, error) {
	combined, err := hex.DecodeString(encoded)
	if err != nil {
		return "", ErrCannotDecrypt
	}
	if len(combined) < c.aead.NonceSize() {
		return "", ErrCannotDecrypt
	}

	nonce, ciphertext := combined[:c.aead.NonceSize()], combined[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCannotDecrypt
	}
	return string(plaintext), nil
}

// Seal is the one-shot form: encrypt plaintext under key with AES-256-GCM.
func Seal(plaintext string, key []byte) (string, error) {
	c, err := NewCipher(key)
	if err != nil {
		return "", err
	}
	return c.Seal(plaintext)
}

// Open is the one-shot form: decrypt an envelope under key.
func Open(encoded string, key []byte) (string, error) {
	c, err := NewCipher(key)
	if err != nil {
		return "", err
	}
	return c.Open(encoded)
}
