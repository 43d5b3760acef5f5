// Package kek manages the orchestrator's process-wide key-encryption-key and
// the per-instance data-encryption-keys wrapped with it.
package kek

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/crypto/hkdf"
)

// KEK is the process-wide, immutable key-encryption-key. It is read once
// from a mounted file at startup (spec.md §5, §9) and never logged or
// persisted unencrypted.
type KEK struct {
	raw []byte
}

// Load reads the KEK from the given file path. The file must contain at
// least 32 bytes; shorter files are rejected rather than silently padded.
func Load(path string) (*KEK, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading KEK file %s: %w", path, err)
	}
	if len(raw) < 32 {
		return nil, fmt.Errorf("KEK file %s contains %d bytes, need at least 32", path, len(raw))
	}
	return &KEK{raw: raw}, nil
}

// GenerateDEK returns 32 random bytes suitable for use as a per-instance
// data-encryption-key.
func GenerateDEK() ([]byte, error) {
	dek := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, dek); err != nil {
		return nil, fmt.Errorf("generating DEK: %w", err)
	}
	return dek, nil
}

// subkey derives a per-instance AES-256 key from the KEK via HKDF-SHA256,
// using the instance ID as context so that a leaked DEK-wrapping key for one
// instance cannot be reused to unwrap another instance's DEK.
func (k *KEK) subkey(instanceID int64) ([]byte, error) {
	info := []byte("xcord-hub-instance-dek:" + strconv.FormatInt(instanceID, 10))
	r := hkdf.New(sha256.New, k.raw, nil, info)
	sub := make([]byte, 32)
	if _, err := io.ReadFull(r, sub); err != nil {
		return nil, fmt.Errorf("deriving subkey: %w", err)
	}
	return sub, nil
}

// Wrap seals a per-instance DEK with a KEK-derived subkey using AES-256-GCM
// and returns the hex-encoded ciphertext (nonce prefixed).
func (k *KEK) Wrap(instanceID int64, dek []byte) (string, error) {
	sub, err := k.subkey(instanceID)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(sub)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, dek, nil)
	return hex.EncodeToString(ciphertext), nil
}

// Unwrap reverses Wrap, recovering the raw DEK bytes.
func (k *KEK) Unwrap(instanceID int64, wrapped string) ([]byte, error) {
	sub, err := k.subkey(instanceID)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("decoding wrapped DEK: %w", err)
	}

	block, err := aes.NewCipher(sub)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("wrapped DEK too short")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	dek, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping DEK: %w", err)
	}
	return dek, nil
}
