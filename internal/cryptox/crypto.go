// Package cryptox implements the at-rest obfuscation applied to diary
// content before it is written to the remote document store.
//
// The AES key is derived from the account identifier, which anyone who knows
// the account id can reproduce. This is a data-shape compatibility measure
// for round-tripping existing records, not a confidentiality boundary.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// accountKeySalt is fixed so every client derives the same key for a given
// account id. Changing it would orphan all previously written contentEnc.
const accountKeySalt = "moodiary.account.v1"

const nonceSize = 12

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveAccountKey derives the 32-byte AES key for a user's stored content
// from their account identifier.
func DeriveAccountKey(accountID string) []byte {
	return argon2.IDKey([]byte(accountID), []byte(accountKeySalt), 1, 64*1024, 4, 32)
}

// EncryptContent encrypts plaintext with AES-256-GCM and returns the wire
// form stored in the contentEnc field: base64(nonce || ciphertext).
func EncryptContent(plain string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	sealed := aesgcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptContent reverses EncryptContent. Callers treat any error as "no
// usable ciphertext" and fall back to the legacy plaintext field.
func DecryptContent(encoded string, key []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(raw) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}

	plain, err := aesgcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}
