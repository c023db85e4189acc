// Package vault encrypts registry access tokens at rest with AES-256-GCM.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// KeySize is the required key length for AES-256.
const KeySize = 32

// Vault performs authenticated symmetric encryption with a process-wide key.
type Vault struct {
	key []byte
}

// New returns a Vault or an error when the key is not exactly 32 bytes.
func New(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("vault: key must be %d bytes, got %d", KeySize, len(key))
	}
	v := &Vault{key: make([]byte, KeySize)}
	copy(v.key, key)
	return v, nil
}

// Encrypt seals secret and returns the ciphertext and nonce as hex strings.
// The nonce is stored separately from the ciphertext.
func (v *Vault) Encrypt(secret string) (cipherHex, ivHex string, err error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(secret), nil)
	return hex.EncodeToString(sealed), hex.EncodeToString(nonce), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (v *Vault) Decrypt(cipherHex, ivHex string) (string, error) {
	sealed, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("vault: bad ciphertext encoding: %w", err)
	}
	nonce, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("vault: bad iv encoding: %w", err)
	}
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("vault: iv must be %d bytes, got %d", gcm.NonceSize(), len(nonce))
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("vault: decryption failed (wrong key or tampered data)")
	}
	return string(plain), nil
}
