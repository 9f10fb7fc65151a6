package kvstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const hkdfInfo = "ai-trainer kvstore v1"

// EncryptedStore seals every value with XChaCha20-Poly1305 before handing it
// to the inner store. The key name is bound as associated data, so a value
// copied under another key fails to open.
type EncryptedStore struct {
	inner Store
	aead  cipher.AEAD
}

// NewEncryptedStore derives a 256-bit key from secret and wraps inner.
func NewEncryptedStore(inner Store, secret string) (*EncryptedStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &EncryptedStore{inner: inner, aead: aead}, nil
}

// Get returns the decrypted value stored under key
func (s *EncryptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode key %s: %w", key, err)
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", false, fmt.Errorf("ciphertext for key %s is too short", key)
	}

	plain, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("failed to decrypt key %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Set encrypts value and stores it under key
func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

// Delete removes key
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Close closes the inner store
func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}
