package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// EncryptionConfig holds the keys for sealing and opening run records.
type EncryptionConfig struct {
	// ActiveKey seals new records. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a
	// record. This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.RunStore
	config EncryptionConfig
}

// NewEncryption creates a middleware that seals each run with AES-GCM before
// it reaches the backing store. The stored envelope keeps only ID, status and
// timestamps in the clear; technologies, document and error text live in the
// sealed payload.
func NewEncryption(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.RunStore) ports.RunStore {
		return &encryptionMiddleware{next: next, config: config}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, run *domain.Run) error {
	plaintext, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run for sealing: %w", err)
	}

	sealed, err := seal(plaintext, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("seal run: %w", err)
	}

	envelope := &domain.Run{
		ID:        run.ID,
		Status:    run.Status,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
		Sealed:    sealed,
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Get(ctx context.Context, id string) (*domain.Run, error) {
	envelope, err := m.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.open(envelope)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]*domain.Run, error) {
	envelopes, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	runs := make([]*domain.Run, len(envelopes))
	for i, envelope := range envelopes {
		run, err := m.open(envelope)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", envelope.ID, err)
		}
		runs[i] = run
	}
	return runs, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

// open unseals an envelope. A record without a sealed payload fails rather
// than being passed through: with encryption configured, a plain record in
// the store is a misconfiguration.
func (m *encryptionMiddleware) open(envelope *domain.Run) (*domain.Run, error) {
	if len(envelope.Sealed) == 0 {
		return nil, errors.New("run record is missing its sealed payload")
	}

	plaintext, err := openWithRotation(envelope.Sealed, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("unseal run: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(plaintext, &run); err != nil {
		return nil, fmt.Errorf("unmarshal unsealed run: %w", err)
	}
	return &run, nil
}

func seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func openWithRotation(sealed, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := open(sealed, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := open(sealed, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("no available key opens this record")
}

func open(sealed, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("sealed payload too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
