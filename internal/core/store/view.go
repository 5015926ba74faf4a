package store

import (
	"context"
	"encoding/json"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
	"github.com/celerix-dev/liquidstore/pkg/vault"
)

// AppView pins a (persona, app) pair over any Store backend. It adds no
// logic of its own; it exists so application code can hold one handle per
// app instead of repeating coordinates.
type AppView struct {
	store   Store
	persona string
	app     string
}

// App returns a view pinned to (persona, app).
func App(s Store, persona, app string) *AppView {
	return &AppView{store: s, persona: persona, app: app}
}

// Get fetches the value at key.
func (v *AppView) Get(ctx context.Context, key string) (domain.Value, error) {
	return v.store.Get(ctx, v.persona, v.app, key)
}

// Set upserts the value at key.
func (v *AppView) Set(ctx context.Context, key string, value domain.Value) error {
	return v.store.Set(ctx, v.persona, v.app, key, value)
}

// Delete removes key if present.
func (v *AppView) Delete(ctx context.Context, key string) error {
	return v.store.Delete(ctx, v.persona, v.app, key)
}

// Dump returns the view's full Key -> Value map.
func (v *AppView) Dump(ctx context.Context) (domain.AppData, error) {
	return v.store.DumpApp(ctx, v.persona, v.app)
}

// Vault layers the crypto envelope over this view with the given 32-byte
// master key. The cipher is constructed eagerly so a bad key fails here,
// not on first use.
func (v *AppView) Vault(masterKey []byte) (*VaultView, error) {
	c, err := vault.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	return &VaultView{view: v, cipher: c}, nil
}

// GetAs fetches the value at key and unmarshals it into T.
func GetAs[T any](ctx context.Context, v *AppView, key string) (T, error) {
	var out T
	raw, err := v.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, domain.ErrInternal.WithCause(err)
	}
	return out, nil
}

// SetFrom marshals value and stores it at key.
func SetFrom[T any](ctx context.Context, v *AppView, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return domain.ErrInternal.WithCause(err)
	}
	return v.Set(ctx, key, raw)
}

// VaultView reads and writes envelope-encrypted string values through an
// AppView. The store only ever sees the hex envelope as a JSON string; it
// has no awareness that the key is vault-encrypted.
type VaultView struct {
	view   *AppView
	cipher *vault.Cipher
}

// Get fetches and decrypts the value at key.
func (v *VaultView) Get(ctx context.Context, key string) (string, error) {
	raw, err := v.view.Get(ctx, key)
	if err != nil {
		return "", err
	}

	var envelope string
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", domain.Internalf("vault data is not a string")
	}

	plaintext, err := v.cipher.Open(envelope)
	if err != nil {
		return "", domain.ErrInternal.WithCause(err)
	}
	return plaintext, nil
}

// Set encrypts plaintext and stores the envelope at key.
func (v *VaultView) Set(ctx context.Context, key, plaintext string) error {
	envelope, err := v.cipher.Seal(plaintext)
	if err != nil {
		return domain.ErrInternal.WithCause(err)
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return domain.ErrInternal.WithCause(err)
	}
	return v.view.Set(ctx, key, raw)
}
