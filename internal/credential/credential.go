// Package credential provides the bearer-token collaborator C4 depends on
// to authenticate upstream requests. The pipeline never verifies the token
// itself — only inspects its expiry for scheduling.
package credential

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	zkr "github.com/zalando/go-keyring"

	"github.com/halcyon-ai/relaygw/internal/logging"
)

const (
	keyringService = "relaygw"
	keyringAccount = "upstream-bearer-token"
)

// CachedToken is the in-memory representation of the last fetched token.
type CachedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Provider is the collaborator C4 consumes to obtain and refresh a bearer token.
type Provider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Fetcher performs the actual network exchange for a new token. Supplied by
// the caller wiring KeyringProvider — relaygw itself never hardcodes an
// identity-provider endpoint.
type Fetcher func(ctx context.Context) (token string, expiresAt time.Time, err error)

// KeyringProvider caches the current bearer token in memory, persists the
// last-known-good value to the OS keychain so a process restart does not
// require an immediate refresh, and proactively refreshes ahead of expiry.
type KeyringProvider struct {
	mu      sync.RWMutex
	current CachedToken

	fetch           Fetcher
	keyringDisabled bool
}

// NewKeyringProvider constructs a provider backed by fetch. If a value is
// already present in the OS keychain it is loaded as the initial token.
func NewKeyringProvider(fetch Fetcher, keyringDisabled bool) *KeyringProvider {
	p := &KeyringProvider{fetch: fetch, keyringDisabled: keyringDisabled}
	if tok, ok := p.loadFromKeyring(); ok {
		p.mu.Lock()
		p.current = tok
		p.mu.Unlock()
	}
	return p
}

// Token returns the cached token, refreshing first if it is within 60
// seconds of expiry or has never been populated.
func (p *KeyringProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	tok := p.current
	p.mu.RUnlock()

	if tok.Value != "" && time.Until(tok.ExpiresAt) > 60*time.Second {
		return tok.Value, nil
	}
	return p.Refresh(ctx)
}

// Refresh unconditionally fetches a new token and updates the cache and keychain.
func (p *KeyringProvider) Refresh(ctx context.Context) (string, error) {
	value, expiresAt, err := p.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("credential: refresh: %w", err)
	}
	if expiresAt.IsZero() {
		expiresAt = expiryFromJWT(value)
	}

	p.mu.Lock()
	p.current = CachedToken{Value: value, ExpiresAt: expiresAt}
	p.mu.Unlock()

	p.saveToKeyring(value)
	return value, nil
}

// expiryFromJWT inspects the token's exp claim without verifying its
// signature — the upstream remains the sole authority on validity.
func expiryFromJWT(token string) time.Time {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return time.Time{}
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}
	}
	return time.Unix(int64(exp), 0)
}

func (p *KeyringProvider) loadFromKeyring() (CachedToken, bool) {
	if p.keyringDisabled {
		return CachedToken{}, false
	}
	encoded, err := zkr.Get(keyringService, keyringAccount)
	if err != nil {
		return CachedToken{}, false
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return CachedToken{}, false
	}
	value := string(raw)
	return CachedToken{Value: value, ExpiresAt: expiryFromJWT(value)}, true
}

func (p *KeyringProvider) saveToKeyring(value string) {
	if p.keyringDisabled {
		return
	}
	if err := zkr.Set(keyringService, keyringAccount, hex.EncodeToString([]byte(value))); err != nil {
		logging.Warnf("credential: failed to persist token to keyring: %v", err)
	}
}
