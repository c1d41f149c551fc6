package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringProviderRefreshesOnFirstUse(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok-1", time.Now().Add(time.Hour), nil
	}

	p := NewKeyringProvider(fetch, true)
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, calls)
}

func TestKeyringProviderReusesUnexpiredToken(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok-1", time.Now().Add(time.Hour), nil
	}

	p := NewKeyringProvider(fetch, true)
	_, err := p.Token(context.Background())
	require.NoError(t, err)
	_, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestKeyringProviderRefreshesNearExpiry(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok", time.Now().Add(30 * time.Second), nil
	}

	p := NewKeyringProvider(fetch, true)
	_, err := p.Token(context.Background())
	require.NoError(t, err)
	_, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
