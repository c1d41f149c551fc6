package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecordsAndListsRequests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	store.Record(ctx, RequestRecord{
		ID: "r1", Model: "claude-4.1-opus", Streamed: true, DurationMS: 120,
		CreatedAt: time.Now(),
	})
	store.Record(ctx, RequestRecord{
		ID: "r2", Model: "claude-4.1-opus", Streamed: false, DurationMS: 50,
		QuotaRefreshed: true, ErrorKind: "upstream_quota", CreatedAt: time.Now(),
	})

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r2", recent[0].ID)
	assert.True(t, recent[0].QuotaRefreshed)
	assert.Equal(t, "upstream_quota", recent[0].ErrorKind)
}
