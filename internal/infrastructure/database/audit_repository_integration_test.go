//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/config"
	"github.com/MP2EZ/being-sub003/internal/testutil"
	"github.com/MP2EZ/being-sub003/internal/testutil/containers"
)

func setupRepository(t *testing.T) *AuditRepository {
	t.Helper()
	ctx := testutil.TestContext(t)
	logger := zaptest.NewLogger(t)

	pg, err := containers.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	require.NoError(t, Migrate(pg.ConnectionString, logger))
	require.NoError(t, Migrate(pg.ConnectionString, logger), "re-running migrations is a no-op")

	pool, err := NewPool(ctx, &config.DatabaseConfig{URL: pg.ConnectionString, MaxConns: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewAuditRepository(pool)
}

func chainedEntries(t *testing.T, n int, prevSeq int64, prevHash string) []*audit.Entry {
	t.Helper()
	out := make([]*audit.Entry, 0, n)
	at := time.Now()
	for i := 0; i < n; i++ {
		e := audit.NewEntryBuilder(audit.EventOperationExecuted, "crisis_button", at.Add(time.Duration(i)*time.Millisecond)).
			WithSession("session-1", "device-1", "").
			WithSeverity("critical").
			WithDuration(3*time.Millisecond).
			WithOutcome(true, "").
			WithMetadata("hotlines", 3).
			Build()
		require.NoError(t, e.Chain(prevSeq+int64(i)+1, prevHash))
		prevHash = e.Hash
		out = append(out, e)
	}
	return out
}

func TestAuditRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repo := setupRepository(t)
	ctx := testutil.TestContext(t)

	seq, hash, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)
	assert.Empty(t, hash)

	first := chainedEntries(t, 3, 0, "")
	require.NoError(t, repo.Append(ctx, first))

	seq, hash, err = repo.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
	assert.Equal(t, first[2].Hash, hash)

	second := chainedEntries(t, 2, seq, hash)
	require.NoError(t, repo.Append(ctx, second))

	t.Run("stored chain verifies", func(t *testing.T) {
		entries, err := repo.Range(ctx, 1, 100)
		require.NoError(t, err)
		require.Len(t, entries, 5)
		result := audit.VerifyChain(entries)
		assert.True(t, result.IsValid, "breaks: %v", result.Breaks)
	})

	t.Run("by session", func(t *testing.T) {
		entries, err := repo.BySession(ctx, "session-1")
		require.NoError(t, err)
		assert.Len(t, entries, 5)
	})

	t.Run("duplicate sequence rejected atomically", func(t *testing.T) {
		dup := chainedEntries(t, 2, 4, second[0].Hash)
		err := repo.Append(ctx, dup)
		require.Error(t, err)

		seq, _, err := repo.Last(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), seq)
	})

	t.Run("entries are append-only", func(t *testing.T) {
		_, err := repo.db.Exec(ctx, "UPDATE audit_entries SET reason = 'edited' WHERE sequence_number = 1")
		assert.Error(t, err)
	})
}
