package store

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTTLWorkerRemovesStaleVisitors(t *testing.T) {
	repo := newTestStore(t)
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreAnyFunction("database/sql.(*DB).connectionCleaner"),
	)

	ctx := context.Background()
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.UpsertVisitor(ctx, &domain.Visitor{
		VisitorID: "visitor_stale", LastSeenAt: stale, CreatedAt: stale, UpdatedAt: stale,
	}))

	workerCtx, cancel := context.WithCancel(ctx)
	startTTLWorker(workerCtx, repo, time.Hour, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		v, err := repo.GetVisitor(ctx, "visitor_stale")
		return err == nil && v == nil
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
}
