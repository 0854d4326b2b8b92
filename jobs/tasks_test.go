package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/marketplace"
)

type fakeRefresher struct {
	owners    []int64
	refreshed []int64
	fail      bool
}

func (f *fakeRefresher) CredentialOwners(ctx context.Context) ([]int64, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	return f.owners, nil
}

func (f *fakeRefresher) RefreshListings(ctx context.Context, ownerID int64, limit int) (marketplace.ListingResult, error) {
	f.refreshed = append(f.refreshed, ownerID)
	return marketplace.ListingResult{Outcome: marketplace.OutcomeOK}, nil
}

type fakeCleaner struct {
	olderThan time.Duration
	err       error
}

func (f *fakeCleaner) Cleanup(ctx context.Context, olderThan time.Duration) error {
	f.olderThan = olderThan
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestListingRefreshHandlerAllOwners(t *testing.T) {
	refresher := &fakeRefresher{owners: []int64{1, 2, 3}}
	handler := NewListingRefreshHandler(refresher, nil, discardLogger())

	task, err := NewListingRefreshTask(ListingRefreshPayload{})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{1, 2, 3}, refresher.refreshed)
}

func TestListingRefreshHandlerSingleOwner(t *testing.T) {
	refresher := &fakeRefresher{owners: []int64{1, 2, 3}}
	handler := NewListingRefreshHandler(refresher, nil, discardLogger())

	task, err := NewListingRefreshTask(ListingRefreshPayload{OwnerID: 2})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{2}, refresher.refreshed)
}

func TestListingRefreshHandlerBadPayloadSkipsRetry(t *testing.T) {
	handler := NewListingRefreshHandler(&fakeRefresher{}, nil, discardLogger())

	err := handler(context.Background(), asynq.NewTask(TaskListingRefresh, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanupHandler(t *testing.T) {
	cleaner := &fakeCleaner{}
	handler := NewIdempotencyCleanupHandler(cleaner, nil, discardLogger())

	require.NoError(t, handler(context.Background(), NewIdempotencyCleanupTask()))
	require.Equal(t, idempotencyRetention, cleaner.olderThan)

	cleaner.err = errors.New("db down")
	require.Error(t, handler(context.Background(), NewIdempotencyCleanupTask()))
}
