// Package jobs wires the asynq background worker: periodic marketplace
// listing refresh and idempotency-key retention cleanup.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atelier-erp/atelier-erp/internal/marketplace"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskListingRefresh refreshes cached marketplace listings for every
	// owner with a stored credential.
	TaskListingRefresh = "marketplace:listing_refresh"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"

	listingRefreshLimit  = 50
	idempotencyRetention = 30 * 24 * time.Hour
)

// ListingRefreshPayload scopes a refresh to one owner; zero means all.
type ListingRefreshPayload struct {
	OwnerID int64 `json:"owner_id"`
}

// NewListingRefreshTask constructs the refresh task.
func NewListingRefreshTask(payload ListingRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskListingRefresh, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// ListingRefresher is the marketplace surface the refresh task needs.
type ListingRefresher interface {
	CredentialOwners(ctx context.Context) ([]int64, error)
	RefreshListings(ctx context.Context, ownerID int64, limit int) (marketplace.ListingResult, error)
}

// NewListingRefreshHandler returns the handler for TaskListingRefresh.
func NewListingRefreshHandler(svc ListingRefresher, metrics *Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("listing_refresh")
		var payload ListingRefreshPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				_ = tracker.End(err)
				return asynq.SkipRetry
			}
		}

		owners := []int64{payload.OwnerID}
		if payload.OwnerID == 0 {
			var err error
			if owners, err = svc.CredentialOwners(ctx); err != nil {
				return tracker.End(err)
			}
		}

		for _, owner := range owners {
			res, err := svc.RefreshListings(ctx, owner, listingRefreshLimit)
			if err != nil {
				logger.Error("listing refresh failed",
					slog.Int64("owner_id", owner), slog.Any("error", err))
				continue
			}
			logger.Info("listing refresh",
				slog.Int64("owner_id", owner),
				slog.String("outcome", string(res.Outcome)),
				slog.Int("listings", len(res.Listings)))
		}
		return tracker.End(nil)
	}
}

// KeyCleaner is the idempotency surface the cleanup task needs.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleanupHandler returns the handler for TaskIdempotencyCleanup.
func NewIdempotencyCleanupHandler(store KeyCleaner, metrics *Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("idempotency_cleanup")
		if err := store.Cleanup(ctx, idempotencyRetention); err != nil {
			logger.Error("idempotency cleanup failed", slog.Any("error", err))
			return tracker.End(err)
		}
		return tracker.End(nil)
	}
}

var _ KeyCleaner = (*shared.IdempotencyStore)(nil)
