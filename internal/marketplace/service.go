package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
)

// CredentialPort abstracts the encrypted credential store.
type CredentialPort interface {
	Save(ctx context.Context, ownerID int64, apiKey string) error
	Get(ctx context.Context, ownerID int64) (Credential, error)
	Owners(ctx context.Context) ([]int64, error)
}

// ClientPort abstracts the upstream adapter.
type ClientPort interface {
	Probe(ctx context.Context, apiKey string) ProbeResult
	FetchListings(ctx context.Context, apiKey string, limit int) ListingResult
}

// CachePort abstracts the listing snapshot cache.
type CachePort interface {
	Get(ctx context.Context, ownerID int64) ([]Listing, bool, error)
	Set(ctx context.Context, ownerID int64, listings []Listing) error
	Invalidate(ctx context.Context, ownerID int64) error
}

// RefreshEnqueuerPort schedules a background listing refresh for one owner.
type RefreshEnqueuerPort interface {
	EnqueueListingRefresh(ctx context.Context, ownerID int64) error
}

// Service combines credential storage, the upstream client and the redis
// cache. Concurrent listing requests for the same owner share one upstream
// call.
type Service struct {
	creds    CredentialPort
	client   ClientPort
	cache    CachePort
	enqueuer RefreshEnqueuerPort
	logger   *slog.Logger
	validate *validator.Validate
	group    singleflight.Group
}

// NewService constructs marketplace service. enqueuer may be nil when no
// background queue is wired, e.g. inside the worker itself.
func NewService(creds CredentialPort, client ClientPort, cache CachePort, enqueuer RefreshEnqueuerPort, logger *slog.Logger) *Service {
	return &Service{
		creds:    creds,
		client:   client,
		cache:    cache,
		enqueuer: enqueuer,
		logger:   logger,
		validate: validator.New(),
	}
}

// SaveCredential stores or replaces the owner's API key and drops the
// stale listing snapshot.
func (s *Service) SaveCredential(ctx context.Context, req SaveCredentialRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.creds.Save(ctx, req.OwnerID, req.APIKey); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, req.OwnerID); err != nil && s.logger != nil {
			s.logger.Warn("listing cache invalidation failed",
				slog.Int64("owner_id", req.OwnerID), slog.Any("error", err))
		}
	}
	// Warm the snapshot in the background with the new key. Enqueue failure
	// does not fail the save; the cron refresh covers it.
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueListingRefresh(ctx, req.OwnerID); err != nil && s.logger != nil {
			s.logger.Warn("listing refresh enqueue failed",
				slog.Int64("owner_id", req.OwnerID), slog.Any("error", err))
		}
	}
	return nil
}

// Probe runs a connectivity check with the owner's stored key. A missing
// credential is a result, not an error.
func (s *Service) Probe(ctx context.Context, ownerID int64) (ProbeResult, error) {
	cred, err := s.creds.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return ProbeResult{Outcome: OutcomeMissingCredential}, nil
		}
		return ProbeResult{}, err
	}
	return s.client.Probe(ctx, cred.APIKey), nil
}

// Listings serves the cached snapshot when fresh, otherwise fetches from
// upstream, deduplicating concurrent fetches per owner.
func (s *Service) Listings(ctx context.Context, ownerID int64, limit int) (ListingResult, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, ownerID)
		if err != nil && s.logger != nil {
			s.logger.Warn("listing cache read failed",
				slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
		if hit {
			return ListingResult{Outcome: OutcomeOK, Listings: cached, Cached: true}, nil
		}
	}

	ch := s.group.DoChan(fmt.Sprintf("listings:%d", ownerID), func() (any, error) {
		res, err := s.refresh(ctx, ownerID, limit)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	select {
	case <-ctx.Done():
		return ListingResult{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return ListingResult{}, out.Err
		}
		return out.Val.(ListingResult), nil
	}
}

// RefreshListings fetches a fresh snapshot for the owner, bypassing the
// cache read. The worker's cron task uses it.
func (s *Service) RefreshListings(ctx context.Context, ownerID int64, limit int) (ListingResult, error) {
	return s.refresh(ctx, ownerID, limit)
}

// CredentialOwners lists owners with a stored credential.
func (s *Service) CredentialOwners(ctx context.Context) ([]int64, error) {
	return s.creds.Owners(ctx)
}

func (s *Service) refresh(ctx context.Context, ownerID int64, limit int) (ListingResult, error) {
	cred, err := s.creds.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return ListingResult{Outcome: OutcomeMissingCredential, Listings: []Listing{}}, nil
		}
		return ListingResult{}, err
	}

	res := s.client.FetchListings(ctx, cred.APIKey, limit)
	// Fallback data is not worth caching; the next request should retry
	// the upstream.
	if res.Outcome == OutcomeOK && s.cache != nil {
		if err := s.cache.Set(ctx, ownerID, res.Listings); err != nil && s.logger != nil {
			s.logger.Warn("listing cache write failed",
				slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
	}
	return res, nil
}
