package repository

import (
	"context"
	"gig-market/internal/models"
	"time"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// MarketStore defines gig and bid persistence for the market core.
//
// Implementations own every consistency guarantee of the aggregate: the (gig, freelancer)
// uniqueness constraint, the open-gig condition on bid inserts, and the all-or-nothing
// hire transition. Infrastructure faults are reported wrapped in marketerrors.ErrTransient.
type MarketStore interface {
	InsertGig(ctx context.Context, gig models.Gig) error
	GetGig(ctx context.Context, gigID string) (models.Gig, error)
	ListGigs(ctx context.Context, filter models.GigFilter) ([]models.Gig, error)

	// InsertBid fails with ErrGigNotFound, ErrGigNotOpen or ErrDuplicateBid, checked at commit.
	InsertBid(ctx context.Context, bid models.Bid) error
	GetBid(ctx context.Context, bidID string) (models.Bid, error)
	// ListBidsByGig returns the gig's bids newest-first; an unknown gig yields an empty slice.
	ListBidsByGig(ctx context.Context, gigID string) ([]models.Bid, error)

	// HireBid flips the gig open->assigned, the bid to hired and every sibling to rejected
	// as one unit, then returns the gig's bids newest-first. A gig that is no longer open
	// fails with ErrAlreadyAssigned and nothing is written.
	HireBid(ctx context.Context, gigID, bidID string, at time.Time) ([]models.Bid, error)
}

// UserDirectory resolves identity-provider users for display
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	// GetUsers returns the users it knows among userIDs; unknown ids are simply absent.
	GetUsers(ctx context.Context, userIDs []string) (map[string]models.User, error)
}

// UserSeeder loads directory entries at startup
type UserSeeder interface {
	UpsertUser(ctx context.Context, user models.User) error
}
