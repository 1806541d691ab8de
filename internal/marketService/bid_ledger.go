package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gig-market/internal/marketerrors"
	"gig-market/internal/models"
	"gig-market/internal/repository"
	"gig-market/utils"

	"github.com/go-playground/validator/v10"
)

// BidLedger records bids against open gigs. It only ever inserts; bid statuses change
// exclusively through the HireCoordinator.
type BidLedger struct {
	store    repository.MarketStore
	display  displayResolver
	validate *validator.Validate
	now      func() time.Time
}

// NewBidLedger creates a new BidLedger instance
func NewBidLedger(store repository.MarketStore, users repository.UserDirectory) *BidLedger {
	return &BidLedger{
		store:    store,
		display:  displayResolver{users: users},
		validate: newValidator(),
		now:      utcNow,
	}
}

// CreateBid places freelancerID's bid on gigID. Preconditions are checked in a fixed order:
// the gig exists, it is open, the bidder is not its owner, the fields are valid, and the
// (gig, freelancer) pair is new. The last one, and the gig still being open, are decided
// by the store when the insert commits.
func (l *BidLedger) CreateBid(ctx context.Context, gigID, freelancerID, message string, price float64) (models.Bid, error) {
	if freelancerID == "" {
		return models.Bid{}, fmt.Errorf("service: create bid: %w", marketerrors.ErrUnauthenticated)
	}
	if !utils.IsValidID(gigID) {
		return models.Bid{}, fmt.Errorf("service: create bid on gig %q: %w", gigID, marketerrors.ErrGigNotFound)
	}

	gig, err := l.store.GetGig(ctx, gigID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: create bid on gig %s: %w", gigID, err)
	}
	if gig.Status != models.GigOpen {
		return models.Bid{}, fmt.Errorf("service: create bid on gig %s: %w", gigID, marketerrors.ErrGigNotOpen)
	}
	if gig.OwnerID == freelancerID {
		return models.Bid{}, fmt.Errorf("service: create bid on gig %s: %w", gigID, marketerrors.ErrSelfBid)
	}

	in := normalizeBid(models.NewBid{Message: message, Price: price})
	if err := validateNewBid(l.validate, in); err != nil {
		return models.Bid{}, fmt.Errorf("service: create bid on gig %s: %w", gigID, err)
	}

	now := l.now()
	bid := models.Bid{
		BidID:        utils.GenerateID(),
		GigID:        gigID,
		FreelancerID: freelancerID,
		Message:      in.Message,
		Price:        in.Price,
		Status:       models.BidPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.store.InsertBid(ctx, bid); err != nil {
		if errors.Is(err, marketerrors.ErrGigNotOpen) {
			utils.Warn("bid arrived after the gig was assigned", map[string]any{
				"gig_id":        gigID,
				"freelancer_id": freelancerID,
			})
		}
		return models.Bid{}, fmt.Errorf("service: failed to record bid on gig %s by %s: %w", gigID, freelancerID, err)
	}

	utils.Info("bid placed", map[string]any{
		"bid_id":        bid.BidID,
		"gig_id":        gigID,
		"freelancer_id": freelancerID,
		"price":         bid.Price,
	})

	out := []models.Bid{bid}
	l.display.bids(ctx, out)
	return out[0], nil
}

// ListBidsForGig returns the gig's bids newest first. A malformed or unknown gig id yields
// an empty list; only store faults are reported.
func (l *BidLedger) ListBidsForGig(ctx context.Context, gigID string) ([]models.Bid, error) {
	if !utils.IsValidID(gigID) {
		return []models.Bid{}, nil
	}

	bids, err := l.store.ListBidsByGig(ctx, gigID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for gig %s: %w", gigID, err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}

	l.display.bids(ctx, bids)
	return bids, nil
}
