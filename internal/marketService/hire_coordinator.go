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
)

// HireCoordinator performs the one state transition of a gig aggregate:
// open with pending bids -> assigned with one hired bid and the rest rejected.
type HireCoordinator struct {
	store   repository.MarketStore
	display displayResolver
	now     func() time.Time
}

// NewHireCoordinator creates a new HireCoordinator instance
func NewHireCoordinator(store repository.MarketStore, users repository.UserDirectory) *HireCoordinator {
	return &HireCoordinator{
		store:   store,
		display: displayResolver{users: users},
		now:     utcNow,
	}
}

// Hire awards the bid's gig to its freelancer on behalf of callerID and returns every bid of
// the gig in its final state, newest first.
//
// The reads below only produce ordered, descriptive failures. The decision itself is the
// store's compare-and-set on the gig status, so of several concurrent calls exactly one
// succeeds and the rest get ErrAlreadyAssigned; they are never retried here.
func (h *HireCoordinator) Hire(ctx context.Context, callerID, bidID string) ([]models.Bid, error) {
	if callerID == "" {
		return nil, fmt.Errorf("service: hire: %w", marketerrors.ErrUnauthenticated)
	}
	if !utils.IsValidID(bidID) {
		return nil, fmt.Errorf("service: hire bid %q: %w", bidID, marketerrors.ErrBidNotFound)
	}

	bid, err := h.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("service: hire bid %s: %w", bidID, err)
	}

	gig, err := h.store.GetGig(ctx, bid.GigID)
	if err != nil {
		return nil, fmt.Errorf("service: hire bid %s: %w", bidID, err)
	}
	if gig.OwnerID != callerID {
		return nil, fmt.Errorf("service: hire bid %s: %w", bidID, marketerrors.ErrNotGigOwner)
	}
	if gig.Status != models.GigOpen {
		return nil, fmt.Errorf("service: hire bid %s: %w", bidID, marketerrors.ErrAlreadyAssigned)
	}

	bids, err := h.store.HireBid(ctx, gig.GigID, bid.BidID, h.now())
	if err != nil {
		if errors.Is(err, marketerrors.ErrAlreadyAssigned) {
			utils.Warn("hire lost race, gig already assigned", map[string]any{
				"gig_id": gig.GigID,
				"bid_id": bidID,
			})
		}
		return nil, fmt.Errorf("service: failed to hire bid %s on gig %s: %w", bidID, gig.GigID, err)
	}

	utils.Info("gig assigned", map[string]any{
		"gig_id":        gig.GigID,
		"bid_id":        bidID,
		"freelancer_id": bid.FreelancerID,
		"bids_resolved": len(bids),
	})

	h.display.bids(ctx, bids)
	return bids, nil
}
