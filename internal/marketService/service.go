// Package market is the gig/bid transaction core: gig creation, bid placement and the
// atomic hire transition. The types here hold no mutable state of their own and are safe
// for concurrent use; every consistency guarantee is delegated to the MarketStore.
package market

import (
	"context"
	"errors"
	"fmt"

	"gig-market/internal/marketerrors"
	"gig-market/internal/models"
	"gig-market/internal/repository"
)

// Service composes the registry, ledger and coordinator into the surface the transport uses
type Service struct {
	*GigRegistry
	*BidLedger
	*HireCoordinator

	users repository.UserDirectory
}

// NewService wires all market components over one store and user directory
func NewService(store repository.MarketStore, users repository.UserDirectory) *Service {
	return &Service{
		GigRegistry:     NewGigRegistry(store, users),
		BidLedger:       NewBidLedger(store, users),
		HireCoordinator: NewHireCoordinator(store, users),
		users:           users,
	}
}

// CurrentUser returns the directory entry of an identified caller
func (s *Service) CurrentUser(ctx context.Context, callerID string) (models.User, error) {
	if callerID == "" {
		return models.User{}, fmt.Errorf("service: current user: %w", marketerrors.ErrUnauthenticated)
	}

	user, err := s.users.GetUser(ctx, callerID)
	if errors.Is(err, marketerrors.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("service: current user %s: %w", callerID, marketerrors.ErrUnauthenticated)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("service: current user %s: %w", callerID, err)
	}
	return user, nil
}
