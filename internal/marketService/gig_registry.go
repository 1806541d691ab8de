package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gig-market/internal/marketerrors"
	"gig-market/internal/models"
	"gig-market/internal/repository"
	"gig-market/utils"

	"github.com/go-playground/validator/v10"
)

// GigRegistry creates and looks up gigs
type GigRegistry struct {
	store    repository.MarketStore
	display  displayResolver
	validate *validator.Validate
	now      func() time.Time
}

// NewGigRegistry creates a new GigRegistry instance
func NewGigRegistry(store repository.MarketStore, users repository.UserDirectory) *GigRegistry {
	return &GigRegistry{
		store:    store,
		display:  displayResolver{users: users},
		validate: newValidator(),
		now:      utcNow,
	}
}

// CreateGig validates the posting and stores it as an open gig owned by ownerID
func (r *GigRegistry) CreateGig(ctx context.Context, ownerID, title, description string, budget float64) (models.Gig, error) {
	if ownerID == "" {
		return models.Gig{}, fmt.Errorf("service: create gig: %w", marketerrors.ErrUnauthenticated)
	}

	in := normalizeGig(models.NewGig{Title: title, Description: description, Budget: budget})
	if err := validateNewGig(r.validate, in); err != nil {
		return models.Gig{}, fmt.Errorf("service: create gig: %w", err)
	}

	now := r.now()
	gig := models.Gig{
		GigID:       utils.GenerateID(),
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		OwnerID:     ownerID,
		Status:      models.GigOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.store.InsertGig(ctx, gig); err != nil {
		return models.Gig{}, fmt.Errorf("service: failed to store gig for owner %s: %w", ownerID, err)
	}

	utils.Info("gig created", map[string]any{
		"gig_id":   gig.GigID,
		"owner_id": ownerID,
		"budget":   gig.Budget,
	})

	out := []models.Gig{gig}
	r.display.gigs(ctx, out)
	return out[0], nil
}

// GetGig returns a single gig. Malformed and unknown ids are both ErrGigNotFound.
func (r *GigRegistry) GetGig(ctx context.Context, gigID string) (models.Gig, error) {
	if !utils.IsValidID(gigID) {
		return models.Gig{}, fmt.Errorf("service: get gig %q: %w", gigID, marketerrors.ErrGigNotFound)
	}

	gig, err := r.store.GetGig(ctx, gigID)
	if err != nil {
		return models.Gig{}, fmt.Errorf("service: get gig %s: %w", gigID, err)
	}

	out := []models.Gig{gig}
	r.display.gigs(ctx, out)
	return out[0], nil
}

// ListGigs returns gigs matching filter, newest first
func (r *GigRegistry) ListGigs(ctx context.Context, filter models.GigFilter) ([]models.Gig, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("service: list gigs: %w", marketerrors.Validation("status: unknown gig status %q", filter.Status))
	}

	filter.Search = strings.TrimSpace(filter.Search)
	gigs, err := r.store.ListGigs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: list gigs: %w", err)
	}
	if gigs == nil {
		gigs = []models.Gig{}
	}

	r.display.gigs(ctx, gigs)
	return gigs, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
