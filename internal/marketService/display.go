package market

import (
	"context"

	"gig-market/internal/models"
	"gig-market/internal/repository"
	"gig-market/utils"
)

// displayResolver fills the Owner and Freelancer projections after a read or a committed write.
// Resolution is best effort: a directory failure is logged and the records go out unresolved,
// because the state change they describe has already happened.
type displayResolver struct {
	users repository.UserDirectory
}

func (r displayResolver) lookup(ctx context.Context, ids []string) map[string]models.User {
	if r.users == nil || len(ids) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := r.users.GetUsers(ctx, unique)
	if err != nil {
		utils.Warn("user directory unavailable, returning unresolved records", map[string]any{
			"users": len(unique),
			"error": err.Error(),
		})
		return nil
	}

	utils.Debug("display users resolved", map[string]any{
		"requested": len(unique),
		"found":     len(found),
	})
	return found
}

func (r displayResolver) gigs(ctx context.Context, gigs []models.Gig) {
	ids := make([]string, 0, len(gigs))
	for _, g := range gigs {
		ids = append(ids, g.OwnerID)
	}

	found := r.lookup(ctx, ids)
	for i := range gigs {
		if u, ok := found[gigs[i].OwnerID]; ok {
			gigs[i].Owner = &u
		}
	}
}

func (r displayResolver) bids(ctx context.Context, bids []models.Bid) {
	ids := make([]string, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.FreelancerID)
	}

	found := r.lookup(ctx, ids)
	for i := range bids {
		if u, ok := found[bids[i].FreelancerID]; ok {
			bids[i].Freelancer = &u
		}
	}
}
