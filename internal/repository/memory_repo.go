package repository

import (
	"context"
	"gig-market/internal/marketerrors"
	"gig-market/internal/models"
	"sort"
	"strings"
	"sync"
	"time"
)

type bidPair struct {
	gigID        string
	freelancerID string
}

type gigRecord struct {
	gig models.Gig
	seq uint64
}

type bidRecord struct {
	bid models.Bid
	seq uint64
}

// MemoryRepo is a single-process implementation of MarketStore and UserDirectory.
// Its mutex plays the part of a database write lock: every method is one atomic unit.
type MemoryRepo struct {
	mu      sync.RWMutex
	seq     uint64
	gigs    map[string]gigRecord   // key: gigID -> value: gig
	bids    map[string]bidRecord   // key: bidID -> value: bid
	gigBids map[string][]string    // key: gigID -> value: bidIDs in insertion order
	pairs   map[bidPair]string     // unique index: (gigID, freelancerID) -> bidID
	users   map[string]models.User // key: userID -> value: user
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		gigs:    make(map[string]gigRecord),
		bids:    make(map[string]bidRecord),
		gigBids: make(map[string][]string),
		pairs:   make(map[bidPair]string),
		users:   make(map[string]models.User),
	}
}

// InsertGig stores a new gig
func (r *MemoryRepo) InsertGig(ctx context.Context, gig models.Gig) error {
	if err := ctx.Err(); err != nil {
		return marketerrors.Transient("memory: insert gig", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	gig.Owner = nil
	r.gigs[gig.GigID] = gigRecord{gig: gig, seq: r.seq}
	return nil
}

// GetGig returns the gig with the given id
func (r *MemoryRepo) GetGig(ctx context.Context, gigID string) (models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return models.Gig{}, marketerrors.Transient("memory: get gig", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.gigs[gigID]
	if !ok {
		return models.Gig{}, marketerrors.ErrGigNotFound
	}
	return rec.gig, nil
}

// ListGigs returns gigs matching filter, newest first
func (r *MemoryRepo) ListGigs(ctx context.Context, filter models.GigFilter) ([]models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, marketerrors.Transient("memory: list gigs", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]gigRecord, 0, len(r.gigs))
	for _, rec := range r.gigs {
		g := rec.gig
		if filter.OwnerID != "" && g.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(g.Title), search) &&
			!strings.Contains(strings.ToLower(g.Description), search) {
			continue
		}
		matched = append(matched, rec)
	}

	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].gig.CreatedAt, matched[i].seq, matched[j].gig.CreatedAt, matched[j].seq)
	})

	gigs := make([]models.Gig, 0, len(matched))
	for _, rec := range matched {
		gigs = append(gigs, rec.gig)
	}
	return gigs, nil
}

// InsertBid stores a new bid after checking the gig and the (gig, freelancer) index
func (r *MemoryRepo) InsertBid(ctx context.Context, bid models.Bid) error {
	if err := ctx.Err(); err != nil {
		return marketerrors.Transient("memory: insert bid", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.gigs[bid.GigID]
	if !ok {
		return marketerrors.ErrGigNotFound
	}
	if rec.gig.Status != models.GigOpen {
		return marketerrors.ErrGigNotOpen
	}

	key := bidPair{gigID: bid.GigID, freelancerID: bid.FreelancerID}
	if _, exists := r.pairs[key]; exists {
		return marketerrors.ErrDuplicateBid
	}

	r.seq++
	bid.Freelancer = nil
	r.bids[bid.BidID] = bidRecord{bid: bid, seq: r.seq}
	r.gigBids[bid.GigID] = append(r.gigBids[bid.GigID], bid.BidID)
	r.pairs[key] = bid.BidID
	return nil
}

// GetBid returns the bid with the given id
func (r *MemoryRepo) GetBid(ctx context.Context, bidID string) (models.Bid, error) {
	if err := ctx.Err(); err != nil {
		return models.Bid{}, marketerrors.Transient("memory: get bid", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.bids[bidID]
	if !ok {
		return models.Bid{}, marketerrors.ErrBidNotFound
	}
	return rec.bid, nil
}

// ListBidsByGig returns all bids for a gig, newest first
func (r *MemoryRepo) ListBidsByGig(ctx context.Context, gigID string) ([]models.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, marketerrors.Transient("memory: list bids", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.bidsForGigLocked(gigID), nil
}

// HireBid performs the award transition for bidID on gigID
func (r *MemoryRepo) HireBid(ctx context.Context, gigID, bidID string, at time.Time) ([]models.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, marketerrors.Transient("memory: hire", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	chosen, ok := r.bids[bidID]
	if !ok || chosen.bid.GigID != gigID {
		return nil, marketerrors.ErrBidNotFound
	}
	gigRec, ok := r.gigs[gigID]
	if !ok {
		return nil, marketerrors.ErrGigNotFound
	}
	if gigRec.gig.Status != models.GigOpen {
		return nil, marketerrors.ErrAlreadyAssigned
	}

	gigRec.gig.Status = models.GigAssigned
	gigRec.gig.UpdatedAt = at
	r.gigs[gigID] = gigRec

	for _, id := range r.gigBids[gigID] {
		rec := r.bids[id]
		if id == bidID {
			rec.bid.Status = models.BidHired
		} else {
			rec.bid.Status = models.BidRejected
		}
		rec.bid.UpdatedAt = at
		r.bids[id] = rec
	}

	return r.bidsForGigLocked(gigID), nil
}

// GetUser returns a single user
func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, marketerrors.Transient("memory: get user", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return models.User{}, marketerrors.ErrUserNotFound
	}
	return u, nil
}

// GetUsers returns the known users among userIDs
func (r *MemoryRepo) GetUsers(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, marketerrors.Transient("memory: get users", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make(map[string]models.User, len(userIDs))
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			found[id] = u
		}
	}
	return found, nil
}

// UpsertUser adds or replaces a directory entry. The identity provider owns users;
// this exists for seeding and tests.
func (r *MemoryRepo) UpsertUser(ctx context.Context, user models.User) error {
	if err := ctx.Err(); err != nil {
		return marketerrors.Transient("memory: upsert user", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
	return nil
}

func (r *MemoryRepo) bidsForGigLocked(gigID string) []models.Bid {
	ids := r.gigBids[gigID]
	recs := make([]bidRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, r.bids[id])
	}

	sort.Slice(recs, func(i, j int) bool {
		return newer(recs[i].bid.CreatedAt, recs[i].seq, recs[j].bid.CreatedAt, recs[j].seq)
	})

	bids := make([]models.Bid, 0, len(recs))
	for _, rec := range recs {
		bids = append(bids, rec.bid)
	}
	return bids
}

// newer orders by creation time descending, breaking ties by insertion order
func newer(a time.Time, aSeq uint64, b time.Time, bSeq uint64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aSeq > bSeq
}
