package market_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	market "gig-market/internal/marketService"
	"gig-market/internal/marketerrors"
	model "gig-market/internal/models"
	"gig-market/internal/repository"
	"gig-market/internal/repository/sqlite"

	"github.com/stretchr/testify/require"
)

type backend interface {
	repository.MarketStore
	repository.UserDirectory
	repository.UserSeeder
}

// backends runs every scenario against both store implementations
var backends = map[string]func(t *testing.T) backend{
	"memory": func(t *testing.T) backend {
		return repository.NewMemoryRepo()
	},
	"sqlite": func(t *testing.T) backend {
		db, err := sqlite.Open(filepath.Join(t.TempDir(), "market.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		require.NoError(t, db.Migrate())
		return sqlite.NewStore(db)
	},
}

func eachBackend(t *testing.T, fn func(t *testing.T, svc *market.Service, store backend)) {
	for name, open := range backends {
		open := open
		t.Run(name, func(t *testing.T) {
			store := open(t)
			for _, u := range []model.User{
				{UserID: "owner", Name: "Olga"},
				{UserID: "alice", Name: "Alice"},
				{UserID: "bob", Name: "Bob"},
			} {
				require.NoError(t, store.UpsertUser(context.Background(), u))
			}
			fn(t, market.NewService(store, store), store)
		})
	}
}

func TestService_HireThenLateBid(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)
		require.Equal(t, "Olga", gig.Owner.Name)

		bid, err := svc.CreateBid(ctx, gig.GigID, "alice", "x", 450)
		require.NoError(t, err)
		require.Equal(t, model.BidPending, bid.Status)
		require.Equal(t, "Alice", bid.Freelancer.Name)

		bids, err := svc.Hire(ctx, "owner", bid.BidID)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		require.Equal(t, model.BidHired, bids[0].Status)

		got, err := svc.GetGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Equal(t, model.GigAssigned, got.Status)

		_, err = svc.CreateBid(ctx, gig.GigID, "bob", "late", 400)
		require.ErrorIs(t, err, marketerrors.ErrGigNotOpen)
		require.Equal(t, marketerrors.KindInvalidState, marketerrors.KindOf(err))
	})
}

func TestService_DuplicateBid(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)

		_, err = svc.CreateBid(ctx, gig.GigID, "alice", "first", 450)
		require.NoError(t, err)
		_, err = svc.CreateBid(ctx, gig.GigID, "alice", "second", 400)
		require.ErrorIs(t, err, marketerrors.ErrDuplicateBid)

		bids, err := svc.ListBidsForGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		require.Equal(t, "first", bids[0].Message)
	})
}

func TestService_SelfBidCreatesNothing(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)

		_, err = svc.CreateBid(ctx, gig.GigID, "owner", "mine", 100)
		require.ErrorIs(t, err, marketerrors.ErrSelfBid)

		bids, err := svc.ListBidsForGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Empty(t, bids)
	})
}

func TestService_SecondHireIsRejected(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)
		a, err := svc.CreateBid(ctx, gig.GigID, "alice", "a", 450)
		require.NoError(t, err)
		b, err := svc.CreateBid(ctx, gig.GigID, "bob", "b", 480)
		require.NoError(t, err)

		bids, err := svc.Hire(ctx, "owner", a.BidID)
		require.NoError(t, err)
		require.Equal(t, b.BidID, bids[0].BidID, "newest first")
		require.Equal(t, model.BidRejected, bids[0].Status)
		require.Equal(t, model.BidHired, bids[1].Status)

		for _, target := range []string{a.BidID, b.BidID} {
			_, err = svc.Hire(ctx, "owner", target)
			require.ErrorIs(t, err, marketerrors.ErrAlreadyAssigned)
		}

		after, err := svc.ListBidsForGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Equal(t, model.BidRejected, after[0].Status)
		require.Equal(t, model.BidHired, after[1].Status)
	})
}

func TestService_NonOwnerCannotHire(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)
		a, err := svc.CreateBid(ctx, gig.GigID, "alice", "a", 450)
		require.NoError(t, err)

		_, err = svc.Hire(ctx, "alice", a.BidID)
		require.ErrorIs(t, err, marketerrors.ErrNotGigOwner)

		got, err := svc.GetGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Equal(t, model.GigOpen, got.Status)
	})
}

func TestService_ConcurrentHires(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, store backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)

		bidIDs := make([]string, 0, 8)
		for i := 0; i < 8; i++ {
			freelancer := fmt.Sprintf("freelancer-%d", i)
			bid, err := svc.CreateBid(ctx, gig.GigID, freelancer, "pick me", float64(100+i))
			require.NoError(t, err)
			bidIDs = append(bidIDs, bid.BidID)
		}

		var wg sync.WaitGroup
		var wins, lost int32
		start := make(chan struct{})

		for i := 0; i < 16; i++ {
			wg.Add(1)
			target := bidIDs[i%len(bidIDs)]
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.Hire(ctx, "owner", target)
				switch {
				case err == nil:
					atomic.AddInt32(&wins, 1)
				case errors.Is(err, marketerrors.ErrAlreadyAssigned):
					atomic.AddInt32(&lost, 1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, wins)
		require.EqualValues(t, 15, lost)

		g, err := store.GetGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Equal(t, model.GigAssigned, g.Status)

		bids, err := store.ListBidsByGig(ctx, gig.GigID)
		require.NoError(t, err)
		hired := 0
		for _, b := range bids {
			require.NotEqual(t, model.BidPending, b.Status)
			if b.Status == model.BidHired {
				hired++
			}
		}
		require.Equal(t, 1, hired)
	})
}

func TestService_BidsRacingHireNeverStayPending(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, store backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)
		first, err := svc.CreateBid(ctx, gig.GigID, "alice", "first", 450)
		require.NoError(t, err)

		var wg sync.WaitGroup
		start := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Hire(ctx, "owner", first.BidID)
			if err != nil {
				t.Errorf("hire: %v", err)
			}
		}()

		for i := 0; i < 20; i++ {
			wg.Add(1)
			freelancer := fmt.Sprintf("late-%d", i)
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.CreateBid(ctx, gig.GigID, freelancer, "me too", 300)
				if err != nil && !errors.Is(err, marketerrors.ErrGigNotOpen) {
					t.Errorf("create bid: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		bids, err := store.ListBidsByGig(ctx, gig.GigID)
		require.NoError(t, err)
		for _, b := range bids {
			require.NotEqual(t, model.BidPending, b.Status, "bid %s left pending on an assigned gig", b.BidID)
		}
	})
}

func TestService_ListingAndMalformedIDs(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		_, err := svc.CreateGig(ctx, "owner", "Logo design", "vector", 500)
		require.NoError(t, err)
		second, err := svc.CreateGig(ctx, "alice", "Copywriting", "a LOGO tagline", 200)
		require.NoError(t, err)

		gigs, err := svc.ListGigs(ctx, model.GigFilter{Search: "logo"})
		require.NoError(t, err)
		require.Len(t, gigs, 2)
		require.Equal(t, second.GigID, gigs[0].GigID)

		mine, err := svc.ListGigs(ctx, model.GigFilter{OwnerID: "alice"})
		require.NoError(t, err)
		require.Len(t, mine, 1)

		_, err = svc.GetGig(ctx, "not-an-id")
		require.ErrorIs(t, err, marketerrors.ErrNotFound)

		bids, err := svc.ListBidsForGig(ctx, "not-an-id")
		require.NoError(t, err)
		require.Empty(t, bids)

		_, err = svc.Hire(ctx, "owner", "not-an-id")
		require.ErrorIs(t, err, marketerrors.ErrBidNotFound)
	})
}

func TestService_NULAndInvalidUTF8AreValidation(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		for _, title := range []string{"\x00logo", "lo\x00go", "logo\xff"} {
			_, err := svc.CreateGig(ctx, "owner", title, "desc", 500)
			require.ErrorIs(t, err, marketerrors.ErrValidation, "title %q", title)
			require.Equal(t, marketerrors.KindValidation, marketerrors.KindOf(err))
		}
		_, err := svc.CreateGig(ctx, "owner", "Logo", "\x00", 500)
		require.ErrorIs(t, err, marketerrors.ErrValidation)

		gigs, err := svc.ListGigs(ctx, model.GigFilter{})
		require.NoError(t, err)
		require.Empty(t, gigs)

		gig, err := svc.CreateGig(ctx, "owner", "Logo", "Need a logo", 500)
		require.NoError(t, err)

		_, err = svc.CreateBid(ctx, gig.GigID, "alice", "\x00hi", 450)
		require.ErrorIs(t, err, marketerrors.ErrValidation)

		bids, err := svc.ListBidsForGig(ctx, gig.GigID)
		require.NoError(t, err)
		require.Empty(t, bids)
	})
}

func TestService_NonASCIISearchAgreesAcrossStores(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		gig, err := svc.CreateGig(ctx, "owner", "École Übersetzung", "Straße", 300)
		require.NoError(t, err)

		matches := map[string]bool{
			"école":       true,
			"ÉCOLE":       true,
			"übersetzung": true,
			"STRAßE":      true,
			"STRASSE":     false, // lowercasing, not full case folding
		}
		for search, want := range matches {
			gigs, err := svc.ListGigs(ctx, model.GigFilter{Search: search})
			require.NoError(t, err)
			if !want {
				require.Empty(t, gigs, "search %q", search)
				continue
			}
			require.Len(t, gigs, 1, "search %q", search)
			require.Equal(t, gig.GigID, gigs[0].GigID)
		}
	})
}

func TestService_CurrentUser(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *market.Service, _ backend) {
		ctx := context.Background()

		user, err := svc.CurrentUser(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "Alice", user.Name)

		_, err = svc.CurrentUser(ctx, "ghost")
		require.ErrorIs(t, err, marketerrors.ErrUnauthenticated)
		require.Equal(t, marketerrors.KindUnauthenticated, marketerrors.KindOf(err))

		_, err = svc.CurrentUser(ctx, "")
		require.ErrorIs(t, err, marketerrors.ErrUnauthenticated)
	})
}
