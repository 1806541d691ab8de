package market

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"gig-market/internal/marketerrors"
	model "gig-market/internal/models"
	"gig-market/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newMocks builds a fresh controller per test so parallel subtests never share expectations
func newMocks(t *testing.T) (*repository.MockMarketStore, *repository.MockUserDirectory) {
	t.Helper()
	ctrl := gomock.NewController(t)
	return repository.NewMockMarketStore(ctrl), repository.NewMockUserDirectory(ctrl)
}

// Tests CreateGig
func TestGigRegistry_CreateGig(t *testing.T) {
	owner := model.User{UserID: "owner-1", Name: "Olga", Email: "olga@example.com"}

	tests := []struct {
		name          string
		ownerID       string
		title         string
		description   string
		budget        float64
		storeErr      error
		expectInsert  bool
		expectedError error
	}{
		{name: "valid", ownerID: owner.UserID, title: "Logo", description: "Need a logo", budget: 500, expectInsert: true},
		{name: "fields_trimmed", ownerID: owner.UserID, title: "  Logo  ", description: "\tNeed a logo\n", budget: 500, expectInsert: true},
		{name: "title_at_limit_in_runes", ownerID: owner.UserID, title: strings.Repeat("é", 100), description: "d", budget: 1, expectInsert: true},
		{name: "no_caller", title: "Logo", description: "d", budget: 500, expectedError: marketerrors.ErrUnauthenticated},
		{name: "empty_title", ownerID: owner.UserID, title: "", description: "d", budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "blank_title", ownerID: owner.UserID, title: "   ", description: "d", budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "title_too_long", ownerID: owner.UserID, title: strings.Repeat("a", 101), description: "d", budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "empty_description", ownerID: owner.UserID, title: "Logo", description: "", budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "description_too_long", ownerID: owner.UserID, title: "Logo", description: strings.Repeat("a", 2001), budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "nul_in_title", ownerID: owner.UserID, title: "\x00logo", description: "d", budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "invalid_utf8_description", ownerID: owner.UserID, title: "Logo", description: "d\xff", budget: 500, expectedError: marketerrors.ErrValidation},
		{name: "zero_budget", ownerID: owner.UserID, title: "Logo", description: "d", budget: 0, expectedError: marketerrors.ErrValidation},
		{name: "negative_budget", ownerID: owner.UserID, title: "Logo", description: "d", budget: -1, expectedError: marketerrors.ErrValidation},
		{name: "nan_budget", ownerID: owner.UserID, title: "Logo", description: "d", budget: math.NaN(), expectedError: marketerrors.ErrValidation},
		{name: "infinite_budget", ownerID: owner.UserID, title: "Logo", description: "d", budget: math.Inf(1), expectedError: marketerrors.ErrValidation},
		{
			name:          "store_fails",
			ownerID:       owner.UserID,
			title:         "Logo",
			description:   "d",
			budget:        500,
			expectInsert:  true,
			storeErr:      marketerrors.Transient("test: insert gig", errors.New("disk full")),
			expectedError: marketerrors.ErrTransient,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store, users := newMocks(t)
			registry := NewGigRegistry(store, users)

			if tc.expectInsert {
				store.EXPECT().InsertGig(gomock.Any(), gomock.Any()).Return(tc.storeErr)
			}
			if tc.expectInsert && tc.storeErr == nil {
				users.EXPECT().GetUsers(gomock.Any(), []string{owner.UserID}).
					Return(map[string]model.User{owner.UserID: owner}, nil)
			}

			gig, err := registry.CreateGig(context.Background(), tc.ownerID, tc.title, tc.description, tc.budget)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)

			_, parseErr := uuid.Parse(gig.GigID)
			require.NoError(t, parseErr, "GigID should be a valid UUID")
			require.Equal(t, strings.TrimSpace(tc.title), gig.Title)
			require.Equal(t, strings.TrimSpace(tc.description), gig.Description)
			require.Equal(t, model.GigOpen, gig.Status)
			require.Equal(t, tc.ownerID, gig.OwnerID)
			require.WithinDuration(t, time.Now().UTC(), gig.CreatedAt, 2*time.Second)
			require.NotNil(t, gig.Owner)
			require.Equal(t, "Olga", gig.Owner.Name)
		})
	}
}

// Tests GetGig
func TestGigRegistry_GetGig(t *testing.T) {
	gigID := uuid.NewString()

	tests := []struct {
		name          string
		gigID         string
		mockSetup     func(store *repository.MockMarketStore, users *repository.MockUserDirectory)
		expectedError error
	}{
		{
			name:  "found",
			gigID: gigID,
			mockSetup: func(store *repository.MockMarketStore, users *repository.MockUserDirectory) {
				store.EXPECT().GetGig(gomock.Any(), gigID).Return(model.Gig{GigID: gigID, OwnerID: "o"}, nil)
				users.EXPECT().GetUsers(gomock.Any(), gomock.Any()).Return(map[string]model.User{}, nil)
			},
		},
		{
			name:          "malformed_id",
			gigID:         "not-a-uuid",
			mockSetup:     func(*repository.MockMarketStore, *repository.MockUserDirectory) {},
			expectedError: marketerrors.ErrGigNotFound,
		},
		{
			name:  "unknown_id",
			gigID: gigID,
			mockSetup: func(store *repository.MockMarketStore, _ *repository.MockUserDirectory) {
				store.EXPECT().GetGig(gomock.Any(), gigID).Return(model.Gig{}, marketerrors.ErrGigNotFound)
			},
			expectedError: marketerrors.ErrNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store, users := newMocks(t)
			tc.mockSetup(store, users)

			gig, err := NewGigRegistry(store, users).GetGig(context.Background(), tc.gigID)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.gigID, gig.GigID)
			require.Nil(t, gig.Owner)
		})
	}
}

// Tests ListGigs
func TestGigRegistry_ListGigs(t *testing.T) {
	t.Run("search_is_trimmed_and_owners_resolved", func(t *testing.T) {
		store, users := newMocks(t)

		gigs := []model.Gig{{GigID: "g2", OwnerID: "a"}, {GigID: "g1", OwnerID: "b"}}
		store.EXPECT().ListGigs(gomock.Any(), model.GigFilter{Search: "logo"}).Return(gigs, nil)
		users.EXPECT().GetUsers(gomock.Any(), []string{"a", "b"}).
			Return(map[string]model.User{"a": {UserID: "a", Name: "Ann"}}, nil)

		got, err := NewGigRegistry(store, users).ListGigs(context.Background(), model.GigFilter{Search: "  logo "})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "Ann", got[0].Owner.Name)
		require.Nil(t, got[1].Owner)
	})

	t.Run("nil_from_store_is_empty", func(t *testing.T) {
		store, users := newMocks(t)
		store.EXPECT().ListGigs(gomock.Any(), model.GigFilter{}).Return(nil, nil)

		got, err := NewGigRegistry(store, users).ListGigs(context.Background(), model.GigFilter{})
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("unknown_status", func(t *testing.T) {
		store, users := newMocks(t)

		_, err := NewGigRegistry(store, users).ListGigs(context.Background(), model.GigFilter{Status: "closed"})
		require.ErrorIs(t, err, marketerrors.ErrValidation)
	})

	t.Run("store_fails", func(t *testing.T) {
		store, users := newMocks(t)
		store.EXPECT().ListGigs(gomock.Any(), gomock.Any()).
			Return(nil, marketerrors.Transient("test: list", context.DeadlineExceeded))

		_, err := NewGigRegistry(store, users).ListGigs(context.Background(), model.GigFilter{})
		require.ErrorIs(t, err, marketerrors.ErrTransient)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
