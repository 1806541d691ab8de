package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"gig-market/internal/identity"
	market "gig-market/internal/marketService"
	model "gig-market/internal/models"
	"gig-market/internal/repository"
	"gig-market/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// seeded users every test can act as
var testUsers = []model.User{
	{UserID: "owner", Name: "Olga Owner", Email: "olga@example.com"},
	{UserID: "alice", Name: "Alice", Email: "alice@example.com"},
	{UserID: "bob", Name: "Bob", Email: "bob@example.com"},
}

// SetupTestRouter initializes the router over a fresh in-memory repository with the test users.
func SetupTestRouter(t *testing.T) (*gin.Engine, *repository.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	for _, u := range testUsers {
		require.NoError(t, repo.UpsertUser(context.Background(), u))
	}

	service := market.NewService(repo, repo)
	router := server.SetupRouter(service, identity.NewHeaderProvider(repo), 5*time.Second)
	return router, repo
}

// ExecuteRequestAndParse executes an HTTP request as caller (empty for anonymous) and parses the envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, caller string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(identity.HeaderUserID, caller)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// createGig posts a gig as owner and returns its id
func createGig(t *testing.T, router *gin.Engine, owner string, budget float64) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, "POST", "/gigs", owner, map[string]any{
		"title":       "Logo design",
		"description": "Need a vector logo",
		"budget":      budget,
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["gig_id"].(string)
}

// createBid posts a bid as freelancer and returns its id
func createBid(t *testing.T, router *gin.Engine, freelancer, gigID string, price float64) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, "POST", "/bids", freelancer, map[string]any{
		"gig_id":  gigID,
		"message": "I can do it",
		"price":   price,
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["bid_id"].(string)
}
