package handler

import (
	"context"
	"net/http"

	"gig-market/internal/ctxutil"
	model "gig-market/internal/models"
	"gig-market/services/market/helpers"
	"gig-market/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=market_handler.go -destination=mock_handler.go -package=handler

type MarketServiceInterface interface {
	CreateGig(ctx context.Context, ownerID, title, description string, budget float64) (model.Gig, error)
	GetGig(ctx context.Context, gigID string) (model.Gig, error)
	ListGigs(ctx context.Context, filter model.GigFilter) ([]model.Gig, error)
	CreateBid(ctx context.Context, gigID, freelancerID, message string, price float64) (model.Bid, error)
	ListBidsForGig(ctx context.Context, gigID string) ([]model.Bid, error)
	Hire(ctx context.Context, callerID, bidID string) ([]model.Bid, error)
	CurrentUser(ctx context.Context, callerID string) (model.User, error)
}

type MarketHandler struct {
	service MarketServiceInterface
}

func NewMarketHandler(service MarketServiceInterface) *MarketHandler {
	return &MarketHandler{service: service}
}

// CreateGigHandler handles POST /gigs
func (h *MarketHandler) CreateGigHandler(c *gin.Context) {
	var req helpers.CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateGigHandler", err)
		return
	}

	ctx := c.Request.Context()
	ownerID := ctxutil.CallerFromContext(ctx)

	gig, err := h.service.CreateGig(ctx, ownerID, req.Title, req.Description, req.Budget)
	if err != nil {
		helpers.HandleServiceError(c, "CreateGigHandler", err, map[string]any{"owner_id": ownerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToGigResponse(gig), "gig created successfully")
	helpers.LogSuccess("CreateGigHandler", "gig created successfully", map[string]any{
		"gig_id":   gig.GigID,
		"owner_id": ownerID,
	})
}

// ListGigsHandler handles GET /gigs?search=&owner=&status=
func (h *MarketHandler) ListGigsHandler(c *gin.Context) {
	filter := model.GigFilter{
		Search:  c.Query("search"),
		OwnerID: c.Query("owner"),
		Status:  model.GigStatus(c.Query("status")),
	}

	gigs, err := h.service.ListGigs(c.Request.Context(), filter)
	if err != nil {
		helpers.HandleServiceError(c, "ListGigsHandler", err, map[string]any{"search": filter.Search})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToGigResponses(gigs), "gigs retrieved successfully")
	helpers.LogSuccess("ListGigsHandler", "gigs retrieved successfully", map[string]any{
		"count": len(gigs),
	})
}

// GetGigHandler handles GET /gigs/:id
func (h *MarketHandler) GetGigHandler(c *gin.Context) {
	gigID := c.Param("id")

	gig, err := h.service.GetGig(c.Request.Context(), gigID)
	if err != nil {
		helpers.HandleServiceError(c, "GetGigHandler", err, map[string]any{"gig_id": gigID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToGigResponse(gig), "gig retrieved successfully")
}

// CreateBidHandler handles POST /bids
func (h *MarketHandler) CreateBidHandler(c *gin.Context) {
	var req helpers.CreateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateBidHandler", err)
		return
	}

	ctx := c.Request.Context()
	freelancerID := ctxutil.CallerFromContext(ctx)

	bid, err := h.service.CreateBid(ctx, req.GigID, freelancerID, req.Message, req.Price)
	if err != nil {
		helpers.HandleServiceError(c, "CreateBidHandler", err, map[string]any{
			"gig_id":        req.GigID,
			"freelancer_id": freelancerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("CreateBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":        bid.BidID,
		"gig_id":        bid.GigID,
		"freelancer_id": freelancerID,
		"price":         bid.Price,
	})
}

// ListBidsHandler handles GET /gigs/:id/bids and GET /bids/:id, where id is the gig
func (h *MarketHandler) ListBidsHandler(c *gin.Context) {
	gigID := c.Param("id")

	bids, err := h.service.ListBidsForGig(c.Request.Context(), gigID)
	if err != nil {
		helpers.HandleServiceError(c, "ListBidsHandler", err, map[string]any{"gig_id": gigID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("ListBidsHandler", "bids retrieved successfully", map[string]any{
		"gig_id": gigID,
		"count":  len(bids),
	})
}

// HireHandler handles PATCH /bids/:id/hire
func (h *MarketHandler) HireHandler(c *gin.Context) {
	bidID := c.Param("id")
	ctx := c.Request.Context()
	callerID := ctxutil.CallerFromContext(ctx)

	bids, err := h.service.Hire(ctx, callerID, bidID)
	if err != nil {
		helpers.HandleServiceError(c, "HireHandler", err, map[string]any{
			"bid_id":    bidID,
			"caller_id": callerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponses(bids), "freelancer hired successfully")
	helpers.LogSuccess("HireHandler", "freelancer hired successfully", map[string]any{
		"bid_id":    bidID,
		"caller_id": callerID,
		"resolved":  len(bids),
	})
}

// CurrentUserHandler handles GET /auth/me
func (h *MarketHandler) CurrentUserHandler(c *gin.Context) {
	ctx := c.Request.Context()
	callerID := ctxutil.CallerFromContext(ctx)

	user, err := h.service.CurrentUser(ctx, callerID)
	if err != nil {
		helpers.HandleServiceError(c, "CurrentUserHandler", err, map[string]any{"caller_id": callerID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToUserResponse(user), "user retrieved successfully")
}
