package server

import (
	"net/http"
	"time"

	"gig-market/internal/identity"
	handler "gig-market/services/market/handler"
	"gig-market/utils"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.MarketServiceInterface, provider identity.Provider, timeout time.Duration) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(OperationTimeoutMiddleware(timeout))

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"state": "ok"}, "service healthy")
	})

	marketHandler := handler.NewMarketHandler(service)
	authenticated := RequireIdentityMiddleware(provider)

	router.GET("/auth/me", authenticated, marketHandler.CurrentUserHandler)

	gigs := router.Group("/gigs")
	{
		gigs.GET("", marketHandler.ListGigsHandler)
		gigs.GET("/:id", marketHandler.GetGigHandler)
		gigs.GET("/:id/bids", marketHandler.ListBidsHandler)
		gigs.POST("", authenticated, marketHandler.CreateGigHandler)
	}

	bids := router.Group("/bids")
	{
		bids.GET("/:id", marketHandler.ListBidsHandler) // id is the gig
		bids.POST("", authenticated, marketHandler.CreateBidHandler)
		bids.PATCH("/:id/hire", authenticated, marketHandler.HireHandler)
	}

	return router
}
