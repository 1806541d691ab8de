package helpers

import (
	"time"

	model "gig-market/internal/models"
)

// Request/Response DTOs
type CreateGigRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget"`
}

type CreateBidRequest struct {
	GigID   string  `json:"gig_id" binding:"required"`
	Message string  `json:"message"`
	Price   float64 `json:"price"`
}

type UserResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type GigResponse struct {
	GigID       string        `json:"gig_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Budget      float64       `json:"budget"`
	OwnerID     string        `json:"owner_id"`
	Owner       *UserResponse `json:"owner,omitempty"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

type BidResponse struct {
	BidID        string        `json:"bid_id"`
	GigID        string        `json:"gig_id"`
	FreelancerID string        `json:"freelancer_id"`
	Freelancer   *UserResponse `json:"freelancer,omitempty"`
	Message      string        `json:"message"`
	Price        float64       `json:"price"`
	Status       string        `json:"status"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

// ToUserResponse converts a directory entry to its wire form
func ToUserResponse(u model.User) UserResponse {
	return UserResponse{UserID: u.UserID, Name: u.Name, Email: u.Email}
}

func toUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{UserID: u.UserID, Name: u.Name, Email: u.Email}
}

// ToGigResponse converts a gig to its wire form
func ToGigResponse(g model.Gig) GigResponse {
	return GigResponse{
		GigID:       g.GigID,
		Title:       g.Title,
		Description: g.Description,
		Budget:      g.Budget,
		OwnerID:     g.OwnerID,
		Owner:       toUserResponse(g.Owner),
		Status:      string(g.Status),
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   g.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ToGigResponses converts a listing; the result is never nil
func ToGigResponses(gigs []model.Gig) []GigResponse {
	out := make([]GigResponse, 0, len(gigs))
	for _, g := range gigs {
		out = append(out, ToGigResponse(g))
	}
	return out
}

// ToBidResponse converts a bid to its wire form
func ToBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:        b.BidID,
		GigID:        b.GigID,
		FreelancerID: b.FreelancerID,
		Freelancer:   toUserResponse(b.Freelancer),
		Message:      b.Message,
		Price:        b.Price,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ToBidResponses converts a bid list; the result is never nil
func ToBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, ToBidResponse(b))
	}
	return out
}
