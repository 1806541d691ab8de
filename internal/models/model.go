package models

import "time"

// GigStatus is the lifecycle state of a gig
type GigStatus string

const (
	GigOpen     GigStatus = "open"
	GigAssigned GigStatus = "assigned"
)

// Valid reports whether s is a known gig status
func (s GigStatus) Valid() bool {
	switch s {
	case GigOpen, GigAssigned:
		return true
	default:
		return false
	}
}

// BidStatus is the lifecycle state of a bid
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidHired    BidStatus = "hired"
	BidRejected BidStatus = "rejected"
)

// Valid reports whether s is a known bid status
func (s BidStatus) Valid() bool {
	switch s {
	case BidPending, BidHired, BidRejected:
		return true
	default:
		return false
	}
}

// User is the display projection of an identity owned by the identity provider
type User struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Gig represents a posted unit of work
type Gig struct {
	GigID       string    `json:"gig_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	OwnerID     string    `json:"owner_id"`
	Status      GigStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Owner is filled for display after the read; it is never persisted.
	Owner *User `json:"owner,omitempty"`
}

// Bid represents a freelancer's proposal against a gig
type Bid struct {
	BidID        string    `json:"bid_id"`
	GigID        string    `json:"gig_id"`
	FreelancerID string    `json:"freelancer_id"`
	Message      string    `json:"message"`
	Price        float64   `json:"price"`
	Status       BidStatus `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Freelancer is filled for display after the read; it is never persisted.
	Freelancer *User `json:"freelancer,omitempty"`
}

// GigFilter narrows a gig listing. Zero values mean "no constraint".
type GigFilter struct {
	Search  string
	OwnerID string
	Status  GigStatus
}

// NewGig holds the caller-supplied fields of a gig before validation
type NewGig struct {
	Title       string  `json:"title" validate:"required,text,max=100"`
	Description string  `json:"description" validate:"required,text,max=2000"`
	Budget      float64 `json:"budget" validate:"gt=0"`
}

// NewBid holds the caller-supplied fields of a bid before validation
type NewBid struct {
	Message string  `json:"message" validate:"required,text,max=2000"`
	Price   float64 `json:"price" validate:"gt=0"`
}
