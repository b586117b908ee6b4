package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Status is the triage state of a complaint.
type Status string

const (
	StatusOpen       Status = "open"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// InitialStatus is the status every complaint is created with once it passes moderation.
const InitialStatus = StatusPending

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Complaint is a student-submitted issue. It is only ever created by the
// submission gateway after the content has passed moderation.
type Complaint struct {
	// ID is the document identifier (UUID).
	ID string `gorm:"primaryKey" json:"id" firestore:"-"`
	// Title is a short summary of the issue.
	Title string `gorm:"type:text;not null" json:"title" firestore:"title"`
	// Description is the full text of the complaint.
	Description string `gorm:"type:text;not null" json:"description" firestore:"description"`
	// Category is one of the configured complaint categories.
	Category string `gorm:"type:text;index" json:"category" firestore:"category"`
	// Image is either an inline data URI or an externally hosted image URL.
	Image string `gorm:"type:text" json:"image,omitempty" firestore:"image,omitempty"`
	// CreatedBy is the uid of the submitting user, taken from the verified identity.
	CreatedBy string `gorm:"type:text;not null;index" json:"createdBy" firestore:"createdBy"`
	// Status is the current triage state.
	Status Status `gorm:"type:text;not null;index" json:"status" firestore:"status"`
	// Upvotes is the set of uids that voted for the complaint.
	Upvotes pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"upvotes" firestore:"upvotes"`
	// CreatedAt is assigned by the server when the complaint is stored.
	CreatedAt time.Time `gorm:"index" json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// BeforeCreate generates an ID and normalises the vote set before insert.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Upvotes == nil {
		c.Upvotes = pq.StringArray{}
	}
	return
}

// HasUpvote reports whether uid already voted for the complaint.
func (c *Complaint) HasUpvote(uid string) bool {
	for _, v := range c.Upvotes {
		if v == uid {
			return true
		}
	}
	return false
}

// ComplaintOrder selects the ordering of complaint listings.
type ComplaintOrder string

const (
	OrderRecent ComplaintOrder = "recent"
	OrderVotes  ComplaintOrder = "votes"
)

// ComplaintQuery filters complaint listings at the store level.
type ComplaintQuery struct {
	CreatedBy string
	Status    Status
	Category  string
	Order     ComplaintOrder
	Limit     int
}
