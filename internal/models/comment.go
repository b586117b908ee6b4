package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a public reply attached to a complaint.
type Comment struct {
	// ID is the comment identifier (UUID).
	ID string `gorm:"primaryKey" json:"id" firestore:"-"`
	// ComplaintID is the parent complaint.
	ComplaintID string `gorm:"type:text;not null;index:idx_comment_complaint" json:"complaintId" firestore:"-"`
	// Text is the comment body.
	Text string `gorm:"type:text;not null" json:"text" firestore:"text"`
	// CreatedBy is the uid of the author.
	CreatedBy string `gorm:"type:text;not null" json:"createdBy" firestore:"createdBy"`
	// CreatedAt is assigned by the server.
	CreatedAt time.Time `gorm:"index:idx_comment_complaint" json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// AdminNote is an internal note visible to admins only.
type AdminNote struct {
	ID          string    `gorm:"primaryKey" json:"id" firestore:"-"`
	ComplaintID string    `gorm:"type:text;not null;index:idx_note_complaint" json:"complaintId" firestore:"-"`
	Text        string    `gorm:"type:text;not null" json:"text" firestore:"text"`
	CreatedBy   string    `gorm:"type:text;not null" json:"createdBy" firestore:"createdBy"`
	CreatedAt   time.Time `gorm:"index:idx_note_complaint" json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

func (n *AdminNote) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}
