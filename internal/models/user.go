package models

import (
	"time"
)

// Role governs what a user may do beyond submitting and commenting.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User is the profile record kept for every identity-provider account.
// Accounts are created by the identity provider; the record is bootstrapped
// with RoleStudent on the first authenticated request.
type User struct {
	UID       string    `gorm:"primaryKey" json:"uid" firestore:"uid"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `gorm:"index" json:"email" firestore:"email"`
	Role      Role      `gorm:"type:text;not null;default:'student'" json:"role" firestore:"role"`
	Avatar    string    `json:"avatar" firestore:"avatar"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// Caller is the verified identity attached to a request by the trust boundary.
// It is never built from client-supplied payload fields.
type Caller struct {
	UID    string
	Email  string
	Name   string
	Avatar string
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Authenticated reports whether the caller carries a verified uid.
func (c *Caller) Authenticated() bool {
	return c != nil && c.UID != ""
}
