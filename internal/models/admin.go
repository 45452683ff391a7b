package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin is an administrator account managed by the super-admin.
// Complaints reference admins through Complaint.AssignedTo.
type Admin struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"_id"`
	Username string `gorm:"uniqueIndex;not null" json:"username" validate:"required,min=3,max=64"`
	// PasswordHash is a bcrypt hash and never leaves the server.
	PasswordHash  string    `gorm:"not null" json:"-"`
	FullName      string    `json:"fullName" validate:"required"`
	Role          string    `json:"role"` // display label, e.g. "Warden"
	Department    string    `gorm:"index" json:"department" validate:"required"`
	Email         string    `json:"email,omitempty" validate:"omitempty,email"`
	ContactNumber string    `json:"contactNumber,omitempty"`
	IsActive      bool      `gorm:"default:true" json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BeforeCreate generates the admin id when it is not set yet.
func (a *Admin) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

// Assignable reports whether complaints may be routed to this admin.
func (a *Admin) Assignable() bool {
	return a != nil && a.IsActive
}
