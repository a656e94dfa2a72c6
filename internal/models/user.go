// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a user's access level.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether r grants moderator privileges.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// User is an account. Users are soft-deleted only.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email          string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string         `gorm:"not null" json:"-"`
	Role           Role           `gorm:"size:20;not null;default:member" json:"role"`
	FirstName      string         `gorm:"size:50" json:"firstName"`
	LastName       string         `gorm:"size:50" json:"lastName"`
	Bio            string         `gorm:"size:500" json:"bio"`
	Avatar         string         `json:"avatar"`
	TotalDonations float64        `gorm:"type:decimal(15,2);not null;default:0" json:"totalDonations"`
	TotalPosts     int            `gorm:"not null;default:0" json:"totalPosts"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the display form of a user embedded in other resources.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar"`
}

// Summary returns the display form of u.
func (u *User) Summary() *UserSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
	}
}
