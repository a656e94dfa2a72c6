package models

import "time"

// Testimonial is a short public statement from a user. Testimonials are
// append-only.
type Testimonial struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index" json:"userId"`
	User      *User        `gorm:"foreignKey:UserID" json:"-"`
	Message   string       `gorm:"size:1000;not null" json:"message"`
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`
	Author    *UserSummary `gorm:"-" json:"user,omitempty"`
}

// Decorate fills the author's display form.
func (t *Testimonial) Decorate() {
	if t.User != nil {
		t.Author = t.User.Summary()
	}
}
