package models

import (
	"math"
	"time"
)

// Campaign categories.
const (
	CampaignCategoryMedical     = "medical"
	CampaignCategoryEducation   = "education"
	CampaignCategoryDisaster    = "disaster"
	CampaignCategoryCommunity   = "community"
	CampaignCategoryEnvironment = "environment"
	CampaignCategoryOther       = "other"
)

// CampaignCategories lists the accepted campaign categories with labels.
var CampaignCategories = []Option{
	{Value: CampaignCategoryMedical, Label: "Medical"},
	{Value: CampaignCategoryEducation, Label: "Education"},
	{Value: CampaignCategoryDisaster, Label: "Disaster Relief"},
	{Value: CampaignCategoryCommunity, Label: "Community"},
	{Value: CampaignCategoryEnvironment, Label: "Environment"},
	{Value: CampaignCategoryOther, Label: "Other"},
}

// Supported currencies. Amounts are never converted between them.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyCAD = "CAD"
	CurrencyAUD = "AUD"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
	CampaignStatusExpired   CampaignStatus = "expired"
)

// Valid reports whether s is a known status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusCompleted, CampaignStatusCancelled, CampaignStatusExpired:
		return true
	}
	return false
}

// Location is where a campaign's beneficiaries are.
type Location struct {
	Country string `gorm:"size:100" json:"country,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`
	Address string `gorm:"size:255" json:"address,omitempty"`
}

// Campaign is a fundraising goal that accepts donations until it ends.
// CurrentAmount always equals the sum of its donor entries.
type Campaign struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Title         string           `gorm:"size:200;not null" json:"title"`
	Description   string           `gorm:"type:text;not null" json:"description"`
	Category      string           `gorm:"size:30;not null;index" json:"category"`
	GoalAmount    float64          `gorm:"type:decimal(15,2);not null" json:"goalAmount"`
	CurrentAmount float64          `gorm:"type:decimal(15,2);not null;default:0" json:"currentAmount"`
	Currency      string           `gorm:"size:3;not null;default:USD" json:"currency"`
	Status        CampaignStatus   `gorm:"size:20;not null;default:active;index" json:"status"`
	EndDate       time.Time        `gorm:"not null;index" json:"endDate"`
	CreatorID     uint             `gorm:"not null;index" json:"creatorId"`
	Creator       *User            `gorm:"foreignKey:CreatorID" json:"-"`
	Image         string           `json:"image,omitempty"`
	Tags          StringList       `json:"tags"`
	Location      Location         `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	IsVerified    bool             `gorm:"not null;default:false" json:"isVerified"`
	DonorCount    int              `gorm:"not null;default:0" json:"donorCount"`
	Donors        []DonorEntry     `gorm:"foreignKey:CampaignID" json:"donors"`
	Updates       []CampaignUpdate `gorm:"foreignKey:CampaignID" json:"updates"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`

	CreatorInfo        *UserSummary `gorm:"-" json:"creator,omitempty"`
	ProgressPercentage float64      `gorm:"-" json:"progressPercentage"`
	DaysRemaining      int          `gorm:"-" json:"daysRemaining"`
	Active             bool         `gorm:"-" json:"isActive"`
}

// DonorEntry records one donation. Entries are immutable once written.
type DonorEntry struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CampaignID  uint         `gorm:"not null;index" json:"-"`
	UserID      uint         `gorm:"not null;index" json:"-"`
	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	Amount      float64      `gorm:"type:decimal(15,2);not null" json:"amount"`
	Message     string       `gorm:"size:500" json:"message,omitempty"`
	IsAnonymous bool         `gorm:"not null;default:false" json:"isAnonymous"`
	DonatedAt   time.Time    `gorm:"not null" json:"donatedAt"`
	Donor       *UserSummary `gorm:"-" json:"user,omitempty"`
}

// CampaignUpdate is a progress note appended by the campaign creator.
type CampaignUpdate struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;index" json:"-"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsActiveAt reports whether the campaign accepts donations at now.
func (c *Campaign) IsActiveAt(now time.Time) bool {
	return c.Status == CampaignStatusActive && now.Before(c.EndDate)
}

// Progress returns the funded percentage, capped at 100.
func (c *Campaign) Progress() float64 {
	if c.GoalAmount <= 0 {
		return 0
	}
	return math.Min(c.CurrentAmount/c.GoalAmount*100, 100)
}

// DaysLeft returns the whole days remaining until EndDate, rounded up.
func (c *Campaign) DaysLeft(now time.Time) int {
	remaining := c.EndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// Decorate fills derived and display-only fields for the response.
func (c *Campaign) Decorate(now time.Time) {
	c.ProgressPercentage = c.Progress()
	c.DaysRemaining = c.DaysLeft(now)
	c.Active = c.IsActiveAt(now)
	if c.Creator != nil {
		c.CreatorInfo = c.Creator.Summary()
	}
	if c.Tags == nil {
		c.Tags = StringList{}
	}
	if c.Donors == nil {
		c.Donors = []DonorEntry{}
	}
	if c.Updates == nil {
		c.Updates = []CampaignUpdate{}
	}
	for i := range c.Donors {
		d := &c.Donors[i]
		if d.IsAnonymous {
			d.Donor = nil
			continue
		}
		if d.User != nil {
			d.Donor = d.User.Summary()
		}
	}
}
