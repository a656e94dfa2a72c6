package database

import "github.com/Thejus-u/charity-forum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Campaign{},
		&models.DonorEntry{},
		&models.CampaignUpdate{},
		&models.ForumPost{},
		&models.PostReaction{},
		&models.Comment{},
		&models.Testimonial{},
	}
}
