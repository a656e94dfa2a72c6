package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Thejus-u/charity-forum/internal/cache"
	"github.com/Thejus-u/charity-forum/internal/models"

	"gorm.io/gorm"
)

// CampaignFilter narrows and orders a campaign listing.
type CampaignFilter struct {
	Category  string
	Status    models.CampaignStatus // empty means any status
	Search    string
	CreatorID uint
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

var campaignSortColumns = map[string]string{
	"createdAt":     "campaigns.created_at",
	"endDate":       "campaigns.end_date",
	"goalAmount":    "campaigns.goal_amount",
	"currentAmount": "campaigns.current_amount",
	"title":         "campaigns.title",
}

// CampaignSortKeys lists the accepted sortBy values.
func CampaignSortKeys() []string {
	return []string{"createdAt", "endDate", "goalAmount", "currentAmount", "title"}
}

// CampaignRepository defines persistence operations for campaigns and the
// donor entries and updates they own.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id uint) (*models.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]models.Campaign, int64, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	Donate(ctx context.Context, entry *models.DonorEntry, now time.Time) error
	AddUpdate(ctx context.Context, update *models.CampaignUpdate) error
	SetStatus(ctx context.Context, id uint, status models.CampaignStatus) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	IDsInvolvingUser(ctx context.Context, userID uint) ([]uint, error)
}

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository returns a new CampaignRepository implementation.
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if err := r.db.WithContext(ctx).Omit("Creator", "Donors", "Updates").Create(campaign).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// withDetails preloads the creator, donors with their users in donation
// order, and updates in creation order.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Creator").
		Preload("Donors", func(db *gorm.DB) *gorm.DB {
			return db.Order("donor_entries.donated_at ASC, donor_entries.id ASC")
		}).
		Preload("Donors.User").
		Preload("Updates", func(db *gorm.DB) *gorm.DB {
			return db.Order("campaign_updates.created_at ASC, campaign_updates.id ASC")
		})
}

func (r *campaignRepository) GetByID(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := withDetails(r.db.WithContext(ctx)).First(&campaign, id).Error; err != nil {
		return nil, notFoundOr(err, "Campaign", id)
	}
	return &campaign, nil
}

func (r *campaignRepository) List(ctx context.Context, filter CampaignFilter) ([]models.Campaign, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Campaign{})
	if filter.Category != "" {
		base = base.Where("campaigns.category = ?", filter.Category)
	}
	if filter.Status != "" {
		base = base.Where("campaigns.status = ?", filter.Status)
	}
	if filter.CreatorID != 0 {
		base = base.Where("campaigns.creator_id = ?", filter.CreatorID)
	}
	base = searchAny(base, filter.Search, "campaigns.tags", "campaigns.title", "campaigns.description")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var campaigns []models.Campaign
	query := orderBy(base.Session(&gorm.Session{}), campaignSortColumns, filter.SortBy, "createdAt", filter.SortOrder).
		Order("campaigns.id DESC")
	if err := withDetails(query).Limit(filter.Limit).Offset(filter.Offset).Find(&campaigns).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return campaigns, total, nil
}

// Update applies fields only while the campaign has no donors. The donor
// check is part of the UPDATE so a concurrent donation cannot interleave.
func (r *campaignRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND donor_count = 0", id).
		Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.explainLocked(ctx, id, "Cannot update a campaign that has received donations")
	}
	cache.InvalidateCampaign(ctx, id)
	return nil
}

var errNothingDeleted = errors.New("nothing deleted")

// Delete removes a campaign without donors along with its updates.
func (r *campaignRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&models.CampaignUpdate{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND donor_count = 0", id).Delete(&models.Campaign{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNothingDeleted
		}
		return nil
	})
	if errors.Is(err, errNothingDeleted) {
		return r.explainLocked(ctx, id, "Cannot delete a campaign that has received donations")
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCampaign(ctx, id)
	return nil
}

// explainLocked reports why a conditional write on id matched no rows.
func (r *campaignRepository) explainLocked(ctx context.Context, id uint, message string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count == 0 {
		return models.NewNotFoundError("Campaign", id)
	}
	return models.NewBusinessRuleError(message)
}

// Donate appends entry and adds its amount to the campaign total in one
// transaction. The total only moves while the campaign is active at now.
func (r *campaignRepository) Donate(ctx context.Context, entry *models.DonorEntry, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Campaign{}).
			Where("id = ? AND status = ? AND end_date > ?", entry.CampaignID, models.CampaignStatusActive, now).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount + ?", entry.Amount),
				"donor_count":    gorm.Expr("donor_count + 1"),
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.Campaign
			if err := tx.Select("id", "status", "end_date").First(&current, entry.CampaignID).Error; err != nil {
				return err
			}
			if current.Status != models.CampaignStatusActive {
				return models.NewBusinessRuleError("Campaign is not active")
			}
			return models.NewBusinessRuleError("Campaign has ended")
		}

		entry.DonatedAt = now
		return tx.Omit("User").Create(entry).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return notFoundOr(err, "Campaign", entry.CampaignID)
	}
	cache.InvalidateCampaign(ctx, entry.CampaignID)
	return nil
}

func (r *campaignRepository) AddUpdate(ctx context.Context, update *models.CampaignUpdate) error {
	if err := r.db.WithContext(ctx).Create(update).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCampaign(ctx, update.CampaignID)
	return nil
}

// SetStatus moves an active campaign to status.
func (r *campaignRepository) SetStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, models.CampaignStatusActive).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.explainLocked(ctx, id, "Only active campaigns can change status")
	}
	cache.InvalidateCampaign(ctx, id)
	return nil
}

// IDsInvolvingUser returns the campaigns userID created or donated to.
func (r *campaignRepository) IDsInvolvingUser(ctx context.Context, userID uint) ([]uint, error) {
	donated := r.db.Model(&models.DonorEntry{}).Select("campaign_id").Where("user_id = ?", userID)
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("creator_id = ? OR id IN (?)", userID, donated).
		Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ExpireOverdue flips active campaigns whose end date passed to expired and
// returns how many changed.
func (r *campaignRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ? AND end_date <= ?", models.CampaignStatusActive, now).
		Pluck("id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id IN ? AND status = ? AND end_date <= ?", ids, models.CampaignStatusActive, now).
		Updates(map[string]interface{}{"status": models.CampaignStatusExpired, "updated_at": now})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	for _, id := range ids {
		cache.InvalidateCampaign(ctx, id)
	}
	return res.RowsAffected, nil
}
