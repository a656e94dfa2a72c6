package seed

import (
	"context"
	"fmt"

	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/service"
)

// SampleCause is a fixed demo campaign.
type SampleCause struct {
	Title       string
	Description string
	Category    string
	GoalAmount  float64
	Days        int
}

// SampleCauses are always present after seeding.
var SampleCauses = []SampleCause{
	{
		Title:       "Clean Water for All",
		Description: "Help build wells and provide clean water to rural communities.",
		Category:    models.CampaignCategoryCommunity,
		GoalAmount:  5000,
		Days:        30,
	},
	{
		Title:       "Emergency Medical Fund",
		Description: "Support urgent medical care for families in crisis.",
		Category:    models.CampaignCategoryMedical,
		GoalAmount:  10000,
		Days:        60,
	},
	{
		Title:       "Education for Every Child",
		Description: "Provide school supplies and tuition for underprivileged children.",
		Category:    models.CampaignCategoryEducation,
		GoalAmount:  8000,
		Days:        45,
	},
}

// Causes creates the sample causes owned by creatorID, skipping any whose
// title already exists.
func (s *Seeder) Causes(ctx context.Context, creatorID uint) ([]*models.Campaign, error) {
	created := make([]*models.Campaign, 0, len(SampleCauses))
	for _, cause := range SampleCauses {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
			Where("title = ?", cause.Title).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		end := s.factory.now().AddDate(0, 0, cause.Days)
		campaign, err := s.campaigns.CreateCampaign(ctx, service.CreateCampaignInput{
			CreatorID:   creatorID,
			Title:       cause.Title,
			Description: cause.Description,
			Category:    cause.Category,
			GoalAmount:  cause.GoalAmount,
			EndDate:     &end,
			Tags:        []string{cause.Category},
		})
		if err != nil {
			return nil, fmt.Errorf("seed sample cause %q: %w", cause.Title, err)
		}
		created = append(created, campaign)
	}
	return created, nil
}
