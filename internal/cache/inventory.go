package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	CampaignKeyPrefix = "campaign:%d"
	TestimonialsKey   = "testimonials:all"
)

const (
	CampaignTTL     = 2 * time.Minute
	TestimonialsTTL = 10 * time.Minute
)

func CampaignKey(campaignID uint) string {
	return fmt.Sprintf(CampaignKeyPrefix, campaignID)
}

// Invalidate drops key. Failures are counted by the client hook and otherwise ignored.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateCampaign(ctx context.Context, campaignID uint) {
	Invalidate(ctx, CampaignKey(campaignID))
}

func InvalidateTestimonials(ctx context.Context) {
	Invalidate(ctx, TestimonialsKey)
}
