package repository

import (
	"context"

	"github.com/Thejus-u/charity-forum/internal/cache"
	"github.com/Thejus-u/charity-forum/internal/models"

	"gorm.io/gorm"
)

// TestimonialRepository defines persistence operations for testimonials.
type TestimonialRepository interface {
	Create(ctx context.Context, testimonial *models.Testimonial) error
	List(ctx context.Context) ([]models.Testimonial, error)
}

type testimonialRepository struct {
	db *gorm.DB
}

// NewTestimonialRepository returns a new TestimonialRepository implementation.
func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(ctx context.Context, testimonial *models.Testimonial) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(testimonial).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateTestimonials(ctx)
	return nil
}

// List returns every testimonial newest first with its author loaded.
func (r *testimonialRepository) List(ctx context.Context) ([]models.Testimonial, error) {
	var testimonials []models.Testimonial
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&testimonials).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return testimonials, nil
}
