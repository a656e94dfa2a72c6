package service

import (
	"context"
	"strings"

	"github.com/Thejus-u/charity-forum/internal/cache"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/validation"
)

type TestimonialService struct {
	testimonialRepo repository.TestimonialRepository
}

type CreateTestimonialInput struct {
	UserID  uint   `json:"-"`
	Message string `json:"message" validate:"required,min=5,max=1000"`
}

func NewTestimonialService(testimonialRepo repository.TestimonialRepository) *TestimonialService {
	return &TestimonialService{testimonialRepo: testimonialRepo}
}

func (s *TestimonialService) CreateTestimonial(ctx context.Context, in CreateTestimonialInput) (*models.Testimonial, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	testimonial := &models.Testimonial{UserID: in.UserID, Message: in.Message}
	if err := s.testimonialRepo.Create(ctx, testimonial); err != nil {
		return nil, err
	}
	return testimonial, nil
}

// ListTestimonials returns every testimonial, newest first.
func (s *TestimonialService) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	var testimonials []models.Testimonial
	err := cache.Aside(ctx, cache.TestimonialsKey, &testimonials, cache.TestimonialsTTL, func() error {
		fetched, err := s.testimonialRepo.List(ctx)
		if err != nil {
			return err
		}
		for i := range fetched {
			fetched[i].Decorate()
		}
		testimonials = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	if testimonials == nil {
		testimonials = []models.Testimonial{}
	}
	return testimonials, nil
}
