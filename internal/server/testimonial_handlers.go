package server

import (
	"github.com/Thejus-u/charity-forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListTestimonials handles GET /api/testimonials
// @Summary List testimonials
// @Tags testimonials
// @Produce json
// @Success 200 {array} models.Testimonial
// @Router /testimonials [get]
func (s *Server) ListTestimonials(c *fiber.Ctx) error {
	testimonials, err := s.testimonialService.ListTestimonials(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(testimonials)
}

// CreateTestimonial handles POST /api/testimonials
// @Summary Create testimonial
// @Tags testimonials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateTestimonialInput true "Testimonial"
// @Success 201 {object} models.Testimonial
// @Failure 400 {object} models.ErrorResponse
// @Router /testimonials [post]
func (s *Server) CreateTestimonial(c *fiber.Ctx) error {
	var req service.CreateTestimonialInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = c.Locals("userID").(uint)

	testimonial, err := s.testimonialService.CreateTestimonial(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(testimonial)
}
