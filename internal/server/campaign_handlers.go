package server

import (
	"github.com/Thejus-u/charity-forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCampaignCategories handles GET /api/campaigns/categories
// @Summary Campaign categories
// @Tags campaigns
// @Produce json
// @Success 200 {array} models.Option
// @Router /campaigns/categories [get]
func (s *Server) GetCampaignCategories(c *fiber.Ctx) error {
	return c.JSON(s.campaignService.Categories())
}

// ListCampaigns handles GET /api/campaigns
// @Summary List campaigns
// @Description Filter by category, status (default active, "all" for any) and search text; sort and paginate
// @Tags campaigns
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "Status"
// @Param search query string false "Search text"
// @Param creatorId query int false "Creator user ID"
// @Param sortBy query string false "createdAt, endDate, goalAmount, currentAmount or title"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.Page[models.Campaign]
// @Failure 400 {object} models.ErrorResponse
// @Router /campaigns [get]
func (s *Server) ListCampaigns(c *fiber.Ctx) error {
	page := parsePagination(c)

	result, err := s.campaignService.ListCampaigns(c.UserContext(), service.ListCampaignsInput{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		CreatorID: uint(max(c.QueryInt("creatorId", 0), 0)),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page.Page,
		Limit:     page.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// GetCampaign handles GET /api/campaigns/:id
// @Summary Get campaign
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} models.ErrorResponse
// @Router /campaigns/{id} [get]
func (s *Server) GetCampaign(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	campaign, err := s.campaignService.GetCampaign(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(campaign)
}

// CreateCampaign handles POST /api/campaigns
// @Summary Create campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateCampaignInput true "Campaign"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse
// @Router /campaigns [post]
func (s *Server) CreateCampaign(c *fiber.Ctx) error {
	var req service.CreateCampaignInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.CreatorID = c.Locals("userID").(uint)

	campaign, err := s.campaignService.CreateCampaign(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(campaign)
}

// Donate handles POST /api/campaigns/:id/donate
// @Summary Donate to a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Param request body service.DonateInput true "Donation"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /campaigns/{id}/donate [post]
func (s *Server) Donate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.DonateInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.CampaignID = id
	req.UserID = c.Locals("userID").(uint)

	campaign, err := s.campaignService.Donate(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(campaign)
}

// UpdateCampaign handles PUT /api/campaigns/:id
// @Summary Update campaign
// @Description Creator only, and only before the first donation
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Param request body service.UpdateCampaignInput true "Fields to change"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /campaigns/{id} [put]
func (s *Server) UpdateCampaign(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateCampaignInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.CampaignID = id
	req.UserID = c.Locals("userID").(uint)

	campaign, err := s.campaignService.UpdateCampaign(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(campaign)
}

// DeleteCampaign handles DELETE /api/campaigns/:id
// @Summary Delete campaign
// @Description Creator only, and only before the first donation
// @Tags campaigns
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /campaigns/{id} [delete]
func (s *Server) DeleteCampaign(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.campaignService.DeleteCampaign(c.UserContext(), id, c.Locals("userID").(uint)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Campaign deleted successfully"})
}

// AddCampaignUpdate handles POST /api/campaigns/:id/updates
// @Summary Post a campaign update
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Param request body service.AddCampaignUpdateInput true "Update"
// @Success 201 {object} models.CampaignUpdate
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /campaigns/{id}/updates [post]
func (s *Server) AddCampaignUpdate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.AddCampaignUpdateInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.CampaignID = id
	req.UserID = c.Locals("userID").(uint)

	update, err := s.campaignService.AddUpdate(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(update)
}

// SetCampaignStatus handles PATCH /api/campaigns/:id/status
// @Summary Complete or cancel a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Param request body service.SetCampaignStatusInput true "Target status"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /campaigns/{id}/status [patch]
func (s *Server) SetCampaignStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.SetCampaignStatusInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.CampaignID = id
	req.UserID = c.Locals("userID").(uint)
	req.Role = currentRole(c)

	campaign, err := s.campaignService.SetStatus(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(campaign)
}
