package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Thejus-u/charity-forum/internal/cache"
	"github.com/Thejus-u/charity-forum/internal/middleware"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/observability"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// StatusAll disables the status filter when listing campaigns.
const StatusAll = "all"

type CampaignService struct {
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

type LocationInput struct {
	Country string `json:"country" validate:"max=100"`
	City    string `json:"city" validate:"max=100"`
	Address string `json:"address" validate:"max=255"`
}

func (l *LocationInput) model() models.Location {
	return models.Location{
		Country: strings.TrimSpace(l.Country),
		City:    strings.TrimSpace(l.City),
		Address: strings.TrimSpace(l.Address),
	}
}

type CreateCampaignInput struct {
	CreatorID   uint           `json:"-"`
	Title       string         `json:"title" validate:"required,min=5,max=200"`
	Description string         `json:"description" validate:"required,min=20,max=2000"`
	Category    string         `json:"category" validate:"required,oneof=medical education disaster community environment other"`
	GoalAmount  float64        `json:"goalAmount" validate:"required,gte=1,cents"`
	Currency    string         `json:"currency" validate:"omitempty,oneof=USD EUR GBP CAD AUD"`
	EndDate     *time.Time     `json:"endDate" validate:"required"`
	Image       string         `json:"image" validate:"omitempty,url,max=500"`
	Tags        []string       `json:"tags" validate:"max=10,dive,max=30"`
	Location    *LocationInput `json:"location"`
}

type UpdateCampaignInput struct {
	CampaignID  uint           `json:"-"`
	UserID      uint           `json:"-"`
	Title       *string        `json:"title" validate:"omitempty,min=5,max=200"`
	Description *string        `json:"description" validate:"omitempty,min=20,max=2000"`
	Category    *string        `json:"category" validate:"omitempty,oneof=medical education disaster community environment other"`
	GoalAmount  *float64       `json:"goalAmount" validate:"omitempty,gte=1,cents"`
	EndDate     *time.Time     `json:"endDate"`
	Image       *string        `json:"image" validate:"omitempty,url,max=500"`
	Tags        *[]string      `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	Location    *LocationInput `json:"location"`
}

type ListCampaignsInput struct {
	Category  string
	Status    string
	Search    string
	CreatorID uint
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type DonateInput struct {
	CampaignID  uint    `json:"-"`
	UserID      uint    `json:"-"`
	Amount      float64 `json:"amount" validate:"required,gte=1,cents"`
	Message     string  `json:"message" validate:"max=500"`
	IsAnonymous bool    `json:"isAnonymous"`
}

type AddCampaignUpdateInput struct {
	CampaignID uint   `json:"-"`
	UserID     uint   `json:"-"`
	Title      string `json:"title" validate:"required,min=5,max=200"`
	Content    string `json:"content" validate:"required,min=10,max=2000"`
}

type SetCampaignStatusInput struct {
	CampaignID uint        `json:"-"`
	UserID     uint        `json:"-"`
	Role       models.Role `json:"-"`
	Status     string      `json:"status" validate:"required,oneof=completed cancelled"`
}

func NewCampaignService(campaignRepo repository.CampaignRepository, userRepo repository.UserRepository) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// WithClock replaces the time source.
func (s *CampaignService) WithClock(now func() time.Time) *CampaignService {
	s.now = now
	return s
}

// Categories returns the campaign category catalogue.
func (s *CampaignService) Categories() []models.Option {
	return models.CampaignCategories
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*models.Campaign, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	now := s.now().UTC()

	fields := validation.Fields(in)
	if in.EndDate != nil && !in.EndDate.After(now) {
		fields = append(fields, models.FieldError{Field: "endDate", Message: "must be in the future"})
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	currency := in.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}
	campaign := &models.Campaign{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		GoalAmount:  in.GoalAmount,
		Currency:    currency,
		Status:      models.CampaignStatusActive,
		EndDate:     in.EndDate.UTC(),
		CreatorID:   in.CreatorID,
		Image:       in.Image,
		Tags:        models.NormalizeTags(in.Tags),
	}
	if in.Location != nil {
		campaign.Location = in.Location.model()
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return s.load(ctx, campaign.ID)
}

func (s *CampaignService) ListCampaigns(ctx context.Context, in ListCampaignsInput) (models.Page[models.Campaign], error) {
	filter, page, err := s.listFilter(in)
	if err != nil {
		return models.Page[models.Campaign]{}, err
	}

	campaigns, total, err := s.campaignRepo.List(ctx, filter)
	if err != nil {
		return models.Page[models.Campaign]{}, err
	}
	now := s.now()
	for i := range campaigns {
		campaigns[i].Decorate(now)
	}
	return models.NewPage(campaigns, total, page, filter.Limit), nil
}

func (s *CampaignService) listFilter(in ListCampaignsInput) (repository.CampaignFilter, int, error) {
	var fields []models.FieldError

	if in.Category != "" && !isCampaignCategory(in.Category) {
		fields = append(fields, models.FieldError{Field: "category", Message: "is not a known category"})
	}

	var status models.CampaignStatus
	switch in.Status {
	case "":
		status = models.CampaignStatusActive
	case StatusAll:
	default:
		status = models.CampaignStatus(in.Status)
		if !status.Valid() {
			fields = append(fields, models.FieldError{Field: "status", Message: "must be one of: active, completed, cancelled, expired, all"})
		}
	}

	sortBy := in.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if !contains(repository.CampaignSortKeys(), sortBy) {
		fields = append(fields, models.FieldError{Field: "sortBy", Message: "must be one of: " + strings.Join(repository.CampaignSortKeys(), ", ")})
	}
	order, ok := normalizeOrder(in.SortOrder)
	if !ok {
		fields = append(fields, models.FieldError{Field: "sortOrder", Message: "must be one of: asc, desc"})
	}
	if len(fields) > 0 {
		return repository.CampaignFilter{}, 0, models.NewFieldValidationError(fields)
	}

	page, limit, offset := normalizePage(in.Page, in.Limit)
	return repository.CampaignFilter{
		Category:  in.Category,
		Status:    status,
		Search:    strings.TrimSpace(in.Search),
		CreatorID: in.CreatorID,
		SortBy:    sortBy,
		SortOrder: order,
		Limit:     limit,
		Offset:    offset,
	}, page, nil
}

func isCampaignCategory(category string) bool {
	for _, o := range models.CampaignCategories {
		if o.Value == category {
			return true
		}
	}
	return false
}

// GetCampaign returns the decorated campaign, served from cache when warm.
func (s *CampaignService) GetCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := cache.Aside(ctx, cache.CampaignKey(id), &campaign, cache.CampaignTTL, func() error {
		fresh, err := s.campaignRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		fresh.Decorate(s.now())
		campaign = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Time-derived fields go stale while cached.
	campaign.Decorate(s.now())
	return &campaign, nil
}

// load bypasses the cache so callers see their own writes.
func (s *CampaignService) load(ctx context.Context, id uint) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	campaign.Decorate(s.now())
	return campaign, nil
}

// Donate records a donation and returns the updated campaign.
func (s *CampaignService) Donate(ctx context.Context, in DonateInput) (*models.Campaign, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		observability.DonationRejections.WithLabelValues("validation").Inc()
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "campaign.donate",
		attribute.Int64("campaign.id", int64(in.CampaignID)),
		attribute.Float64("donation.amount", in.Amount))
	defer span.End()

	entry := &models.DonorEntry{
		CampaignID:  in.CampaignID,
		UserID:      in.UserID,
		Amount:      in.Amount,
		Message:     in.Message,
		IsAnonymous: in.IsAnonymous,
	}
	if err := s.campaignRepo.Donate(ctx, entry, s.now().UTC()); err != nil {
		span.SetError(err)
		observability.DonationRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	if err := s.userRepo.IncrementDonations(ctx, in.UserID, in.Amount); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to update donor total",
			slog.Uint64("user_id", uint64(in.UserID)),
			slog.String("error", err.Error()))
	}

	campaign, err := s.load(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	observability.DonationsTotal.WithLabelValues(campaign.Category).Inc()
	observability.DonatedAmount.WithLabelValues(campaign.Currency).Add(in.Amount)
	return campaign, nil
}

func rejectionReason(err error) string {
	switch {
	case models.IsCode(err, models.CodeNotFound):
		return "not_found"
	case models.IsCode(err, models.CodeBusinessRule):
		return "inactive"
	}
	return "error"
}

// InvalidateForUser drops cached campaigns that embed userID's display fields.
func (s *CampaignService) InvalidateForUser(ctx context.Context, userID uint) {
	ids, err := s.campaignRepo.IDsInvolvingUser(ctx, userID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to list campaigns for cache invalidation",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()))
		return
	}
	for _, id := range ids {
		cache.InvalidateCampaign(ctx, id)
	}
}

// trimmed returns a copy of the pointed-to string without surrounding space.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// owned loads a campaign and checks that userID created it.
func (s *CampaignService) owned(ctx context.Context, id, userID uint, action string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.CreatorID != userID {
		return nil, models.NewForbiddenError("Only the campaign creator can " + action + " this campaign")
	}
	return campaign, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, in UpdateCampaignInput) (*models.Campaign, error) {
	in.Title = trimmed(in.Title)
	in.Description = trimmed(in.Description)
	in.Image = trimmed(in.Image)
	now := s.now().UTC()
	fields := validation.Fields(in)
	if in.EndDate != nil && !in.EndDate.After(now) {
		fields = append(fields, models.FieldError{Field: "endDate", Message: "must be in the future"})
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	campaign, err := s.owned(ctx, in.CampaignID, in.UserID, "update")
	if err != nil {
		return nil, err
	}
	if campaign.DonorCount > 0 {
		return nil, models.NewBusinessRuleError("Cannot update a campaign that has received donations")
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.GoalAmount != nil {
		updates["goal_amount"] = *in.GoalAmount
	}
	if in.EndDate != nil {
		updates["end_date"] = in.EndDate.UTC()
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if in.Tags != nil {
		updates["tags"] = models.NormalizeTags(*in.Tags)
	}
	if in.Location != nil {
		loc := in.Location.model()
		updates["location_country"] = loc.Country
		updates["location_city"] = loc.City
		updates["location_address"] = loc.Address
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}

	if err := s.campaignRepo.Update(ctx, in.CampaignID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, in.CampaignID)
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id, userID uint) error {
	campaign, err := s.owned(ctx, id, userID, "delete")
	if err != nil {
		return err
	}
	if campaign.DonorCount > 0 {
		return models.NewBusinessRuleError("Cannot delete a campaign that has received donations")
	}
	return s.campaignRepo.Delete(ctx, id)
}

func (s *CampaignService) AddUpdate(ctx context.Context, in AddCampaignUpdateInput) (*models.CampaignUpdate, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, in.CampaignID, in.UserID, "post updates to"); err != nil {
		return nil, err
	}

	update := &models.CampaignUpdate{
		CampaignID: in.CampaignID,
		Title:      in.Title,
		Content:    in.Content,
	}
	if err := s.campaignRepo.AddUpdate(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// SetStatus completes or cancels an active campaign. Creators and
// moderators may do this even after donations.
func (s *CampaignService) SetStatus(ctx context.Context, in SetCampaignStatusInput) (*models.Campaign, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	campaign, err := s.campaignRepo.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.CreatorID != in.UserID && !in.Role.CanModerate() {
		return nil, models.NewForbiddenError("Only the campaign creator or a moderator can change its status")
	}
	if err := s.campaignRepo.SetStatus(ctx, in.CampaignID, models.CampaignStatus(in.Status)); err != nil {
		return nil, err
	}
	return s.load(ctx, in.CampaignID)
}

// ExpireOverdue marks active campaigns past their end date as expired.
func (s *CampaignService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.campaignRepo.ExpireOverdue(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.CampaignsExpired.Add(float64(n))
	}
	return n, nil
}
