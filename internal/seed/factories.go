package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	causeNouns = []string{
		"Clean water", "School meals", "Winter coats", "Medical supplies", "Library books",
		"Shelter beds", "Solar lamps", "Flood relief", "Tree planting", "Wheelchairs",
	}

	currencies = []string{
		models.CurrencyUSD, models.CurrencyUSD, models.CurrencyUSD,
		models.CurrencyEUR, models.CurrencyGBP, models.CurrencyCAD, models.CurrencyAUD,
	}
)

// Factory builds service inputs filled with fake but valid data.
type Factory struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewFactory returns a Factory. A zero seed picks a random one.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed), now: time.Now}
}

// User returns an unsaved member whose username and email carry n for
// uniqueness.
func (f *Factory) User(n int) *models.User {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, n))
	if len(username) > 30 {
		username = username[len(username)-30:]
	}
	return &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Role:      models.RoleMember,
		FirstName: first,
		LastName:  last,
		Bio:       f.faker.Sentence(12),
		Avatar:    fmt.Sprintf("https://picsum.photos/seed/%s/200/200", f.faker.UUID()),
	}
}

// Campaign returns a creation request for an active campaign ending within
// the next three months.
func (f *Factory) Campaign(creatorID uint) service.CreateCampaignInput {
	category := f.faker.RandomString(categoryValues(models.CampaignCategories))
	end := f.now().AddDate(0, 0, f.faker.Number(7, 90))
	return service.CreateCampaignInput{
		CreatorID:   creatorID,
		Title:       fmt.Sprintf("%s for %s", f.faker.RandomString(causeNouns), f.faker.City()),
		Description: f.faker.Paragraph(1, 3, 12, " "),
		Category:    category,
		GoalAmount:  float64(f.faker.Number(5, 500) * 100),
		Currency:    f.faker.RandomString(currencies),
		EndDate:     &end,
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()),
		Tags:        []string{category, strings.ToLower(f.faker.Noun())},
		Location: &service.LocationInput{
			Country: f.faker.Country(),
			City:    f.faker.City(),
		},
	}
}

// Donation returns a donation request between 5 and 500.
func (f *Factory) Donation(campaignID, donorID uint) service.DonateInput {
	in := service.DonateInput{
		CampaignID:  campaignID,
		UserID:      donorID,
		Amount:      float64(f.faker.Number(5, 500)),
		IsAnonymous: f.faker.Number(1, 5) == 1,
	}
	if f.faker.Bool() {
		in.Message = f.faker.Sentence(8)
	}
	return in
}

// Post returns a forum post request, linked to relatedCampaign when it is
// non-nil.
func (f *Factory) Post(authorID uint, relatedCampaign *uint) service.CreatePostInput {
	return service.CreatePostInput{
		AuthorID:          authorID,
		Title:             strings.TrimSuffix(f.faker.Sentence(6), "."),
		Content:           f.faker.Paragraph(2, 3, 12, "\n\n"),
		Category:          f.faker.RandomString(categoryValues(models.ForumCategories)),
		Tags:              []string{strings.ToLower(f.faker.Word())},
		RelatedCampaignID: relatedCampaign,
	}
}

// Comment returns a comment request on postID.
func (f *Factory) Comment(postID, userID uint) service.AddCommentInput {
	return service.AddCommentInput{PostID: postID, UserID: userID, Content: f.faker.Sentence(10)}
}

// Testimonial returns a testimonial request.
func (f *Factory) Testimonial(userID uint) service.CreateTestimonialInput {
	return service.CreateTestimonialInput{UserID: userID, Message: f.faker.Sentence(15)}
}

// Reaction picks like twice as often as dislike.
func (f *Factory) Reaction() models.ReactionKind {
	if f.faker.Number(1, 3) == 1 {
		return models.ReactionDislike
	}
	return models.ReactionLike
}

// Pick returns a random index below n.
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}

func categoryValues(options []models.Option) []string {
	values := make([]string, len(options))
	for i, o := range options {
		values[i] = o.Value
	}
	return values
}
