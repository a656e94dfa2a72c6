// Package seed populates the database with demo data for development and
// testing. Everything goes through the service layer so counters and
// campaign totals stay consistent with the donor entries.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Thejus-u/charity-forum/internal/middleware"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Options configure a seeding run.
type Options struct {
	NumUsers     int
	NumCampaigns int
	NumPosts     int
	// MaxDonations caps the donations made to each campaign.
	MaxDonations int
	ShouldClean  bool
	// RandSeed makes the fake data reproducible. Zero picks a random seed.
	RandSeed int64
	HashCost int
}

// DefaultOptions mirror the seed command's flag defaults.
func DefaultOptions() Options {
	return Options{
		NumUsers:     20,
		NumCampaigns: 10,
		NumPosts:     40,
		MaxDonations: 8,
		ShouldClean:  true,
	}
}

// Result counts what a run created.
type Result struct {
	Users        int
	Campaigns    int
	Donations    int
	Posts        int
	Comments     int
	Reactions    int
	Testimonials int
}

// Seeder writes demo data through the application services.
type Seeder struct {
	db           *gorm.DB
	factory      *Factory
	users        *service.UserService
	campaigns    *service.CampaignService
	forum        *service.ForumService
	testimonials *service.TestimonialService
}

// NewSeeder builds a Seeder and its services on db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)

	hashCost := opts.HashCost
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}

	return &Seeder{
		db:           db,
		factory:      NewFactory(opts.RandSeed),
		users:        service.NewUserService(userRepo, nil).WithHashCost(hashCost),
		campaigns:    service.NewCampaignService(campaignRepo, userRepo),
		forum:        service.NewForumService(repository.NewForumRepository(db), userRepo, campaignRepo),
		testimonials: service.NewTestimonialService(repository.NewTestimonialRepository(db)),
	}
}

// Run seeds users, the sample causes, random campaigns with donations, forum
// posts with comments and reactions, and testimonials.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	middleware.Logger.Info("Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("campaigns", opts.NumCampaigns),
		slog.Int("posts", opts.NumPosts))

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	res := &Result{}

	team, err := s.users.EnsureUser(ctx, &models.User{
		Username:  "charity_team",
		Email:     "team@charity.local",
		Role:      models.RoleModerator,
		FirstName: "Charity",
		LastName:  "Team",
	}, DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to create team account: %w", err)
	}

	users := []*models.User{team}
	for i := 1; i <= opts.NumUsers; i++ {
		user, err := s.users.EnsureUser(ctx, s.factory.User(i), DemoPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	res.Users = len(users)

	campaigns, err := s.Causes(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	for i := 0; i < opts.NumCampaigns; i++ {
		creator := users[s.factory.Pick(len(users))]
		campaign, err := s.campaigns.CreateCampaign(ctx, s.factory.Campaign(creator.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to create campaign %d: %w", i+1, err)
		}
		campaigns = append(campaigns, campaign)
	}
	res.Campaigns = len(campaigns)

	if opts.MaxDonations > 0 {
		for _, campaign := range campaigns {
			n := s.factory.Pick(opts.MaxDonations + 1)
			for i := 0; i < n; i++ {
				donor := users[s.factory.Pick(len(users))]
				if _, err := s.campaigns.Donate(ctx, s.factory.Donation(campaign.ID, donor.ID)); err != nil {
					return nil, fmt.Errorf("failed to donate to campaign %d: %w", campaign.ID, err)
				}
				res.Donations++
			}
		}
	}

	if err := s.seedForum(ctx, opts.NumPosts, users, campaigns, res); err != nil {
		return nil, err
	}

	for _, user := range users[1:min(len(users), 6)] {
		if _, err := s.testimonials.CreateTestimonial(ctx, s.factory.Testimonial(user.ID)); err != nil {
			return nil, fmt.Errorf("failed to create testimonial: %w", err)
		}
		res.Testimonials++
	}

	middleware.Logger.Info("Database seeding complete",
		slog.Int("users", res.Users),
		slog.Int("campaigns", res.Campaigns),
		slog.Int("donations", res.Donations),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("reactions", res.Reactions),
		slog.Int("testimonials", res.Testimonials))
	return res, nil
}

func (s *Seeder) seedForum(ctx context.Context, numPosts int, users []*models.User, campaigns []*models.Campaign, res *Result) error {
	for i := 0; i < numPosts; i++ {
		author := users[s.factory.Pick(len(users))]

		var related *uint
		if len(campaigns) > 0 && s.factory.Pick(4) == 0 {
			id := campaigns[s.factory.Pick(len(campaigns))].ID
			related = &id
		}

		post, err := s.forum.CreatePost(ctx, s.factory.Post(author.ID, related))
		if err != nil {
			return fmt.Errorf("failed to create post %d: %w", i+1, err)
		}
		res.Posts++

		for c := s.factory.Pick(4); c > 0; c-- {
			commenter := users[s.factory.Pick(len(users))]
			if _, err := s.forum.AddComment(ctx, s.factory.Comment(post.ID, commenter.ID)); err != nil {
				return fmt.Errorf("failed to comment on post %d: %w", post.ID, err)
			}
			res.Comments++
		}

		// Each user reacts at most once so the count matches the stored rows.
		for _, idx := range distinctIndexes(s.factory, len(users), s.factory.Pick(len(users)+1)) {
			if _, err := s.forum.React(ctx, post.ID, users[idx].ID, s.factory.Reaction()); err != nil {
				return fmt.Errorf("failed to react to post %d: %w", post.ID, err)
			}
			res.Reactions++
		}
	}
	return nil
}

// distinctIndexes returns k distinct indexes below n.
func distinctIndexes(f *Factory, n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleInts(idx)
	return idx[:min(k, n)]
}

// ClearAll removes every seeded table's rows, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []interface{}{
		&models.PostReaction{},
		&models.Comment{},
		&models.ForumPost{},
		&models.Testimonial{},
		&models.CampaignUpdate{},
		&models.DonorEntry{},
		&models.Campaign{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
