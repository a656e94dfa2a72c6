package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Thejus-u/charity-forum/internal/cache"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newCampaignService(t *testing.T) (*CampaignService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewCampaignService(repository.NewCampaignRepository(db), repository.NewUserRepository(db)).
		WithClock(func() time.Time { return fixedNow })
	return svc, db
}

func validCampaignInput(creatorID uint) CreateCampaignInput {
	end := fixedNow.Add(30 * 24 * time.Hour)
	return CreateCampaignInput{
		CreatorID:   creatorID,
		Title:       "Clean water for Kibera",
		Description: "Building three wells to serve the community.",
		Category:    models.CampaignCategoryCommunity,
		GoalAmount:  5000,
		EndDate:     &end,
		Tags:        []string{" Water ", "water", "Health"},
		Location:    &LocationInput{Country: "Kenya", City: "Nairobi"},
	}
}

func TestCampaignService_CreateCampaign(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("defaults and derived fields", func(t *testing.T) {
		t.Parallel()
		svc, db := newCampaignService(t)
		creator := testutil.CreateUser(t, db, "creator")

		c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
		require.NoError(t, err)
		assert.Equal(t, models.CurrencyUSD, c.Currency)
		assert.Equal(t, models.CampaignStatusActive, c.Status)
		assert.Zero(t, c.CurrentAmount)
		assert.Equal(t, models.StringList{"water", "health"}, c.Tags)
		assert.Equal(t, "Nairobi", c.Location.City)
		assert.Equal(t, 30, c.DaysRemaining)
		assert.True(t, c.Active)
		require.NotNil(t, c.CreatorInfo)
		assert.Equal(t, "creator", c.CreatorInfo.Username)
	})

	t.Run("all violations reported together", func(t *testing.T) {
		t.Parallel()
		svc, _ := newCampaignService(t)
		past := fixedNow.Add(-time.Hour)

		_, err := svc.CreateCampaign(ctx, CreateCampaignInput{
			CreatorID:   1,
			Title:       "Hey",
			Description: "too short",
			Category:    "sports",
			GoalAmount:  0.5,
			Currency:    "JPY",
			EndDate:     &past,
			Location:    &LocationInput{City: strings.Repeat("x", 101)},
		})
		assertCode(t, err, models.CodeValidation)
		assert.ElementsMatch(t,
			[]string{"title", "description", "category", "goalAmount", "currency", "endDate", "location.city"},
			fieldNames(t, err))
	})

	t.Run("end date is required", func(t *testing.T) {
		t.Parallel()
		svc, _ := newCampaignService(t)
		in := validCampaignInput(1)
		in.EndDate = nil

		_, err := svc.CreateCampaign(ctx, in)
		assertCode(t, err, models.CodeValidation)
		assert.Equal(t, []string{"endDate"}, fieldNames(t, err))
	})
}

func TestCampaignService_DonateExample(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	donor := testutil.CreateUser(t, db, "donor")

	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: donor.ID, Amount: 1000, Message: "Good luck"})
	require.NoError(t, err)
	after, err := svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: donor.ID, Amount: 4500, IsAnonymous: true})
	require.NoError(t, err)

	assert.InDelta(t, 5500, after.CurrentAmount, 0.001)
	assert.Equal(t, float64(100), after.ProgressPercentage)
	assert.Equal(t, 2, after.DonorCount)
	require.Len(t, after.Donors, 2)
	require.NotNil(t, after.Donors[0].Donor)
	assert.Equal(t, "donor", after.Donors[0].Donor.Username)
	assert.Nil(t, after.Donors[1].Donor, "anonymous donors are shown without a user")

	var stored models.User
	require.NoError(t, db.First(&stored, donor.ID).Error)
	assert.InDelta(t, 5500, stored.TotalDonations, 0.001)
}

func TestCampaignService_DonateValidationAndRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: creator.ID, Amount: 0.5})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: creator.ID, Amount: 5, Message: strings.Repeat("m", 501)})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: creator.ID, Amount: 10.005})
	assertCode(t, err, models.CodeValidation)
	assert.Equal(t, []string{"amount"}, fieldNames(t, err))

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: creator.ID, GoalAmount: ptr(7500.125)})
	assertCode(t, err, models.CodeValidation)

	stored, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.DonorCount)
	assert.Equal(t, float64(5000), stored.GoalAmount)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: 999, UserID: creator.ID, Amount: 5})
	assertCode(t, err, models.CodeNotFound)

	later := svc.WithClock(func() time.Time { return fixedNow.Add(31 * 24 * time.Hour) })
	_, err = later.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: creator.ID, Amount: 5})
	assertCode(t, err, models.CodeBusinessRule)
}

func TestCampaignService_DonateSurvivesCounterFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	svc := NewCampaignService(repository.NewCampaignRepository(db), failingDonationsRepo{users}).
		WithClock(func() time.Time { return fixedNow })
	creator := testutil.CreateUser(t, db, "creator")
	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	after, err := svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: creator.ID, Amount: 25})
	require.NoError(t, err)
	assert.InDelta(t, 25, after.CurrentAmount, 0.001)
}

func TestCampaignService_UpdateTrimsBeforeValidating(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{
		CampaignID:  c.ID,
		UserID:      creator.ID,
		Title:       ptr("ab      "),
		Description: ptr("                    x"),
	})
	assertCode(t, err, models.CodeValidation)
	assert.ElementsMatch(t, []string{"title", "description"}, fieldNames(t, err))

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: creator.ID, Title: ptr("     ")})
	assertCode(t, err, models.CodeValidation)

	stored, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, stored.Title)
	assert.Equal(t, c.Description, stored.Description)

	updated, err := svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: creator.ID, Title: ptr("   Wells for Turkana   ")})
	require.NoError(t, err)
	assert.Equal(t, "Wells for Turkana", updated.Title)
}

func TestCampaignService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	other := testutil.CreateUser(t, db, "other")

	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: other.ID, Title: ptr("Hijacked title")})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: creator.ID, Title: ptr("Hi")})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: creator.ID})
	assertCode(t, err, models.CodeValidation)

	updated, err := svc.UpdateCampaign(ctx, UpdateCampaignInput{
		CampaignID: c.ID,
		UserID:     creator.ID,
		Title:      ptr("Clean water for everyone"),
		GoalAmount: ptr(8000.0),
		Location:   &LocationInput{Country: "Kenya", City: "Mombasa"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Clean water for everyone", updated.Title)
	assert.Equal(t, float64(8000), updated.GoalAmount)
	assert.Equal(t, "Mombasa", updated.Location.City)

	update, err := svc.AddUpdate(ctx, AddCampaignUpdateInput{CampaignID: c.ID, UserID: creator.ID, Title: "First well", Content: "The first well is finished."})
	require.NoError(t, err)
	assert.NotZero(t, update.ID)
	_, err = svc.AddUpdate(ctx, AddCampaignUpdateInput{CampaignID: c.ID, UserID: other.ID, Title: "Fake news", Content: "Not my campaign at all."})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: other.ID, Amount: 10})
	require.NoError(t, err)

	_, err = svc.UpdateCampaign(ctx, UpdateCampaignInput{CampaignID: c.ID, UserID: creator.ID, Title: ptr("Changed after donations")})
	assertCode(t, err, models.CodeBusinessRule)
	assertCode(t, svc.DeleteCampaign(ctx, c.ID, creator.ID), models.CodeBusinessRule)

	_, err = svc.AddUpdate(ctx, AddCampaignUpdateInput{CampaignID: c.ID, UserID: creator.ID, Title: "Second well", Content: "Updates are still allowed."})
	require.NoError(t, err)

	fresh, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)
	assertCode(t, svc.DeleteCampaign(ctx, fresh.ID, other.ID), models.CodeForbidden)
	require.NoError(t, svc.DeleteCampaign(ctx, fresh.ID, creator.ID))
	_, err = svc.GetCampaign(ctx, fresh.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestCampaignService_SetStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	member := testutil.CreateUser(t, db, "member")
	mod := testutil.CreateUserWithRole(t, db, "mod", models.RoleModerator)

	a, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)
	b, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, SetCampaignStatusInput{CampaignID: a.ID, UserID: member.ID, Role: models.RoleMember, Status: "cancelled"})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.SetStatus(ctx, SetCampaignStatusInput{CampaignID: a.ID, UserID: creator.ID, Role: models.RoleMember, Status: "expired"})
	assertCode(t, err, models.CodeValidation)

	done, err := svc.SetStatus(ctx, SetCampaignStatusInput{CampaignID: a.ID, UserID: creator.ID, Role: models.RoleMember, Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCompleted, done.Status)
	assert.False(t, done.Active)

	cancelled, err := svc.SetStatus(ctx, SetCampaignStatusInput{CampaignID: b.ID, UserID: mod.ID, Role: models.RoleModerator, Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCancelled, cancelled.Status)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: b.ID, UserID: member.ID, Amount: 5})
	assertCode(t, err, models.CodeBusinessRule)
}

func TestCampaignService_ListCampaigns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")

	for i := 0; i < 12; i++ {
		_, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
		require.NoError(t, err)
	}
	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, SetCampaignStatusInput{CampaignID: c.ID, UserID: creator.ID, Status: "completed"})
	require.NoError(t, err)

	page, err := svc.ListCampaigns(ctx, ListCampaignsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.TotalDocs)
	assert.Len(t, page.Docs, 10)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)

	page, err = svc.ListCampaigns(ctx, ListCampaignsInput{Status: StatusAll, Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(13), page.TotalDocs)
	assert.Len(t, page.Docs, 3)
	assert.True(t, page.HasPrevPage)

	page, err = svc.ListCampaigns(ctx, ListCampaignsInput{Status: "completed", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, page.Limit)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, c.ID, page.Docs[0].ID)

	_, err = svc.ListCampaigns(ctx, ListCampaignsInput{Status: "bogus", SortBy: "likes", SortOrder: "sideways", Category: "sports"})
	assertCode(t, err, models.CodeValidation)
	assert.ElementsMatch(t, []string{"status", "sortBy", "sortOrder", "category"}, fieldNames(t, err))
}

func TestCampaignService_GetCampaignCaching(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	first, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.CampaignKey(c.ID)))

	cached, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, cached.Title)
	require.NotNil(t, cached.CreatorInfo)
	assert.Equal(t, "creator", cached.CreatorInfo.Username)

	_, err = svc.Donate(ctx, DonateInput{CampaignID: c.ID, UserID: creator.ID, Amount: 40})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CampaignKey(c.ID)), "donations invalidate the cached campaign")

	fresh, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40, fresh.CurrentAmount, 0.001)
}

func TestCampaignService_ProfileUpdateInvalidatesCampaigns(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	svc, db := newCampaignService(t)
	users := NewUserService(repository.NewUserRepository(db), tokenStub{}).WithProfileCaches(svc)
	creator := testutil.CreateUser(t, db, "creator")
	donor := testutil.CreateUser(t, db, "donor")
	bystander := testutil.CreateUser(t, db, "bystander")

	own, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)
	other, err := svc.CreateCampaign(ctx, validCampaignInput(bystander.ID))
	require.NoError(t, err)
	_, err = svc.Donate(ctx, DonateInput{CampaignID: other.ID, UserID: donor.ID, Amount: 25})
	require.NoError(t, err)

	for _, id := range []uint{own.ID, other.ID} {
		_, err := svc.GetCampaign(ctx, id)
		require.NoError(t, err)
		require.True(t, mr.Exists(cache.CampaignKey(id)))
	}

	_, err = users.UpdateProfile(ctx, UpdateProfileInput{UserID: donor.ID, Avatar: ptr("https://cdn.example.com/donor.png")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CampaignKey(other.ID)), "donated-to campaign is evicted")
	assert.True(t, mr.Exists(cache.CampaignKey(own.ID)), "unrelated campaign stays cached")

	_, err = users.UpdateProfile(ctx, UpdateProfileInput{UserID: creator.ID, FirstName: ptr("Casey")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CampaignKey(own.ID)))

	fresh, err := svc.GetCampaign(ctx, own.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.CreatorInfo)
	assert.Equal(t, "Casey", fresh.CreatorInfo.FirstName)
}

func TestCampaignService_ExpireOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newCampaignService(t)
	creator := testutil.CreateUser(t, db, "creator")
	c, err := svc.CreateCampaign(ctx, validCampaignInput(creator.ID))
	require.NoError(t, err)

	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	later := svc.WithClock(func() time.Time { return fixedNow.Add(40 * 24 * time.Hour) })
	n, err = later.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := later.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusExpired, got.Status)
	assert.Zero(t, got.DaysRemaining)
}
