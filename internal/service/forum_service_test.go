package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newForumService(t *testing.T) (*ForumService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewForumService(
		repository.NewForumRepository(db),
		repository.NewUserRepository(db),
		repository.NewCampaignRepository(db),
	)
	return svc, db
}

func validPostInput(authorID uint) CreatePostInput {
	return CreatePostInput{
		AuthorID: authorID,
		Title:    "How we ran a bake sale",
		Content:  "We raised enough to fund two school libraries.",
		Category: models.ForumCategoryFundraising,
		Tags:     []string{"Bake", "sale"},
	}
}

func TestForumService_CreatePost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	author := testutil.CreateUser(t, db, "author")

	post, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusActive, post.Status)
	assert.Equal(t, models.StringList{"bake", "sale"}, post.Tags)
	require.NotNil(t, post.AuthorInfo)
	assert.Equal(t, "author", post.AuthorInfo.Username)

	var stored models.User
	require.NoError(t, db.First(&stored, author.ID).Error)
	assert.Equal(t, 1, stored.TotalPosts)

	in := validPostInput(author.ID)
	in.RelatedCampaignID = ptr(uint(404))
	_, err = svc.CreatePost(ctx, in)
	assertCode(t, err, models.CodeValidation)
	assert.Equal(t, []string{"relatedCampaignId"}, fieldNames(t, err))

	_, err = svc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID,
		Title:    "Hey",
		Content:  "short",
		Category: "random",
		Tags:     []string{strings.Repeat("t", 31)},
	})
	assertCode(t, err, models.CodeValidation)
	assert.ElementsMatch(t, []string{"title", "content", "category", "tags[0]"}, fieldNames(t, err))
}

func TestForumService_GetPostCountsAuthenticatedViews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	author := testutil.CreateUser(t, db, "author")
	post, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)

	got, err := svc.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Views)

	got, err = svc.GetPost(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	got, err = svc.GetPost(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)
}

func TestForumService_ReactionsExample(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post, err := svc.CreatePost(ctx, validPostInput(alice.ID))
	require.NoError(t, err)

	summary, err := svc.React(ctx, post.ID, alice.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.LikeCount)

	summary, err = svc.React(ctx, post.ID, bob.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.LikeCount)

	summary, err = svc.React(ctx, post.ID, alice.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.LikeCount)
	assert.Equal(t, int64(1), summary.DislikeCount)
	assert.Equal(t, models.ReactionDislike, summary.UserReaction)

	got, err := svc.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, got.Likes)
	assert.Equal(t, []uint{alice.ID}, got.Dislikes)

	_, err = svc.React(ctx, 999, alice.ID, models.ReactionLike)
	assertCode(t, err, models.CodeNotFound)
}

func TestForumService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	author := testutil.CreateUser(t, db, "author")
	other := testutil.CreateUser(t, db, "other")
	post, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: other.ID, Title: ptr("Taken over by other")})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: author.ID, Category: ptr("nope")})
	assertCode(t, err, models.CodeValidation)

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: author.ID, Title: ptr("How we ran two bake sales")})
	require.NoError(t, err)
	assert.Equal(t, "How we ran two bake sales", updated.Title)
	assert.Equal(t, post.Content, updated.Content)

	assertCode(t, svc.DeletePost(ctx, post.ID, other.ID), models.CodeForbidden)
	require.NoError(t, svc.DeletePost(ctx, post.ID, author.ID))

	_, err = svc.GetPost(ctx, post.ID, author.ID)
	assertCode(t, err, models.CodeNotFound)

	page, err := svc.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalDocs)
}

func TestForumService_UpdateTrimsBeforeValidating(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	author := testutil.CreateUser(t, db, "author")
	post, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: author.ID, Title: ptr("     ")})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: author.ID, Content: ptr("short" + strings.Repeat(" ", 30))})
	assertCode(t, err, models.CodeValidation)

	stored, err := svc.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, post.Title, stored.Title)
	assert.Equal(t, post.Content, stored.Content)

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: author.ID, Title: ptr("  Volunteer shifts this week  ")})
	require.NoError(t, err)
	assert.Equal(t, "Volunteer shifts this week", updated.Title)
}

func TestForumService_Comments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	author := testutil.CreateUser(t, db, "author")
	commenter := testutil.CreateUser(t, db, "commenter")
	stranger := testutil.CreateUser(t, db, "stranger")
	post, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, AddCommentInput{PostID: post.ID, UserID: commenter.ID, Content: "   "})
	assertCode(t, err, models.CodeValidation)

	comment, err := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, UserID: commenter.ID, Content: "Great idea!"})
	require.NoError(t, err)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "commenter", comment.Author.Username)

	_, err = svc.EditComment(ctx, EditCommentInput{PostID: post.ID, CommentID: comment.ID, UserID: author.ID, Content: "Rewritten"})
	assertCode(t, err, models.CodeForbidden)

	edited, err := svc.EditComment(ctx, EditCommentInput{PostID: post.ID, CommentID: comment.ID, UserID: commenter.ID, Content: "Great idea, thanks!"})
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	assertCode(t, svc.DeleteComment(ctx, post.ID, comment.ID, stranger.ID), models.CodeForbidden)
	require.NoError(t, svc.DeleteComment(ctx, post.ID, comment.ID, author.ID), "post authors may remove comments")

	own, err := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, UserID: commenter.ID, Content: "Second thought"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteComment(ctx, post.ID, own.ID, commenter.ID))

	_, err = svc.Moderate(ctx, ModeratePostInput{PostID: post.ID, IsLocked: ptr(true)})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, AddCommentInput{PostID: post.ID, UserID: commenter.ID, Content: "Anyone there?"})
	assertCode(t, err, models.CodeBusinessRule)
}

func TestForumService_ListPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newForumService(t)
	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")

	first, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, validPostInput(reader.ID))
	require.NoError(t, err)
	archived, err := svc.CreatePost(ctx, validPostInput(author.ID))
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, ModeratePostInput{PostID: first.ID, IsPinned: ptr(true)})
	require.NoError(t, err)
	_, err = svc.Moderate(ctx, ModeratePostInput{PostID: archived.ID, Status: ptr("archived")})
	require.NoError(t, err)
	_, err = svc.Moderate(ctx, ModeratePostInput{PostID: archived.ID, Status: ptr("deleted")})
	assertCode(t, err, models.CodeValidation)
	_, err = svc.React(ctx, second.ID, author.ID, models.ReactionLike)
	require.NoError(t, err)

	page, err := svc.ListPosts(ctx, ListPostsInput{ViewerID: author.ID})
	require.NoError(t, err)
	require.Len(t, page.Docs, 3)
	assert.Equal(t, first.ID, page.Docs[0].ID, "pinned posts come first")
	assert.Equal(t, archived.ID, page.Docs[1].ID)
	assert.Equal(t, models.ReactionLike, page.Docs[2].UserReaction)
	assert.Equal(t, 1, page.Docs[2].LikeCount)

	page, err = svc.ListPosts(ctx, ListPostsInput{Status: "active", AuthorID: author.ID})
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, first.ID, page.Docs[0].ID)

	_, err = svc.ListPosts(ctx, ListPostsInput{Status: "deleted"})
	assertCode(t, err, models.CodeValidation)
}
