package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Thejus-u/charity-forum/internal/middleware"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/observability"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type ForumService struct {
	forumRepo    repository.ForumRepository
	userRepo     repository.UserRepository
	campaignRepo repository.CampaignRepository
	now          func() time.Time
}

type CreatePostInput struct {
	AuthorID          uint     `json:"-"`
	Title             string   `json:"title" validate:"required,min=5,max=200"`
	Content           string   `json:"content" validate:"required,min=20,max=10000"`
	Category          string   `json:"category" validate:"required,oneof=general donation-stories volunteering fundraising community news help"`
	Tags              []string `json:"tags" validate:"max=10,dive,max=30"`
	RelatedCampaignID *uint    `json:"relatedCampaignId"`
}

type UpdatePostInput struct {
	PostID   uint      `json:"-"`
	UserID   uint      `json:"-"`
	Title    *string   `json:"title" validate:"omitempty,min=5,max=200"`
	Content  *string   `json:"content" validate:"omitempty,min=20,max=10000"`
	Category *string   `json:"category" validate:"omitempty,oneof=general donation-stories volunteering fundraising community news help"`
	Tags     *[]string `json:"tags" validate:"omitempty,max=10,dive,max=30"`
}

type ListPostsInput struct {
	Category  string
	Status    string
	AuthorID  uint
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
	ViewerID  uint
}

type ModeratePostInput struct {
	PostID   uint    `json:"-"`
	IsPinned *bool   `json:"isPinned"`
	IsLocked *bool   `json:"isLocked"`
	Status   *string `json:"status" validate:"omitempty,oneof=active archived"`
}

type AddCommentInput struct {
	PostID  uint   `json:"-"`
	UserID  uint   `json:"-"`
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type EditCommentInput struct {
	PostID    uint   `json:"-"`
	CommentID uint   `json:"-"`
	UserID    uint   `json:"-"`
	Content   string `json:"content" validate:"required,min=1,max=2000"`
}

func NewForumService(
	forumRepo repository.ForumRepository,
	userRepo repository.UserRepository,
	campaignRepo repository.CampaignRepository,
) *ForumService {
	return &ForumService{
		forumRepo:    forumRepo,
		userRepo:     userRepo,
		campaignRepo: campaignRepo,
		now:          time.Now,
	}
}

// Categories returns the forum category catalogue.
func (s *ForumService) Categories() []models.Option {
	return models.ForumCategories
}

func (s *ForumService) CreatePost(ctx context.Context, in CreatePostInput) (*models.ForumPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.RelatedCampaignID != nil {
		if _, err := s.campaignRepo.GetByID(ctx, *in.RelatedCampaignID); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewFieldValidationError([]models.FieldError{
					{Field: "relatedCampaignId", Message: "does not exist"},
				})
			}
			return nil, err
		}
	}

	post := &models.ForumPost{
		Title:             in.Title,
		Content:           in.Content,
		Category:          in.Category,
		AuthorID:          in.AuthorID,
		Tags:              models.NormalizeTags(in.Tags),
		Status:            models.PostStatusActive,
		RelatedCampaignID: in.RelatedCampaignID,
	}
	if err := s.forumRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	if err := s.userRepo.IncrementPosts(ctx, in.AuthorID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to update post count",
			slog.Uint64("user_id", uint64(in.AuthorID)),
			slog.String("error", err.Error()))
	}

	created, err := s.forumRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	created.Decorate(in.AuthorID)
	return created, nil
}

func (s *ForumService) ListPosts(ctx context.Context, in ListPostsInput) (models.Page[models.ForumPost], error) {
	var fields []models.FieldError
	if in.Category != "" && !isForumCategory(in.Category) {
		fields = append(fields, models.FieldError{Field: "category", Message: "is not a known category"})
	}
	status := models.PostStatus(in.Status)
	if status != "" && status != models.PostStatusActive && status != models.PostStatusArchived {
		fields = append(fields, models.FieldError{Field: "status", Message: "must be one of: active, archived"})
	}
	sortBy := in.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if !contains(repository.ForumSortKeys(), sortBy) {
		fields = append(fields, models.FieldError{Field: "sortBy", Message: "must be one of: " + strings.Join(repository.ForumSortKeys(), ", ")})
	}
	order, ok := normalizeOrder(in.SortOrder)
	if !ok {
		fields = append(fields, models.FieldError{Field: "sortOrder", Message: "must be one of: asc, desc"})
	}
	if len(fields) > 0 {
		return models.Page[models.ForumPost]{}, models.NewFieldValidationError(fields)
	}

	page, limit, offset := normalizePage(in.Page, in.Limit)
	posts, total, err := s.forumRepo.List(ctx, repository.ForumFilter{
		Category:  in.Category,
		Status:    status,
		AuthorID:  in.AuthorID,
		Search:    strings.TrimSpace(in.Search),
		SortBy:    sortBy,
		SortOrder: order,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return models.Page[models.ForumPost]{}, err
	}
	for i := range posts {
		posts[i].Decorate(in.ViewerID)
	}
	return models.NewPage(posts, total, page, limit), nil
}

func isForumCategory(category string) bool {
	for _, o := range models.ForumCategories {
		if o.Value == category {
			return true
		}
	}
	return false
}

// GetPost returns a visible post. Authenticated readers count as a view.
func (s *ForumService) GetPost(ctx context.Context, id, viewerID uint) (*models.ForumPost, error) {
	post, err := s.forumRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if err := s.forumRepo.IncrementViews(ctx, id); err != nil {
			return nil, err
		}
		post.Views++
	}
	post.Decorate(viewerID)
	return post, nil
}

func (s *ForumService) authored(ctx context.Context, id, userID uint, action string) (*models.ForumPost, error) {
	post, err := s.forumRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("Only the author can " + action + " this post")
	}
	return post, nil
}

func (s *ForumService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.ForumPost, error) {
	in.Title = trimmed(in.Title)
	in.Content = trimmed(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authored(ctx, in.PostID, in.UserID, "update"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Tags != nil {
		updates["tags"] = models.NormalizeTags(*in.Tags)
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}

	if err := s.forumRepo.Update(ctx, in.PostID, updates); err != nil {
		return nil, err
	}
	return s.reload(ctx, in.PostID, in.UserID)
}

func (s *ForumService) reload(ctx context.Context, id, viewerID uint) (*models.ForumPost, error) {
	post, err := s.forumRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Decorate(viewerID)
	return post, nil
}

// DeletePost hides the post. The row and its comments are kept.
func (s *ForumService) DeletePost(ctx context.Context, id, userID uint) error {
	if _, err := s.authored(ctx, id, userID, "delete"); err != nil {
		return err
	}
	return s.forumRepo.SoftDelete(ctx, id)
}

// React sets the caller's reaction. Repeating the same reaction is a no-op.
func (s *ForumService) React(ctx context.Context, postID, userID uint, kind models.ReactionKind) (*models.ReactionSummary, error) {
	if _, err := s.forumRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "forum.react",
		attribute.Int64("post.id", int64(postID)),
		attribute.String("reaction.kind", string(kind)))
	defer span.End()

	if err := s.forumRepo.React(ctx, postID, userID, kind); err != nil {
		span.SetError(err)
		return nil, err
	}
	observability.ForumReactions.WithLabelValues(string(kind)).Inc()
	return s.forumRepo.ReactionSummary(ctx, postID, userID)
}

// Moderate pins, locks, archives or restores a post.
func (s *ForumService) Moderate(ctx context.Context, in ModeratePostInput) (*models.ForumPost, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.IsPinned != nil {
		updates["is_pinned"] = *in.IsPinned
	}
	if in.IsLocked != nil {
		updates["is_locked"] = *in.IsLocked
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}
	if err := s.forumRepo.Update(ctx, in.PostID, updates); err != nil {
		return nil, err
	}
	return s.reload(ctx, in.PostID, 0)
}

func (s *ForumService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: in.PostID, UserID: in.UserID, Content: in.Content}
	if err := s.forumRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	observability.ForumComments.WithLabelValues("created").Inc()

	created, err := s.forumRepo.GetComment(ctx, in.PostID, comment.ID)
	if err != nil {
		return nil, err
	}
	created.Decorate()
	return created, nil
}

func (s *ForumService) EditComment(ctx context.Context, in EditCommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.forumRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}
	comment, err := s.forumRepo.GetComment(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the comment author can edit this comment")
	}

	editedAt := s.now().UTC()
	comment.Content = in.Content
	comment.EditedAt = &editedAt
	if err := s.forumRepo.EditComment(ctx, comment); err != nil {
		return nil, err
	}
	observability.ForumComments.WithLabelValues("edited").Inc()
	comment.Decorate()
	return comment, nil
}

// DeleteComment removes a comment. The comment author and the post author
// may do this.
func (s *ForumService) DeleteComment(ctx context.Context, postID, commentID, userID uint) error {
	post, err := s.forumRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	comment, err := s.forumRepo.GetComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && post.AuthorID != userID {
		return models.NewForbiddenError("Only the comment author or the post author can delete this comment")
	}
	if err := s.forumRepo.DeleteComment(ctx, postID, commentID); err != nil {
		return err
	}
	observability.ForumComments.WithLabelValues("deleted").Inc()
	return nil
}
