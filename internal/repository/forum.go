package repository

import (
	"context"
	"time"

	"github.com/Thejus-u/charity-forum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForumFilter narrows and orders a forum listing. Deleted posts are never
// listed.
type ForumFilter struct {
	Category  string
	Status    models.PostStatus // empty means active and archived
	AuthorID  uint
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

var forumSortColumns = map[string]string{
	"createdAt": "forum_posts.created_at",
	"views":     "forum_posts.views",
	"title":     "forum_posts.title",
}

// ForumSortKeys lists the accepted sortBy values.
func ForumSortKeys() []string {
	return []string{"createdAt", "views", "title"}
}

// ForumRepository defines persistence operations for forum posts and the
// reactions and comments they own.
type ForumRepository interface {
	Create(ctx context.Context, post *models.ForumPost) error
	GetByID(ctx context.Context, id uint) (*models.ForumPost, error)
	List(ctx context.Context, filter ForumFilter) ([]models.ForumPost, int64, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	React(ctx context.Context, postID, userID uint, kind models.ReactionKind) error
	ReactionSummary(ctx context.Context, postID, userID uint) (*models.ReactionSummary, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, postID, commentID uint) (*models.Comment, error)
	EditComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, postID, commentID uint) error
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository returns a new ForumRepository implementation.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) Create(ctx context.Context, post *models.ForumPost) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Comments", "Reactions").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// visible excludes soft-deleted posts.
func visible(db *gorm.DB) *gorm.DB {
	return db.Where("forum_posts.status <> ?", models.PostStatusDeleted)
}

func (r *forumRepository) GetByID(ctx context.Context, id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := visible(r.db.WithContext(ctx)).
		Preload("Author").
		Preload("Reactions").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_comments.created_at ASC, forum_comments.id ASC")
		}).
		Preload("Comments.User").
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *forumRepository) List(ctx context.Context, filter ForumFilter) ([]models.ForumPost, int64, error) {
	base := visible(r.db.WithContext(ctx).Model(&models.ForumPost{}))
	if filter.Status != "" {
		base = base.Where("forum_posts.status = ?", filter.Status)
	}
	if filter.Category != "" {
		base = base.Where("forum_posts.category = ?", filter.Category)
	}
	if filter.AuthorID != 0 {
		base = base.Where("forum_posts.author_id = ?", filter.AuthorID)
	}
	base = searchAny(base, filter.Search, "forum_posts.tags", "forum_posts.title", "forum_posts.content")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.ForumPost
	query := applyCommentCount(base.Session(&gorm.Session{})).
		Preload("Author").
		Preload("Reactions").
		Order("forum_posts.is_pinned DESC")
	query = orderBy(query, forumSortColumns, filter.SortBy, "createdAt", filter.SortOrder).
		Order("forum_posts.id DESC")
	if err := query.Limit(filter.Limit).Offset(filter.Offset).Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// applyCommentCount selects the comment tally alongside each post.
func applyCommentCount(db *gorm.DB) *gorm.DB {
	return db.Select("forum_posts.*, " +
		"(SELECT COUNT(*) FROM forum_comments WHERE forum_comments.post_id = forum_posts.id) AS comment_count")
}

func (r *forumRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := visible(r.db.WithContext(ctx).Model(&models.ForumPost{})).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *forumRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.Update(ctx, id, map[string]interface{}{"status": models.PostStatusDeleted})
}

// IncrementViews bumps the view counter without touching updated_at.
func (r *forumRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.ForumPost{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// React stores kind as the user's only reaction on the post, replacing any
// earlier one.
func (r *forumRepository) React(ctx context.Context, postID, userID uint, kind models.ReactionKind) error {
	reaction := models.PostReaction{PostID: postID, UserID: userID, Kind: kind}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}).Create(&reaction).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *forumRepository) ReactionSummary(ctx context.Context, postID, userID uint) (*models.ReactionSummary, error) {
	summary := models.ReactionSummary{PostID: postID}
	err := r.db.WithContext(ctx).Model(&models.PostReaction{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0) AS like_count, "+
			"COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0) AS dislike_count",
			models.ReactionLike, models.ReactionDislike).
		Where("post_id = ?", postID).
		Scan(&summary).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if userID != 0 {
		var kinds []models.ReactionKind
		if err := r.db.WithContext(ctx).Model(&models.PostReaction{}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Pluck("kind", &kinds).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		if len(kinds) > 0 {
			summary.UserReaction = kinds[0]
		}
	}
	summary.PostID = postID
	return &summary, nil
}

// AddComment appends comment to its post unless the post is gone or locked.
func (r *forumRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.ForumPost
		if err := visible(tx).Select("id", "is_locked").First(&post, comment.PostID).Error; err != nil {
			return notFoundOr(err, "Post", comment.PostID)
		}
		if post.IsLocked {
			return models.NewBusinessRuleError("Post is locked")
		}
		if err := tx.Omit("User").Create(comment).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return err
}

func (r *forumRepository) GetComment(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		First(&comment, commentID).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment", commentID)
	}
	return &comment, nil
}

// EditComment replaces the content and marks the comment edited.
func (r *forumRepository) EditComment(ctx context.Context, comment *models.Comment) error {
	now := time.Now()
	if comment.EditedAt != nil {
		now = *comment.EditedAt
	}
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", comment.ID, comment.PostID).
		Updates(map[string]interface{}{
			"content":   comment.Content,
			"is_edited": true,
			"edited_at": now,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", comment.ID)
	}
	comment.IsEdited = true
	comment.EditedAt = &now
	return nil
}

func (r *forumRepository) DeleteComment(ctx context.Context, postID, commentID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND post_id = ?", commentID, postID).Delete(&models.Comment{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}
