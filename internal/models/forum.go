package models

import "time"

// Forum categories.
const (
	ForumCategoryGeneral         = "general"
	ForumCategoryDonationStories = "donation-stories"
	ForumCategoryVolunteering    = "volunteering"
	ForumCategoryFundraising     = "fundraising"
	ForumCategoryCommunity       = "community"
	ForumCategoryNews            = "news"
	ForumCategoryHelp            = "help"
)

// ForumCategories lists the accepted forum categories with labels.
var ForumCategories = []Option{
	{Value: ForumCategoryGeneral, Label: "General Discussion"},
	{Value: ForumCategoryDonationStories, Label: "Donation Stories"},
	{Value: ForumCategoryVolunteering, Label: "Volunteering"},
	{Value: ForumCategoryFundraising, Label: "Fundraising Tips"},
	{Value: ForumCategoryCommunity, Label: "Community Events"},
	{Value: ForumCategoryNews, Label: "News & Updates"},
	{Value: ForumCategoryHelp, Label: "Help & Support"},
}

// PostStatus is the visibility state of a forum post.
type PostStatus string

const (
	PostStatusActive   PostStatus = "active"
	PostStatusArchived PostStatus = "archived"
	PostStatusDeleted  PostStatus = "deleted"
)

// ReactionKind is a user's opinion of a post.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// ForumPost is a discussion thread. Deleting a post only flips its status.
type ForumPost struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"size:200;not null" json:"title"`
	Content           string         `gorm:"type:text;not null" json:"content"`
	Category          string         `gorm:"size:30;not null;index" json:"category"`
	AuthorID          uint           `gorm:"not null;index" json:"authorId"`
	Author            *User          `gorm:"foreignKey:AuthorID" json:"-"`
	Tags              StringList     `json:"tags"`
	Views             int            `gorm:"not null;default:0" json:"views"`
	IsPinned          bool           `gorm:"not null;default:false" json:"isPinned"`
	IsLocked          bool           `gorm:"not null;default:false" json:"isLocked"`
	Status            PostStatus     `gorm:"size:20;not null;default:active;index" json:"status"`
	RelatedCampaignID *uint          `gorm:"index" json:"relatedCampaignId,omitempty"`
	Comments          []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	Reactions         []PostReaction `gorm:"foreignKey:PostID" json:"-"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`

	AuthorInfo   *UserSummary `gorm:"-" json:"author,omitempty"`
	Likes        []uint       `gorm:"-" json:"likes"`
	Dislikes     []uint       `gorm:"-" json:"dislikes"`
	LikeCount    int          `gorm:"-" json:"likeCount"`
	DislikeCount int          `gorm:"-" json:"dislikeCount"`
	CommentCount int          `gorm:"->;-:migration" json:"commentCount"`
	UserReaction ReactionKind `gorm:"-" json:"userReaction,omitempty"`
}

// TableName returns the database table name for ForumPost.
func (ForumPost) TableName() string {
	return "forum_posts"
}

// PostReaction is the single reaction a user holds on a post. The unique
// (post_id, user_id) pair makes like and dislike mutually exclusive.
type PostReaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_post_reactions_post_user" json:"postId"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_post_reactions_post_user" json:"userId"`
	Kind      ReactionKind `gorm:"size:10;not null" json:"kind"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Comment is a reply owned by a forum post.
type Comment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;index" json:"postId"`
	UserID    uint         `gorm:"not null;index" json:"userId"`
	User      *User        `gorm:"foreignKey:UserID" json:"-"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	IsEdited  bool         `gorm:"not null;default:false" json:"isEdited"`
	EditedAt  *time.Time   `json:"editedAt,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Author    *UserSummary `gorm:"-" json:"user,omitempty"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string {
	return "forum_comments"
}

// Decorate fills reaction tallies and display fields. viewerID may be zero.
func (p *ForumPost) Decorate(viewerID uint) {
	if p.Author != nil {
		p.AuthorInfo = p.Author.Summary()
	}
	if p.Tags == nil {
		p.Tags = StringList{}
	}
	p.Likes = []uint{}
	p.Dislikes = []uint{}
	p.UserReaction = ""
	for _, r := range p.Reactions {
		switch r.Kind {
		case ReactionLike:
			p.Likes = append(p.Likes, r.UserID)
		case ReactionDislike:
			p.Dislikes = append(p.Dislikes, r.UserID)
		}
		if viewerID != 0 && r.UserID == viewerID {
			p.UserReaction = r.Kind
		}
	}
	p.LikeCount = len(p.Likes)
	p.DislikeCount = len(p.Dislikes)
	if p.Comments != nil {
		p.CommentCount = len(p.Comments)
	}
	for i := range p.Comments {
		p.Comments[i].Decorate()
	}
}

// Decorate fills the comment author's display form.
func (c *Comment) Decorate() {
	if c.User != nil {
		c.Author = c.User.Summary()
	}
}

// ReactionSummary is returned after a like or dislike.
type ReactionSummary struct {
	PostID       uint         `json:"postId"`
	LikeCount    int64        `json:"likeCount"`
	DislikeCount int64        `json:"dislikeCount"`
	UserReaction ReactionKind `json:"userReaction"`
}
