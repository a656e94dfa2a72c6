package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Thejus-u/charity-forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createPost(t *testing.T, token, title string) models.ForumPost {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, "/api/forum", map[string]interface{}{
		"title":    title,
		"content":  "Sharing how our neighbourhood raised funds for the shelter.",
		"category": "donation-stories",
		"tags":     []string{"shelter"},
	}, token)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.ForumPost](t, raw)
}

func TestForumReactions_LikeThenDislike(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.user(t, "alice")
	bob, bobToken := env.user(t, "bob")
	post := env.createPost(t, aliceToken, "Our shelter story")

	path := fmt.Sprintf("/api/forum/%d", post.ID)
	status, raw := env.do(t, http.MethodPost, path+"/like", nil, bobToken)
	require.Equal(t, http.StatusOK, status, string(raw))
	summary := decode[models.ReactionSummary](t, raw)
	assert.Equal(t, int64(1), summary.LikeCount)
	assert.Equal(t, models.ReactionLike, summary.UserReaction)

	// Repeating a reaction changes nothing.
	status, _ = env.do(t, http.MethodPost, path+"/like", nil, bobToken)
	require.Equal(t, http.StatusOK, status)

	status, raw = env.do(t, http.MethodPost, path+"/dislike", nil, bobToken)
	require.Equal(t, http.StatusOK, status)
	summary = decode[models.ReactionSummary](t, raw)
	assert.Equal(t, int64(0), summary.LikeCount)
	assert.Equal(t, int64(1), summary.DislikeCount)
	assert.Equal(t, models.ReactionDislike, summary.UserReaction)

	status, raw = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	detail := decode[models.ForumPost](t, raw)
	assert.Empty(t, detail.Likes)
	assert.Equal(t, []uint{bob.ID}, detail.Dislikes)

	status, _ = env.do(t, http.MethodPost, path+"/like", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(t, http.MethodPost, "/api/forum/999/like", nil, bobToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestForumPost_ViewsAndLifecycle(t *testing.T) {
	env := newTestEnv(t)
	author, authorToken := env.user(t, "alice")
	_, otherToken := env.user(t, "mallory")
	post := env.createPost(t, authorToken, "Volunteering weekend")
	path := fmt.Sprintf("/api/forum/%d", post.ID)

	var stored models.User
	require.NoError(t, env.db.First(&stored, author.ID).Error)
	assert.Equal(t, 1, stored.TotalPosts)

	status, raw := env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, decode[models.ForumPost](t, raw).Views)

	status, raw = env.do(t, http.MethodGet, path, nil, otherToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[models.ForumPost](t, raw).Views)

	tests := []struct {
		name           string
		method         string
		token          string
		body           interface{}
		expectedStatus int
	}{
		{"Stranger cannot edit", http.MethodPut, otherToken, map[string]string{"title": "Hijacked title"}, http.StatusForbidden},
		{"Invalid category", http.MethodPut, authorToken, map[string]string{"category": "memes"}, http.StatusBadRequest},
		{"Author edits", http.MethodPut, authorToken, map[string]string{"title": "Volunteering weekend recap"}, http.StatusOK},
		{"Stranger cannot delete", http.MethodDelete, otherToken, nil, http.StatusForbidden},
		{"Author deletes", http.MethodDelete, authorToken, nil, http.StatusOK},
		{"Deleted post is hidden", http.MethodGet, "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, tt.method, path, tt.body, tt.token)
			assert.Equal(t, tt.expectedStatus, status, string(raw))
		})
	}

	var kept models.ForumPost
	require.NoError(t, env.db.First(&kept, post.ID).Error)
	assert.Equal(t, models.PostStatusDeleted, kept.Status)
	assert.Equal(t, "Volunteering weekend recap", kept.Title)
}

func TestForumCreate_RelatedCampaign(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "alice")
	campaign := env.createCampaign(t, token, 1000)

	body := map[string]interface{}{
		"title":             "Help us reach the goal",
		"content":           "Every contribution gets the filters installed sooner.",
		"category":          "fundraising",
		"relatedCampaignId": campaign.ID,
	}
	status, raw := env.do(t, http.MethodPost, "/api/forum", body, token)
	require.Equal(t, http.StatusCreated, status, string(raw))
	post := decode[models.ForumPost](t, raw)
	require.NotNil(t, post.RelatedCampaignID)
	assert.Equal(t, campaign.ID, *post.RelatedCampaignID)

	body["relatedCampaignId"] = 9999
	status, raw = env.do(t, http.MethodPost, "/api/forum", body, token)
	require.Equal(t, http.StatusBadRequest, status)
	fields := decode[models.ErrorResponse](t, raw).Errors
	require.Len(t, fields, 1)
	assert.Equal(t, "relatedCampaignId", fields[0].Field)
}

func TestForumComments(t *testing.T) {
	env := newTestEnv(t)
	_, authorToken := env.user(t, "alice")
	_, bobToken := env.user(t, "bob")
	_, carolToken := env.user(t, "carol")
	_, modToken := env.user(t, "mod", models.RoleModerator)
	post := env.createPost(t, authorToken, "Fundraiser ideas")
	commentsPath := fmt.Sprintf("/api/forum/%d/comments", post.ID)

	status, raw := env.do(t, http.MethodPost, commentsPath, map[string]string{"content": "Bake sale!"}, bobToken)
	require.Equal(t, http.StatusCreated, status, string(raw))
	comment := decode[models.Comment](t, raw)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)
	commentPath := fmt.Sprintf("%s/%d", commentsPath, comment.ID)

	status, _ = env.do(t, http.MethodPut, commentPath, map[string]string{"content": "Edited by someone else"}, carolToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = env.do(t, http.MethodPut, commentPath, map[string]string{"content": "Bake sale on Saturday!"}, bobToken)
	require.Equal(t, http.StatusOK, status, string(raw))
	edited := decode[models.Comment](t, raw)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	status, raw = env.do(t, http.MethodPost, commentsPath, map[string]string{"content": "   "}, bobToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, errorCode(t, raw))

	// Locking requires a moderator.
	lockPath := fmt.Sprintf("/api/forum/%d/moderation", post.ID)
	status, _ = env.do(t, http.MethodPatch, lockPath, map[string]bool{"isLocked": true}, authorToken)
	assert.Equal(t, http.StatusForbidden, status)
	status, raw = env.do(t, http.MethodPatch, lockPath, map[string]interface{}{"isLocked": true, "isPinned": true}, modToken)
	require.Equal(t, http.StatusOK, status, string(raw))
	moderated := decode[models.ForumPost](t, raw)
	assert.True(t, moderated.IsLocked)
	assert.True(t, moderated.IsPinned)

	status, raw = env.do(t, http.MethodPost, commentsPath, map[string]string{"content": "Too late"}, carolToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeBusinessRule, errorCode(t, raw))

	status, _ = env.do(t, http.MethodDelete, commentPath, nil, carolToken)
	assert.Equal(t, http.StatusForbidden, status)
	// The post author may remove comments on their post.
	status, _ = env.do(t, http.MethodDelete, commentPath, nil, authorToken)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodDelete, commentPath, nil, bobToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "alice")
	_, modToken := env.user(t, "mod", models.RoleModerator)
	env.createPost(t, token, "Alpha shelter post")
	pinned := env.createPost(t, token, "Beta shelter post")
	deleted := env.createPost(t, token, "Gamma shelter post")

	status, _ := env.do(t, http.MethodPatch, fmt.Sprintf("/api/forum/%d/moderation", pinned.ID),
		map[string]bool{"isPinned": true}, modToken)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/forum/%d", deleted.ID), nil, token)
	require.Equal(t, http.StatusOK, status)

	status, raw := env.do(t, http.MethodGet, "/api/forum?sortBy=title&sortOrder=asc", nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[models.Page[models.ForumPost]](t, raw)
	assert.Equal(t, int64(2), page.TotalDocs)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, pinned.ID, page.Docs[0].ID)
	assert.Equal(t, "Alpha shelter post", page.Docs[1].Title)

	status, raw = env.do(t, http.MethodGet, "/api/forum?status=deleted", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, errorCode(t, raw))

	status, raw = env.do(t, http.MethodGet, "/api/forum/categories", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Option](t, raw), len(models.ForumCategories))
}
