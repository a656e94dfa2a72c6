package server

import (
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetForumCategories handles GET /api/forum/categories
// @Summary Forum categories
// @Tags forum
// @Produce json
// @Success 200 {array} models.Option
// @Router /forum/categories [get]
func (s *Server) GetForumCategories(c *fiber.Ctx) error {
	return c.JSON(s.forumService.Categories())
}

// ListPosts handles GET /api/forum
// @Summary List forum posts
// @Description Pinned posts first; deleted posts are never listed
// @Tags forum
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "active or archived"
// @Param authorId query int false "Author user ID"
// @Param search query string false "Search text"
// @Param sortBy query string false "createdAt, views or title"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.Page[models.ForumPost]
// @Failure 400 {object} models.ErrorResponse
// @Router /forum [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c)
	viewerID, _ := currentUserID(c)

	result, err := s.forumService.ListPosts(c.UserContext(), service.ListPostsInput{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		AuthorID:  uint(max(c.QueryInt("authorId", 0), 0)),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page.Page,
		Limit:     page.Limit,
		ViewerID:  viewerID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// GetPost handles GET /api/forum/:id
// @Summary Get forum post
// @Description Authenticated reads increment the view counter
// @Tags forum
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.ForumPost
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := currentUserID(c)

	post, err := s.forumService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /api/forum
// @Summary Create forum post
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.ForumPost
// @Failure 400 {object} models.ErrorResponse
// @Router /forum [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.AuthorID = c.Locals("userID").(uint)

	post, err := s.forumService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/forum/:id
// @Summary Update forum post
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.UpdatePostInput true "Fields to change"
// @Success 200 {object} models.ForumPost
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /forum/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.PostID = id
	req.UserID = c.Locals("userID").(uint)

	post, err := s.forumService.UpdatePost(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/forum/:id
// @Summary Delete forum post
// @Tags forum
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.forumService.DeletePost(c.UserContext(), id, c.Locals("userID").(uint)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikePost handles POST /api/forum/:id/like
// @Summary Like a post
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.ReactionSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.react(c, models.ReactionLike)
}

// DislikePost handles POST /api/forum/:id/dislike
// @Summary Dislike a post
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.ReactionSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id}/dislike [post]
func (s *Server) DislikePost(c *fiber.Ctx) error {
	return s.react(c, models.ReactionDislike)
}

func (s *Server) react(c *fiber.Ctx, kind models.ReactionKind) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	summary, err := s.forumService.React(c.UserContext(), id, c.Locals("userID").(uint), kind)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(summary)
}

// ModeratePost handles PATCH /api/forum/:id/moderation
// @Summary Pin, lock or archive a post
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.ModeratePostInput true "Moderation flags"
// @Success 200 {object} models.ForumPost
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /forum/{id}/moderation [patch]
func (s *Server) ModeratePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.ModeratePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.PostID = id

	post, err := s.forumService.Moderate(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// AddComment handles POST /api/forum/:id/comments
// @Summary Comment on a post
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.AddCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.AddCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.PostID = postID
	req.UserID = c.Locals("userID").(uint)

	comment, err := s.forumService.AddComment(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// EditComment handles PUT /api/forum/:id/comments/:commentId
// @Summary Edit a comment
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Param request body service.EditCommentInput true "New content"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id}/comments/{commentId} [put]
func (s *Server) EditComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req service.EditCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.PostID = postID
	req.CommentID = commentID
	req.UserID = c.Locals("userID").(uint)

	comment, err := s.forumService.EditComment(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/forum/:id/comments/:commentId
// @Summary Delete a comment
// @Tags forum
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.forumService.DeleteComment(c.UserContext(), postID, commentID, c.Locals("userID").(uint)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
