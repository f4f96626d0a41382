package server

import (
	"quill/internal/middleware"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List active posts
// @Description Paginated published posts, newest first. Drafts and scheduled posts are excluded.
// @Tags posts
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param per_page query int false "Page size (max 100)"
// @Success 200 {object} service.Page
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", s.config.PostsPerPage)

	result, err := s.postService.ListPosts(c.UserContext(), s.now(), page, perPage)
	if err != nil {
		return s.fail(c, "post.list", err)
	}
	middleware.RecordPostOperation("list", fiber.StatusOK)
	return c.JSON(result)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,content=string,is_draft=bool,published_at=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	payload, err := parsePayload(c)
	if err != nil {
		return s.fail(c, "post.create", err)
	}

	actor, err := s.currentActor(c)
	if err != nil {
		return s.fail(c, "post.create", err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), actor, payload, s.now())
	if err != nil {
		return s.fail(c, "post.create", err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "post created", "post_id", post.ID)
	middleware.RecordPostOperation("create", fiber.StatusCreated)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Show an active post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, s.now())
	if err != nil {
		return s.fail(c, "post.show", err)
	}
	middleware.RecordPostOperation("show", fiber.StatusOK)
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Replace a post
// @Description Title and content are required. Omitted is_draft and published_at keep their stored values.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{title=string,content=string,is_draft=bool,published_at=string} true "Post"
// @Success 200 {object} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	return s.updatePost(c, validation.Full)
}

// PatchPost handles PATCH /api/posts/:id
// @Summary Partially update a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{title=string,content=string,is_draft=bool,published_at=string} true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) PatchPost(c *fiber.Ctx) error {
	return s.updatePost(c, validation.Partial)
}

func (s *Server) updatePost(c *fiber.Ctx, mode validation.Mode) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	payload, err := parsePayload(c)
	if err != nil {
		return s.fail(c, "post.update", err)
	}

	actor, err := s.currentActor(c)
	if err != nil {
		return s.fail(c, "post.update", err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), actor, id, payload, mode, s.now())
	if err != nil {
		return s.fail(c, "post.update", err)
	}
	middleware.RecordPostOperation("update", fiber.StatusOK)
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	actor, err := s.currentActor(c)
	if err != nil {
		return s.fail(c, "post.delete", err)
	}

	if err := s.postService.DeletePost(c.UserContext(), actor, id); err != nil {
		return s.fail(c, "post.delete", err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "post deleted", "post_id", id)
	middleware.RecordPostOperation("delete", fiber.StatusNoContent)
	return c.SendStatus(fiber.StatusNoContent)
}
