// Package service implements the application's use cases on top of the repositories.
package service

import (
	"context"
	"math"
	"time"

	"quill/internal/models"
	"quill/internal/policy"
	"quill/internal/repository"
	"quill/internal/validation"
)

// Page size bounds for post listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one page of active posts.
type Page struct {
	Data        []*models.Post `json:"data"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	Total       int64          `json:"total"`
	LastPage    int            `json:"last_page"`
}

type PostService struct {
	postRepo repository.PostRepository
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// ListPosts returns the requested page of posts active at now, newest first.
func (s *PostService) ListPosts(ctx context.Context, now time.Time, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	// Keep (page-1)*pageSize from overflowing.
	if page-1 > math.MaxInt/pageSize {
		page = math.MaxInt / pageSize
	}

	posts, total, err := s.postRepo.ListActive(ctx, now, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	lastPage := int((total + int64(pageSize) - 1) / int64(pageSize))
	if lastPage < 1 {
		lastPage = 1
	}

	return &Page{
		Data:        posts,
		CurrentPage: page,
		PerPage:     pageSize,
		Total:       total,
		LastPage:    lastPage,
	}, nil
}

// CreatePost stores a new post owned by actor.
func (s *PostService) CreatePost(ctx context.Context, actor *models.User, payload map[string]any, now time.Time) (*models.Post, error) {
	if actor == nil || actor.ID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	in, err := validation.ValidatePost(payload, validation.Full, nil, now)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       in.Title,
		Content:     in.Content,
		IsDraft:     in.IsDraft,
		PublishedAt: in.PublishedAt,
		UserID:      actor.ID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a post only while it is active. Drafts and scheduled posts
// are reported as missing to every caller.
func (s *PostService) GetPost(ctx context.Context, id uint, now time.Time) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.IsActive(post, now) {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// UpdatePost applies payload to the post if actor owns it.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id uint, payload map[string]any, mode validation.Mode, now time.Time) (*models.Post, error) {
	post, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	in, err := validation.ValidatePost(payload, mode, post, now)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.IsDraft = in.IsDraft
	post.PublishedAt = in.PublishedAt
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, id)
}

// DeletePost removes the post if actor owns it.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, id)
}

// authorize loads the post and checks that actor may mutate it, in that order:
// a missing post wins over a missing actor, which wins over a foreign owner.
func (s *PostService) authorize(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if !policy.CanMutate(actor, post) {
		return nil, models.NewForbiddenError("You do not own this post")
	}
	return post, nil
}
