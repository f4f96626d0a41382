// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"quill/internal/models"
	"quill/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListActive(ctx context.Context, now time.Time, limit, offset int) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// activeAt restricts a query to posts that are published and not a draft at now.
func activeAt(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_draft = ? AND published_at IS NOT NULL AND published_at <= ?", false, now)
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "posts")
	defer span.End()
	defer observability.TrackQuery("create", "posts")()

	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", "posts")
	defer span.End()
	defer observability.TrackQuery("get", "posts")()

	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) ListActive(ctx context.Context, now time.Time, limit, offset int) ([]*models.Post, int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListActive", "posts")
	defer span.End()
	defer observability.TrackQuery("list", "posts")()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(activeAt(now)).Count(&total).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, 0, models.NewInternalError(err)
	}

	posts := make([]*models.Post, 0)
	if total == 0 || int64(offset) >= total {
		return posts, total, nil
	}

	err := r.db.WithContext(ctx).
		Scopes(activeAt(now)).
		Preload("User").
		Order("published_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Update writes the editable columns only; ownership never changes.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Update", "posts")
	defer span.End()
	defer observability.TrackQuery("update", "posts")()

	result := r.db.WithContext(ctx).
		Model(post).
		Select("title", "content", "is_draft", "published_at", "updated_at").
		Updates(post)
	if result.Error != nil {
		observability.RecordErrorInContext(ctx, result.Error)
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Delete", "posts")
	defer span.End()
	defer observability.TrackQuery("delete", "posts")()

	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		observability.RecordErrorInContext(ctx, result.Error)
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}
