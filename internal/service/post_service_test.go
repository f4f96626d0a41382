package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"quill/internal/models"
	"quill/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	listActiveFn func(context.Context, time.Time, int, int) ([]*models.Post, int64, error)
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListActive(ctx context.Context, at time.Time, limit, offset int) ([]*models.Post, int64, error) {
	return s.listActiveFn(ctx, at, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func failOnCall(t *testing.T) *postRepoStub {
	return &postRepoStub{
		createFn: func(context.Context, *models.Post) error {
			t.Fatal("unexpected Create")
			return nil
		},
		getByIDFn: func(context.Context, uint) (*models.Post, error) {
			t.Fatal("unexpected GetByID")
			return nil, nil
		},
		listActiveFn: func(context.Context, time.Time, int, int) ([]*models.Post, int64, error) {
			t.Fatal("unexpected ListActive")
			return nil, 0, nil
		},
		updateFn: func(context.Context, *models.Post) error {
			t.Fatal("unexpected Update")
			return nil
		},
		deleteFn: func(context.Context, uint) error {
			t.Fatal("unexpected Delete")
			return nil
		},
	}
}

func requireCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func ownedPost(owner uint) *models.Post {
	published := now.Add(-time.Hour)
	return &models.Post{ID: 7, Title: "Old", Content: "Old body", UserID: owner, PublishedAt: &published}
}

func TestPostService_ListPosts(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		total        int64
		wantLimit    int
		wantOffset   int
		wantPage     int
		wantLastPage int
	}{
		{"first page defaults", 1, 0, 25, 20, 0, 1, 2},
		{"second page", 2, 20, 25, 20, 20, 2, 2},
		{"page below one", -3, 10, 5, 10, 0, 1, 1},
		{"page size capped", 1, 1000, 250, 100, 0, 1, 3},
		{"empty listing has one page", 1, 20, 0, 20, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := failOnCall(t)
			repo.listActiveFn = func(_ context.Context, at time.Time, limit, offset int) ([]*models.Post, int64, error) {
				assert.Equal(t, now, at)
				assert.Equal(t, tt.wantLimit, limit)
				assert.Equal(t, tt.wantOffset, offset)
				return []*models.Post{}, tt.total, nil
			}

			page, err := NewPostService(repo).ListPosts(context.Background(), now, tt.page, tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.wantLimit, page.PerPage)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.wantLastPage, page.LastPage)
		})
	}
}

func TestPostService_ListPosts_HugePageDoesNotOverflow(t *testing.T) {
	for _, size := range []int{1, 20, 100} {
		repo := failOnCall(t)
		repo.listActiveFn = func(_ context.Context, _ time.Time, limit, offset int) ([]*models.Post, int64, error) {
			assert.Equal(t, size, limit)
			assert.GreaterOrEqual(t, offset, 0)
			assert.Equal(t, (math.MaxInt/size-1)*size, offset)
			return []*models.Post{}, 1, nil
		}

		page, err := NewPostService(repo).ListPosts(context.Background(), now, math.MaxInt, size)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.Equal(t, math.MaxInt/size, page.CurrentPage)
		assert.Equal(t, 1, page.LastPage)
	}
}

func TestPostService_CreatePost(t *testing.T) {
	valid := map[string]any{"title": "Hello", "content": "World", "is_draft": false, "published_at": "2026-02-01T10:00:00Z"}

	t.Run("unauthenticated before validation", func(t *testing.T) {
		svc := NewPostService(failOnCall(t))
		_, err := svc.CreatePost(context.Background(), nil, map[string]any{}, now)
		requireCode(t, err, models.CodeUnauthenticated)
	})

	t.Run("invalid payload is not persisted", func(t *testing.T) {
		svc := NewPostService(failOnCall(t))
		_, err := svc.CreatePost(context.Background(), &models.User{ID: 3}, map[string]any{"title": strings.Repeat("x", 256), "content": "c"}, now)
		appErr := requireCode(t, err, models.CodeValidationFailed)
		assert.Contains(t, appErr.Fields, "title")
	})

	t.Run("owner is the actor", func(t *testing.T) {
		var stored *models.Post
		repo := failOnCall(t)
		repo.createFn = func(_ context.Context, p *models.Post) error {
			p.ID = 11
			stored = p
			return nil
		}
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			assert.Equal(t, uint(11), id)
			return stored, nil
		}

		post, err := NewPostService(repo).CreatePost(context.Background(), &models.User{ID: 3}, valid, now)
		require.NoError(t, err)
		assert.Equal(t, uint(3), post.UserID)
		assert.Equal(t, "Hello", post.Title)
		require.NotNil(t, post.PublishedAt)
	})
}

func TestPostService_GetPost(t *testing.T) {
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		post     *models.Post
		repoErr  error
		wantCode string
	}{
		{"active", &models.Post{ID: 1, PublishedAt: &past}, nil, ""},
		{"published exactly now", &models.Post{ID: 1, PublishedAt: &now}, nil, ""},
		{"draft hidden", &models.Post{ID: 1, IsDraft: true, PublishedAt: &past}, nil, models.CodeNotFound},
		{"scheduled hidden", &models.Post{ID: 1, PublishedAt: &future}, nil, models.CodeNotFound},
		{"undated hidden", &models.Post{ID: 1}, nil, models.CodeNotFound},
		{"missing", nil, models.NewNotFoundError("Post", 1), models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := failOnCall(t)
			repo.getByIDFn = func(context.Context, uint) (*models.Post, error) { return tt.post, tt.repoErr }

			post, err := NewPostService(repo).GetPost(context.Background(), 1, now)
			if tt.wantCode != "" {
				requireCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.post, post)
		})
	}
}

func TestPostService_UpdatePost(t *testing.T) {
	t.Run("not found wins over missing actor", func(t *testing.T) {
		repo := failOnCall(t)
		repo.getByIDFn = func(context.Context, uint) (*models.Post, error) { return nil, models.NewNotFoundError("Post", 7) }

		_, err := NewPostService(repo).UpdatePost(context.Background(), nil, 7, map[string]any{}, validation.Full, now)
		requireCode(t, err, models.CodeNotFound)
	})

	t.Run("missing actor", func(t *testing.T) {
		repo := failOnCall(t)
		repo.getByIDFn = func(context.Context, uint) (*models.Post, error) { return ownedPost(3), nil }

		_, err := NewPostService(repo).UpdatePost(context.Background(), nil, 7, map[string]any{}, validation.Full, now)
		requireCode(t, err, models.CodeUnauthenticated)
	})

	t.Run("forbidden wins over invalid payload", func(t *testing.T) {
		repo := failOnCall(t)
		repo.getByIDFn = func(context.Context, uint) (*models.Post, error) { return ownedPost(3), nil }

		_, err := NewPostService(repo).UpdatePost(context.Background(), &models.User{ID: 4}, 7, map[string]any{"title": ""}, validation.Full, now)
		requireCode(t, err, models.CodeForbidden)
	})

	t.Run("owner with invalid payload", func(t *testing.T) {
		repo := failOnCall(t)
		repo.getByIDFn = func(context.Context, uint) (*models.Post, error) { return ownedPost(3), nil }

		_, err := NewPostService(repo).UpdatePost(context.Background(), &models.User{ID: 3}, 7,
			map[string]any{"title": "t", "content": "c", "is_draft": 0.0}, validation.Full, now)
		appErr := requireCode(t, err, models.CodeValidationFailed)
		assert.Contains(t, appErr.Fields, "published_at")
	})

	t.Run("owner updates and keeps ownership", func(t *testing.T) {
		current := ownedPost(3)
		repo := failOnCall(t)
		repo.getByIDFn = func(context.Context, uint) (*models.Post, error) { return current, nil }
		repo.updateFn = func(_ context.Context, p *models.Post) error {
			assert.Equal(t, uint(3), p.UserID)
			assert.Equal(t, "Updated Title", p.Title)
			assert.Equal(t, "New content.", p.Content)
			require.NotNil(t, p.PublishedAt)
			return nil
		}

		post, err := NewPostService(repo).UpdatePost(context.Background(), &models.User{ID: 3}, 7,
			map[string]any{"title": "Updated Title", "content": "New content.", "user_id": 99.0}, validation.Full, now)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", post.Title)
		assert.Equal(t, uint(3), post.UserID)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	tests := []struct {
		name     string
		actor    *models.User
		post     *models.Post
		wantCode string
	}{
		{"owner deletes", &models.User{ID: 3}, ownedPost(3), ""},
		{"stranger forbidden", &models.User{ID: 4}, ownedPost(3), models.CodeForbidden},
		{"anonymous", nil, ownedPost(3), models.CodeUnauthenticated},
		{"zero id actor", &models.User{}, ownedPost(3), models.CodeUnauthenticated},
		{"missing post", &models.User{ID: 3}, nil, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			repo := failOnCall(t)
			repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
				if tt.post == nil {
					return nil, models.NewNotFoundError("Post", id)
				}
				return tt.post, nil
			}
			repo.deleteFn = func(context.Context, uint) error {
				deleted = true
				return nil
			}

			err := NewPostService(repo).DeletePost(context.Background(), tt.actor, 7)
			if tt.wantCode != "" {
				requireCode(t, err, tt.wantCode)
				assert.False(t, deleted)
				return
			}
			require.NoError(t, err)
			assert.True(t, deleted)
		})
	}
}
