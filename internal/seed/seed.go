package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"quill/internal/middleware"
	"quill/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	NumPosts int
	// DraftRatio and ScheduledRatio are the shares of posts created in
	// those states. The rest are active.
	DraftRatio     float64
	ScheduledRatio float64
	ShouldClean    bool
}

// DefaultOptions returns the options used by cmd/seed.
func DefaultOptions() Options {
	return Options{
		NumUsers:       10,
		NumPosts:       60,
		DraftRatio:     0.15,
		ScheduledRatio: 0.1,
		ShouldClean:    true,
	}
}

// Result summarizes a seeding run.
type Result struct {
	Users     int
	Active    int
	Drafts    int
	Scheduled int
}

// Seeder populates the database with demo users and posts.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	rng     *rand.Rand
}

// NewSeeder creates a Seeder. now anchors publish times.
func NewSeeder(db *gorm.DB, now time.Time) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, now),
		rng:     rand.New(rand.NewSource(now.UnixNano())),
	}
}

// ClearAll deletes every post and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("clear posts: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		return nil
	})
}

// Run seeds users and a mix of active, draft and scheduled posts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.NumUsers < 1 {
		return nil, fmt.Errorf("at least one user is required")
	}
	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	res.Users = len(users)

	drafts := int(float64(opts.NumPosts) * opts.DraftRatio)
	scheduled := int(float64(opts.NumPosts) * opts.ScheduledRatio)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		owner := users[s.rng.Intn(len(users))]
		switch {
		case i < drafts:
			posts = append(posts, s.factory.BuildPost(owner, Draft))
			res.Drafts++
		case i < drafts+scheduled:
			posts = append(posts, s.factory.BuildPost(owner, Scheduled(s.factory.now)))
			res.Scheduled++
		default:
			// Spread active posts over the last 90 days.
			back := time.Duration(s.rng.Intn(90*24)) * time.Hour
			posts = append(posts, s.factory.BuildPost(owner, PublishedAt(s.factory.now.Add(-back))))
			res.Active++
		}
	}

	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"users", res.Users, "active", res.Active, "drafts", res.Drafts, "scheduled", res.Scheduled)
	return res, nil
}
