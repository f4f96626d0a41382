// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "Quill-Demo-Pass1!"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	now   time.Time
	faker *gofakeit.Faker
	// hashCost lets tests skip the default bcrypt cost.
	hashCost int
}

// NewFactory creates a Factory bound to db. now anchors post publish times.
func NewFactory(db *gorm.DB, now time.Time) *Factory {
	return &Factory{
		db:       db,
		now:      now.UTC(),
		faker:    gofakeit.New(time.Now().UnixNano()),
		hashCost: bcrypt.DefaultCost,
	}
}

// Draft marks the post as an unpublished draft without a publish time.
func Draft(p *models.Post) {
	p.IsDraft = true
	p.PublishedAt = nil
}

// Scheduled publishes the post one day after at.
func Scheduled(at time.Time) func(*models.Post) {
	return func(p *models.Post) {
		t := at.UTC().AddDate(0, 0, 1)
		p.IsDraft = false
		p.PublishedAt = &t
	}
}

// PublishedAt publishes the post at t.
func PublishedAt(t time.Time) func(*models.Post) {
	return func(p *models.Post) {
		u := t.UTC()
		p.IsDraft = false
		p.PublishedAt = &u
	}
}

// BuildPost constructs an active post owned by user without persisting it.
// The default publish time is the factory's now.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	published := f.now
	post := &models.Post{
		Title:       f.faker.Sentence(5),
		Content:     f.faker.Paragraph(2, 4, 12, "\n\n"),
		IsDraft:     false,
		PublishedAt: &published,
		UserID:      user.ID,
	}
	if len(post.Title) > 255 {
		post.Title = post.Title[:255]
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.db.Omit("User").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreatePostsBatch persists posts in a single statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("User").Create(&posts).Error
}

// CreateUser constructs and persists a user with DemoPassword.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), f.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     f.faker.Name(),
		Email:    fmt.Sprintf("%s.%d@example.com", f.faker.Username(), f.faker.Number(1000, 9999)),
		Password: string(hashed),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
