// Command seed populates the database with demo users and posts.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	draftRatio := flag.Float64("drafts", defaults.DraftRatio, "Share of posts created as drafts")
	scheduledRatio := flag.Float64("scheduled", defaults.ScheduledRatio, "Share of posts scheduled for tomorrow")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	res, err := seed.NewSeeder(db, time.Now()).Run(ctx, seed.Options{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		DraftRatio:     *draftRatio,
		ScheduledRatio: *scheduledRatio,
		ShouldClean:    *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d active, %d draft and %d scheduled posts",
		res.Users, res.Active, res.Drafts, res.Scheduled)
	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
