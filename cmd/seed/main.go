// Command seed fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 30, "Number of users to create")
	numArticles := flag.Int("articles", 100, "Number of articles to create")
	comments := flag.Int("comments", 5, "Maximum comments per article")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	fast := flag.Bool("fast", true, "Hash passwords at minimum bcrypt cost")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{
		Users:              *numUsers,
		Articles:           *numArticles,
		CommentsPerArticle: *comments,
		SkipBcrypt:         *fast,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}
	if err := s.Run(ctx); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users and %d articles. Every user has the password %q.", *numUsers, *numArticles, seed.DefaultPassword)
}
