// Command main runs the database seeder for the charity forum.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Thejus-u/charity-forum/internal/bootstrap"
	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/database"
	"github.com/Thejus-u/charity-forum/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numCampaigns := flag.Int("campaigns", defaults.NumCampaigns, "Number of random campaigns to create besides the sample causes")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of forum posts to create")
	maxDonations := flag.Int("donations", defaults.MaxDonations, "Maximum donations per campaign")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	if _, err := bootstrap.InitRuntime(cfg, "charity-forum-seed"); err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:     *numUsers,
		NumCampaigns: *numCampaigns,
		NumPosts:     *numPosts,
		MaxDonations: *maxDonations,
		ShouldClean:  *shouldClean,
		RandSeed:     *randSeed,
	}
	if _, err := seed.NewSeeder(db, opts).Run(context.Background(), opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All seeded accounts use the password: %s", seed.DemoPassword)
}
