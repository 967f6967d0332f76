// Command seed populates the database with demo marketplace data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"rentloop/internal/config"
	"rentloop/internal/database"
	"rentloop/internal/seed"
)

func main() {
	numCustomers := flag.Int("customers", 40, "Number of customer accounts to create")
	numSellers := flag.Int("sellers", 15, "Number of seller accounts to create")
	numProducts := flag.Int("products", 120, "Number of product listings to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Skip password hashing for faster bulk seeding (accounts cannot log in)")
	planPath := flag.String("plan", "", "Seed from a YAML plan file instead of flags")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}

	hashed := !*skipBcrypt
	if *planPath != "" {
		plan, err := seed.LoadPlan(*planPath)
		if err != nil {
			log.Fatalf("Invalid seed plan: %v", err)
		}
		hashed = !plan.SkipBcrypt
		if err := seed.SeedFromPlan(db, plan); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	} else if err := seed.Seed(db, seed.Options{
		NumCustomers: *numCustomers,
		NumSellers:   *numSellers,
		NumProducts:  *numProducts,
		ShouldClean:  *shouldClean,
		SkipBcrypt:   *skipBcrypt,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if hashed {
		log.Printf("Default password for seeded accounts: %s", seed.DefaultPassword)
	}
}
