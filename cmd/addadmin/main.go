package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"terrainhub/config"
	"terrainhub/db"
	"terrainhub/logging"
	"terrainhub/models"
	"terrainhub/rules"
)

// addadmin promotes an existing user. The new role is carried by tokens
// issued from the user's next sign-in.
func main() {
	email := flag.String("email", "", "Email of the user to promote (required)")
	role := flag.String("role", "admin", "Role: 'admin', 'moderator' or 'user'")
	configPath := flag.String("config", config.PathFromEnv(), "Path to config file")
	flag.Parse()

	if *email == "" {
		fmt.Println("Error: email is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	r := models.Role(*role)
	if r != models.RoleAdmin && r != models.RoleModerator && r != models.RoleUser {
		fmt.Println("Error: role must be 'admin', 'moderator' or 'user'")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Server.LogLevel)
	if cfg.Database.Driver != "mongo" {
		slog.Error("addadmin needs the mongo driver", "driver", cfg.Database.Driver)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, cfg.Database.URI)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Disconnect(context.Background())

	store := db.NewMongoStore(database)
	if err := store.SetRole(ctx, *email, r); err != nil {
		if errors.Is(err, rules.ErrNotFound) {
			fmt.Printf("Error: no user with email %s. The user must sign in once first.\n", *email)
			os.Exit(1)
		}
		slog.Error("failed to set role", "email", *email, "error", err)
		os.Exit(1)
	}

	fmt.Printf("✅ %s is now %s\n", *email, r)
}
