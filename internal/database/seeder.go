package database

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"menus4all-staging-api/internal/auth"
	"menus4all-staging-api/internal/models"
)

// SeedAdmin creates the default admin account on first boot so the dashboard
// is reachable before any users exist.
func SeedAdmin(db *mongo.Database, logger zerolog.Logger) error {
	userCollection := db.Collection("users")
	adminEmail := "admin@menus4all.com"

	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": adminEmail})
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Debug().Msg("admin already exists, seeding skipped")
		return nil
	}

	logger.Info().Msg("admin not found, seeding")
	hashedPassword, err := auth.HashPassword("changeme-on-first-login")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Name:     "Admin",
		Password: hashedPassword,
		Role:     "admin",
		Status:   "active",
	}

	_, err = userCollection.InsertOne(context.Background(), admin)
	if err != nil {
		return err
	}

	logger.Info().Str("email", adminEmail).Msg("admin seeded")
	return nil
}
