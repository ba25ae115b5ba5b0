package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"menus4all-staging-api/config"
	"menus4all-staging-api/internal/api/routes"
	"menus4all-staging-api/internal/database"
	"menus4all-staging-api/internal/lifecycle"
	"menus4all-staging-api/internal/s3"
	"menus4all-staging-api/internal/socket"
	"menus4all-staging-api/internal/store"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// A local .env is optional; real deployments use the environment.
	godotenv.Load()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}

	client, err := database.Connect(cfg.Mongo.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}

	stagingDB := client.Database(cfg.Mongo.StagingDBName)
	productionDB := client.Database(cfg.Mongo.ProductionDBName)

	if err := database.SeedAdmin(stagingDB, logger); err != nil {
		logger.Fatal().Err(err).Msg("could not seed admin user")
	}

	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create S3 uploader")
	}

	menuStore := store.NewMongo(stagingDB, productionDB, logger)
	engine := lifecycle.NewEngine(menuStore, lifecycle.PublishMode(cfg.Publish.Mode), logger)
	sessions := lifecycle.NewSessionManager(engine, lifecycle.DefaultAutosaveDelay)
	wsHub := socket.NewHub(logger)

	router := routes.SetupRouter(engine, sessions, cfg, stagingDB, s3Uploader, wsHub, logger)

	logger.Info().Str("port", cfg.Server.Port).Str("publishMode", cfg.Publish.Mode).
		Msg("starting API server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("failed to run server")
	}
}
