package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"menus4all-staging-api/config"
	"menus4all-staging-api/internal/api/handlers"
	"menus4all-staging-api/internal/api/middleware"
	"menus4all-staging-api/internal/lifecycle"
	"menus4all-staging-api/internal/s3"
	"menus4all-staging-api/internal/socket"
)

// SetupRouter receives the wired components and declares the route tree.
func SetupRouter(
	engine *lifecycle.Engine,
	sessions *lifecycle.SessionManager,
	cfg config.Config,
	stagingDB *mongo.Database,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
	logger zerolog.Logger,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	// The dashboard is a static site served from another origin.
	router.Use(cors.Default())

	jwtSecret := []byte(cfg.JWT.Secret)

	menuHandler := &handlers.MenuHandler{Engine: engine, Sessions: sessions, S3Uploader: s3Uploader, Hub: wsHub}
	userHandler := &handlers.UserHandler{DB: stagingDB, Cfg: cfg}
	suggestionHandler := &handlers.SuggestionHandler{DB: stagingDB, WebhookURL: cfg.Suggestion.WebhookURL, Logger: logger}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, JWTSecret: jwtSecret, Logger: logger}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		// The public suggestion form posts here without a token.
		apiV1.POST("/suggestions", suggestionHandler.SubmitSuggestion)

		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate(jwtSecret))
		admin.Use(middleware.Authorize("admin"))
		{
			admin.POST("/users", userHandler.CreateUser)
		}

		menus := apiV1.Group("/menus")
		menus.Use(middleware.Authenticate(jwtSecret))
		{
			// Editing and reading, any dashboard role.
			editorRoutes := menus.Group("/")
			editorRoutes.Use(middleware.Authorize("editor", "reviewer", "admin"))
			{
				editorRoutes.GET("/", menuHandler.ListMenus)
				editorRoutes.GET("/needing-update", menuHandler.ListNeedingUpdate)
				editorRoutes.GET("/search", menuHandler.SearchMenus)
				editorRoutes.GET("/:id", menuHandler.GetMenu)
				editorRoutes.POST("/", menuHandler.CreateMenu)
				editorRoutes.PUT("/:id", menuHandler.UpdateMenu)
				editorRoutes.PUT("/:id/autosave", menuHandler.Autosave)
				editorRoutes.POST("/:id/hero-image", menuHandler.UploadHeroImage)
				editorRoutes.POST("/:id/csv", menuHandler.AttachCSV)
				editorRoutes.POST("/:id/mark-ready", menuHandler.MarkReady)
			}

			// Review decisions and publication are reviewer territory.
			reviewerRoutes := menus.Group("/")
			reviewerRoutes.Use(middleware.Authorize("reviewer", "admin"))
			{
				reviewerRoutes.POST("/:id/approve", menuHandler.Approve)
				reviewerRoutes.POST("/:id/send-back", menuHandler.SendBack)
				reviewerRoutes.POST("/:id/publish", menuHandler.Publish)
			}

			// Deleting a staging record is an explicit operator action.
			adminRoutes := menus.Group("/")
			adminRoutes.Use(middleware.Authorize("admin"))
			{
				adminRoutes.DELETE("/:id", menuHandler.DeleteMenu)
			}
		}
	}

	return router
}
