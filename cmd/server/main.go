package main

import (
	"fmt"
	"log"
	"net/http"

	"recipebook/backend/internal/auth"
	"recipebook/backend/internal/config"
	"recipebook/backend/internal/database"
	"recipebook/backend/internal/handler"
	"recipebook/backend/internal/mailer"
	"recipebook/backend/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "recipebook/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Recipebook API
// @version         1.0
// @description     This is the API for the Recipebook service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	db := database.Connect(config.AppConfig.DatabaseURL)

	var m mailer.Mailer = mailer.NoopMailer{}
	if config.AppConfig.SMTPHost != "" {
		m = mailer.NewSMTPMailer(
			config.AppConfig.SMTPHost,
			config.AppConfig.SMTPPort,
			config.AppConfig.SMTPEmail,
			config.AppConfig.SMTPPassword,
		)
	} else {
		log.Println("Warning: SMTP_HOST not set, share invite emails are disabled")
	}

	visibility := service.NewVisibilityService(db)
	friends := service.NewFriendService(db)
	recipes := service.NewRecipeService(db, visibility)
	shares := service.NewShareService(db, visibility, m, config.AppConfig.BaseURL)
	tags := service.NewTagService(db)
	notifications := service.NewNotificationService(db)

	userHandler := handler.NewUserHandler(db)
	friendHandler := handler.NewFriendHandler(friends)
	recipeHandler := handler.NewRecipeHandler(db, recipes)
	shareHandler := handler.NewShareHandler(shares)
	tagHandler := handler.NewTagHandler(tags)
	notificationHandler := handler.NewNotificationHandler(notifications)

	router := gin.Default()
	router.Use(cors.Default())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", userHandler.Register)
			authRoutes.POST("/login", userHandler.Login)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", userHandler.SearchUsers) // Must be before /:id
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.GET("/me/recipes", recipeHandler.ListMyRecipes)
			userRoutes.POST("/:id/request", friendHandler.SendRequest)
		}

		// Friend routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.GET("", friendHandler.ListFriends)
			friendRoutes.DELETE("/:id", friendHandler.Unfriend)
			friendRoutes.GET("/requests", friendHandler.ListRequests)
			friendRoutes.POST("/requests/:id/accept", friendHandler.AcceptRequest)
			friendRoutes.POST("/requests/:id/reject", friendHandler.RejectRequest)
			friendRoutes.POST("/requests/:id/cancel", friendHandler.CancelRequest)
		}

		// Recipe reads work for anonymous viewers too; the visibility
		// engine decides what they see.
		recipeReads := apiV1.Group("/recipes")
		recipeReads.Use(auth.OptionalAuthMiddleware())
		{
			recipeReads.GET("", recipeHandler.ListRecipes)
			recipeReads.GET("/:id", recipeHandler.GetRecipe)
		}

		recipeWrites := apiV1.Group("/recipes")
		recipeWrites.Use(auth.AuthMiddleware())
		{
			recipeWrites.POST("", recipeHandler.CreateRecipe)
			recipeWrites.PUT("/:id", recipeHandler.UpdateRecipe)
			recipeWrites.DELETE("/:id", recipeHandler.DeleteRecipe)
			recipeWrites.POST("/:id/share", shareHandler.ShareRecipe)
			recipeWrites.DELETE("/:id/share/:userId", shareHandler.Unshare)
		}

		// Share routes (protected)
		shareRoutes := apiV1.Group("/shares")
		shareRoutes.Use(auth.AuthMiddleware())
		{
			shareRoutes.GET("", shareHandler.ListSharedWithMe)
			shareRoutes.GET("/pending", shareHandler.ListPending)
			shareRoutes.GET("/pending/:token", shareHandler.GetPending)
			shareRoutes.POST("/pending/:token/accept", shareHandler.AcceptPending)
			shareRoutes.POST("/pending/:token/reject", shareHandler.RejectPending)
		}

		// Notification routes (protected)
		notificationRoutes := apiV1.Group("/notifications")
		notificationRoutes.Use(auth.AuthMiddleware())
		{
			notificationRoutes.GET("", notificationHandler.ListNotifications)
			notificationRoutes.GET("/unread-count", notificationHandler.UnreadCount)
			notificationRoutes.POST("/:id/read", notificationHandler.MarkRead)
			notificationRoutes.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// Tag routes (protected)
		tagRoutes := apiV1.Group("/tags")
		tagRoutes.Use(auth.AuthMiddleware())
		{
			tagRoutes.GET("", tagHandler.ListTags)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware(db))
		{
			adminTags := adminRoutes.Group("/tags")
			{
				adminTags.PUT("/:id", tagHandler.RenameTag)
				adminTags.DELETE("/:id", tagHandler.DeleteTag)
				adminTags.POST("/convert", tagHandler.ConvertToSystem)
				adminTags.POST("/cleanup", tagHandler.CleanupTags)
			}
		}
	}

	fmt.Println("Server is running on :8080")
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(":8080"))
}
