package routes

import (
	"fmt"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/config"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/handlers"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/middleware"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/repository"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
	contactws "github.com/priyanshu85-coder/StudentFlatFinder/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	contactRepo := repository.NewContactRepository(db)
	threadRepo := repository.NewThreadMessageRepository(db)
	ratingRepo := repository.NewRatingRepository(db)

	storageService, err := services.NewLocalStorageService(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	otpService := services.NewOTPService(otpRepo)
	contactService := services.NewContactService(db, contactRepo, threadRepo, userRepo, propertyRepo)
	ratingService := services.NewRatingService(ratingRepo, propertyRepo, userRepo)

	authHandler := handlers.NewAuthHandler(userRepo, otpService, cfg)
	propertyHandler := handlers.NewPropertyHandler(propertyRepo, ratingRepo, storageService)
	contactHandler := handlers.NewContactHandler(contactService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	adminHandler := handlers.NewAdminHandler(userRepo, propertyRepo, contactRepo)

	contactHub := contactws.NewHub()
	go contactHub.Run()
	socketHandler := handlers.NewContactSocketHandler(contactService, contactHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/send-otp", authHandler.SendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authRequired := middleware.AuthRequired(cfg.JWTSecret)

	properties := api.Group("/properties")
	properties.Get("", propertyHandler.ListProperties)
	properties.Get("/broker/my-properties", authRequired, propertyHandler.MyProperties)
	properties.Get("/:id", propertyHandler.GetProperty)
	properties.Post("", authRequired, propertyHandler.CreateProperty)
	properties.Put("/:id", authRequired, propertyHandler.UpdateProperty)
	properties.Delete("/:id", authRequired, propertyHandler.DeleteProperty)

	contacts := api.Group("/contacts", authRequired)
	contacts.Post("", contactHandler.CreateContact)
	contacts.Get("/student", contactHandler.ListStudentContacts)
	contacts.Get("/broker", contactHandler.ListBrokerContacts)
	contacts.Post("/:id/reply", contactHandler.BrokerReply)
	contacts.Post("/:id/student-reply", contactHandler.StudentReply)

	ratings := api.Group("/ratings")
	ratings.Post("", authRequired, ratingHandler.UpsertRating)
	ratings.Get("/property/:propertyId", ratingHandler.GetPropertyRatings)
	ratings.Get("/property/:propertyId/student", authRequired, ratingHandler.GetStudentRating)
	ratings.Delete("/:ratingId", authRequired, ratingHandler.DeleteRating)

	admin := api.Group("/admin", authRequired, middleware.AdminOnly())
	admin.Get("/stats", adminHandler.GetStats)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/toggle", adminHandler.ToggleUser)
	admin.Get("/properties", adminHandler.ListAllProperties)
	admin.Put("/properties/:id/toggle", adminHandler.ToggleProperty)

	api.Use("/ws", socketHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(socketHandler.HandleWebSocket))

	return nil
}
