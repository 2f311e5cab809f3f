package main

import (
	"log"
	"os"

	"github.com/daryl22/lsr-tracker/database"
	"github.com/daryl22/lsr-tracker/handlers"
	"github.com/daryl22/lsr-tracker/metrics"
	"github.com/daryl22/lsr-tracker/middleware"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	if err := database.Connect(); err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.CreateInitialAdmin(); err != nil {
		log.Fatalf("initial admin: %v", err)
	}

	metrics.Register()

	uploadDir := getEnv("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	userRepo := repositories.NewUserRepository()
	entryRepo := repositories.NewEntryRepository()
	eventRepo := repositories.NewEventRepository()

	authHandlers := handlers.NewAuthHandlers(userRepo)
	entryHandlers := handlers.NewEntryHandlers(entryRepo, uploadDir)
	fileHandlers := handlers.NewFileHandlers(entryRepo, uploadDir)
	eventHandlers := handlers.NewEventHandlers(eventRepo, entryRepo, userRepo, uploadDir)
	adminHandlers := handlers.NewAdminHandlers(userRepo, entryRepo, eventRepo, uploadDir)

	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // proof screenshots
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/register", authHandlers.RegisterHandler)
	api.Post("/login", authHandlers.LoginHandler)
	api.Post("/logout", authHandlers.LogoutHandler)

	authed := api.Use(middleware.RequireAuth())
	authed.Get("/entries", entryHandlers.ListEntriesHandler)
	authed.Post("/entries", entryHandlers.CreateEntryHandler)
	authed.Put("/entries/:id", entryHandlers.UpdateEntryHandler)
	authed.Delete("/entries/:id", entryHandlers.DeleteEntryHandler)
	authed.Get("/files/:filename", fileHandlers.FileHandler)
	authed.Get("/files/:filename/download", fileHandlers.DownloadHandler)

	authed.Get("/events", eventHandlers.ListEventsHandler)
	authed.Post("/events/:id/join", eventHandlers.JoinHandler)
	authed.Post("/events/:id/entries", eventHandlers.EventEntryHandler)
	authed.Get("/events/:id/ranking", eventHandlers.RankingHandler)
	authed.Get("/events/:id/standing", eventHandlers.StandingHandler)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.Get("/users", adminHandlers.ListUsersHandler)
	admin.Post("/users", adminHandlers.CreateUserHandler)
	admin.Delete("/users/:id", adminHandlers.DeleteUserHandler)
	admin.Put("/users/:id/admin", adminHandlers.SetAdminHandler)
	admin.Put("/users/:id/password", adminHandlers.ResetPasswordHandler)

	admin.Get("/events", adminHandlers.ListAllEventsHandler)
	admin.Post("/events", adminHandlers.CreateEventHandler)
	admin.Put("/events/:id", adminHandlers.UpdateEventHandler)
	admin.Delete("/events/:id", adminHandlers.DeleteEventHandler)
	admin.Post("/events/:id/end", adminHandlers.EndEventHandler)
	admin.Get("/events/:id/closed-dates", adminHandlers.ListClosedDatesHandler)
	admin.Post("/events/:id/closed-dates", adminHandlers.CloseDateHandler)
	admin.Delete("/events/:id/closed-dates/:date", adminHandlers.OpenDateHandler)

	admin.Get("/entries", adminHandlers.ListEntriesHandler)
	admin.Get("/top10", adminHandlers.Top10Handler)

	port := getEnv("PORT", "8080")
	log.Printf("Listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
