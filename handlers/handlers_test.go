package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/daryl22/lsr-tracker/database"
	"github.com/daryl22/lsr-tracker/middleware"
	"github.com/daryl22/lsr-tracker/models"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires the full route table against a throwaway sqlite
// store and upload dir
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Entry{},
		&models.Upload{},
		&models.Event{},
		&models.EventParticipant{},
		&models.EventClosedDate{},
	))
	database.DB = db

	uploadDir := t.TempDir()

	userRepo := repositories.NewUserRepository()
	entryRepo := repositories.NewEntryRepository()
	eventRepo := repositories.NewEventRepository()

	authHandlers := NewAuthHandlers(userRepo)
	entryHandlers := NewEntryHandlers(entryRepo, uploadDir)
	fileHandlers := NewFileHandlers(entryRepo, uploadDir)
	eventHandlers := NewEventHandlers(eventRepo, entryRepo, userRepo, uploadDir)
	adminHandlers := NewAdminHandlers(userRepo, entryRepo, eventRepo, uploadDir)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/register", authHandlers.RegisterHandler)
	api.Post("/login", authHandlers.LoginHandler)
	api.Post("/logout", authHandlers.LogoutHandler)

	authed := api.Use(middleware.RequireAuth())
	authed.Get("/entries", entryHandlers.ListEntriesHandler)
	authed.Post("/entries", entryHandlers.CreateEntryHandler)
	authed.Delete("/entries/:id", entryHandlers.DeleteEntryHandler)
	authed.Get("/files/:filename", fileHandlers.FileHandler)
	authed.Get("/events", eventHandlers.ListEventsHandler)
	authed.Post("/events/:id/join", eventHandlers.JoinHandler)
	authed.Post("/events/:id/entries", eventHandlers.EventEntryHandler)
	authed.Get("/events/:id/ranking", eventHandlers.RankingHandler)
	authed.Get("/events/:id/standing", eventHandlers.StandingHandler)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.Post("/events", adminHandlers.CreateEventHandler)
	admin.Post("/events/:id/closed-dates", adminHandlers.CloseDateHandler)
	admin.Delete("/events/:id/closed-dates/:date", adminHandlers.OpenDateHandler)
	admin.Get("/top10", adminHandlers.Top10Handler)

	return app
}

func seedUser(t *testing.T, email, gender string, admin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: string(hash), Gender: gender, IsAdmin: admin}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func seedEvent(t *testing.T, start, end, restriction string) *models.Event {
	t.Helper()
	startDate, err := repositories.ParseDate(start)
	require.NoError(t, err)
	endDate, err := repositories.ParseDate(end)
	require.NoError(t, err)
	event := &models.Event{
		Name:              "Test Event",
		StartDate:         startDate,
		EndDate:           endDate,
		Category:          models.CategoryAdvanced,
		GenderRestriction: restriction,
		KmGoal:            50,
	}
	require.NoError(t, database.DB.Create(event).Error)
	return event
}

func joinDirect(t *testing.T, eventID, userID uint) {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.EventParticipant{
		EventID: eventID, UserID: userID, JoinedAt: time.Now(),
	}).Error)
}

func entryDirect(t *testing.T, userID uint, day string, km float64) {
	t.Helper()
	d, err := repositories.ParseDate(day)
	require.NoError(t, err)
	require.NoError(t, database.DB.Create(&models.Entry{
		UserID: userID, EntryDate: d, KmRun: km, Hours: 1,
	}).Error)
}

// login attaches a fresh session cookie for the user
func login(user *models.User, req *http.Request) {
	token := middleware.CreateSession(user.ID, user.Email, user.IsAdmin)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, user *models.User) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		login(user, req)
	}

	return exec(t, app, req)
}

// entryForm builds a multipart submission with an optional proof file
func entryForm(t *testing.T, fields map[string]string, withFile bool) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withFile {
		part, err := w.CreateFormFile("proof", "screenshot.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("not really a png"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doForm(t *testing.T, app *fiber.App, method, path string, fields map[string]string, withFile bool, user *models.User) (*http.Response, map[string]any) {
	t.Helper()
	body, contentType := entryForm(t, fields, withFile)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	if user != nil {
		login(user, req)
	}
	return exec(t, app, req)
}

// exec runs the request and decodes the body when it is JSON
func exec(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}
