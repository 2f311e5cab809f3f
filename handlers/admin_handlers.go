package handlers

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/daryl22/lsr-tracker/models"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandlers struct {
	userRepo  *repositories.UserRepository
	entryRepo *repositories.EntryRepository
	eventRepo *repositories.EventRepository
	uploadDir string
}

func NewAdminHandlers(userRepo *repositories.UserRepository, entryRepo *repositories.EntryRepository,
	eventRepo *repositories.EventRepository, uploadDir string) *AdminHandlers {
	return &AdminHandlers{
		userRepo:  userRepo,
		entryRepo: entryRepo,
		eventRepo: eventRepo,
		uploadDir: uploadDir,
	}
}

// ---- users ----

// ListUsersHandler lists every account
func (h *AdminHandlers) ListUsersHandler(c *fiber.Ctx) error {
	users, err := h.userRepo.GetAll()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "users": users})
}

// CreateUserHandler creates an account on behalf of a user
func (h *AdminHandlers) CreateUserHandler(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Gender   string `json:"gender"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return badRequest(c, "a valid email is required")
	}
	if len(req.Password) < 6 {
		return badRequest(c, "password must be at least 6 characters")
	}
	if req.Gender != models.GenderMale && req.Gender != models.GenderFemale {
		return badRequest(c, "gender must be male or female")
	}

	exists, err := h.userRepo.Exists(req.Email)
	if err != nil {
		return fail(c, err)
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok": false, "error": "an account with this email already exists",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		IsAdmin:      req.IsAdmin,
	}
	if err := h.userRepo.Create(user); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "user": user})
}

// DeleteUserHandler deletes a user. Rows cascade at the store; the
// stored proof blobs are removed here.
func (h *AdminHandlers) DeleteUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "invalid user id")
	}
	if uint(id) == currentUserID(c) {
		return badRequest(c, "cannot delete your own account")
	}

	uploads, err := h.entryRepo.UploadsByUser(uint(id))
	if err != nil {
		return fail(c, err)
	}

	if err := h.userRepo.Delete(uint(id)); err != nil {
		return fail(c, err)
	}
	for _, upload := range uploads {
		os.Remove(filepath.Join(h.uploadDir, upload.Filename))
	}
	return c.JSON(fiber.Map{"ok": true})
}

// SetAdminHandler toggles the admin flag on a user
func (h *AdminHandlers) SetAdminHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "invalid user id")
	}
	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.userRepo.GetByID(uint(id))
	if err != nil {
		return fail(c, err)
	}
	user.IsAdmin = req.IsAdmin
	if err := h.userRepo.Update(user); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "user": user})
}

// ResetPasswordHandler resets a user's password
func (h *AdminHandlers) ResetPasswordHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "invalid user id")
	}
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.NewPassword) < 6 {
		return badRequest(c, "password must be at least 6 characters")
	}

	user, err := h.userRepo.GetByID(uint(id))
	if err != nil {
		return fail(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}
	user.PasswordHash = string(hash)

	if err := h.userRepo.Update(user); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ---- events ----

type eventRequest struct {
	Name              string  `json:"name"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Category          string  `json:"category"`
	GenderRestriction string  `json:"gender_restriction"`
	KmGoal            float64 `json:"km_goal"`
}

func (req *eventRequest) validate(c *fiber.Ctx) (*models.Event, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, badRequest(c, "name is required")
	}
	start, err := repositories.ParseDate(req.StartDate)
	if err != nil {
		return nil, badRequest(c, "a valid start_date (YYYY-MM-DD) is required")
	}
	end, err := repositories.ParseDate(req.EndDate)
	if err != nil {
		return nil, badRequest(c, "a valid end_date (YYYY-MM-DD) is required")
	}
	if !start.Before(end) {
		return nil, badRequest(c, "start_date must be before end_date")
	}
	if req.Category != models.CategoryAdvanced && req.Category != models.CategoryIntermediate {
		return nil, badRequest(c, "category must be advanced or intermediate")
	}
	switch req.GenderRestriction {
	case models.GenderMale, models.GenderFemale, models.RestrictionBoth:
	default:
		return nil, badRequest(c, "gender_restriction must be male, female or both")
	}
	if req.KmGoal < 0 {
		return nil, badRequest(c, "km_goal must be non-negative")
	}

	return &models.Event{
		Name:              strings.TrimSpace(req.Name),
		StartDate:         start,
		EndDate:           end,
		Category:          req.Category,
		GenderRestriction: req.GenderRestriction,
		KmGoal:            req.KmGoal,
	}, nil
}

// ListAllEventsHandler lists every event, ended ones included
func (h *AdminHandlers) ListAllEventsHandler(c *fiber.Ctx) error {
	events, err := h.eventRepo.GetAll(false)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "events": events})
}

// CreateEventHandler creates an event
func (h *AdminHandlers) CreateEventHandler(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	event, errResp := req.validate(c)
	if event == nil {
		return errResp
	}
	event.CreatedBy = currentUserID(c)

	if err := h.eventRepo.Create(event); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "event": event})
}

// UpdateEventHandler edits an event
func (h *AdminHandlers) UpdateEventHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	updated, errResp := req.validate(c)
	if updated == nil {
		return errResp
	}

	event, err := h.eventRepo.GetByID(id)
	if err != nil {
		return fail(c, err)
	}
	event.Name = updated.Name
	event.StartDate = updated.StartDate
	event.EndDate = updated.EndDate
	event.Category = updated.Category
	event.GenderRestriction = updated.GenderRestriction
	event.KmGoal = updated.KmGoal

	if err := h.eventRepo.Update(event); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "event": event})
}

// DeleteEventHandler deletes an event; participants and closed dates
// cascade
func (h *AdminHandlers) DeleteEventHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.eventRepo.Delete(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// EndEventHandler sets the one-way ended flag
func (h *AdminHandlers) EndEventHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.eventRepo.End(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ---- closed dates ----

// ListClosedDatesHandler lists an event's closed dates
func (h *AdminHandlers) ListClosedDatesHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	dates, err := h.eventRepo.ClosedDates(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "closed_dates": dates})
}

// CloseDateHandler blocks submissions for one date of an event
func (h *AdminHandlers) CloseDateHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req struct {
		Date string `json:"date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	date, err := repositories.ParseDate(req.Date)
	if err != nil {
		return badRequest(c, "a valid date (YYYY-MM-DD) is required")
	}

	closedDateID, err := h.eventRepo.CloseDate(id, date, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "closed_date_id": closedDateID})
}

// OpenDateHandler re-opens a closed date
func (h *AdminHandlers) OpenDateHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	date, err := repositories.ParseDate(c.Params("date"))
	if err != nil {
		return badRequest(c, "a valid date (YYYY-MM-DD) is required")
	}

	if err := h.eventRepo.OpenDate(id, date); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ---- entries & leaderboard ----

// ListEntriesHandler lists a month of entries across all users, or
// one user's when the user query parameter is set
func (h *AdminHandlers) ListEntriesHandler(c *fiber.Ctx) error {
	var userID uint
	if raw := c.Query("user"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return badRequest(c, "invalid user id")
		}
		userID = uint(id)
	}

	start, end, month := repositories.MonthWindow(c.Query("month"), time.Now())
	entries, err := h.entryRepo.MonthlyEntries(userID, start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "month": month, "entries": entries})
}

// Top10Handler returns the monthly top-10 leaderboard
func (h *AdminHandlers) Top10Handler(c *fiber.Ctx) error {
	start, end, month := repositories.MonthWindow(c.Query("month"), time.Now())
	rows, err := h.entryRepo.Top10(start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "month": month, "top10": rows})
}
