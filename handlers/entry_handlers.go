package handlers

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/daryl22/lsr-tracker/metrics"
	"github.com/daryl22/lsr-tracker/models"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EntryHandlers struct {
	entryRepo *repositories.EntryRepository
	uploadDir string
}

func NewEntryHandlers(entryRepo *repositories.EntryRepository, uploadDir string) *EntryHandlers {
	return &EntryHandlers{entryRepo: entryRepo, uploadDir: uploadDir}
}

// parseEntryForm reads the shared multipart fields of an entry
// submission: date (required), km, hours and optional pace.
func parseEntryForm(c *fiber.Ctx, userID uint) (*models.Entry, error) {
	date, err := repositories.ParseDate(c.FormValue("date"))
	if err != nil {
		return nil, badRequest(c, "a valid date (YYYY-MM-DD) is required")
	}

	km, err := strconv.ParseFloat(c.FormValue("km", "0"), 64)
	if err != nil || km < 0 {
		return nil, badRequest(c, "km must be a non-negative number")
	}
	hours, err := strconv.ParseFloat(c.FormValue("hours", "0"), 64)
	if err != nil || hours < 0 {
		return nil, badRequest(c, "hours must be a non-negative number")
	}

	entry := &models.Entry{
		UserID:    userID,
		EntryDate: date,
		KmRun:     km,
		Hours:     hours,
	}
	if raw := c.FormValue("pace"); raw != "" {
		pace, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, badRequest(c, "pace must be a number")
		}
		entry.Pace = &pace
	}
	return entry, nil
}

// saveProof stores the uploaded screenshot under an opaque uuid key
// and returns its metadata row, unsaved
func saveProof(c *fiber.Ctx, file *multipart.FileHeader, uploadDir string) (*models.Upload, error) {
	filename := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveFile(file, filepath.Join(uploadDir, filename)); err != nil {
		return nil, err
	}
	mimetype := file.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	return &models.Upload{
		Filename:     filename,
		OriginalName: file.Filename,
		Mimetype:     mimetype,
		Size:         file.Size,
	}, nil
}

// CreateEntryHandler logs a run for the current user. The proof
// screenshot is optional on the generic path.
func (h *EntryHandlers) CreateEntryHandler(c *fiber.Ctx) error {
	userID := currentUserID(c)

	entry, err := parseEntryForm(c, userID)
	if entry == nil {
		return err
	}

	var upload *models.Upload
	if file, err := c.FormFile("proof"); err == nil {
		upload, err = saveProof(c, file, h.uploadDir)
		if err != nil {
			return fail(c, err)
		}
	}

	if err := h.entryRepo.Create(entry, upload); err != nil {
		if upload != nil {
			os.Remove(filepath.Join(h.uploadDir, upload.Filename))
		}
		return fail(c, err)
	}

	metrics.EntriesCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "entry_id": entry.ID})
}

// ListEntriesHandler lists the current user's entries for a month.
// Without a month token, or with a malformed one, the current month is
// used.
func (h *EntryHandlers) ListEntriesHandler(c *fiber.Ctx) error {
	start, end, month := repositories.MonthWindow(c.Query("month"), time.Now())
	entries, err := h.entryRepo.MonthlyEntries(currentUserID(c), start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "month": month, "entries": entries})
}

// UpdateEntryHandler edits an entry; owner or admin only
func (h *EntryHandlers) UpdateEntryHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "invalid entry id")
	}

	entry, err := h.entryRepo.GetByID(uint(id))
	if err != nil {
		return fail(c, err)
	}
	if entry.UserID != currentUserID(c) && !isAdmin(c) {
		return fail(c, repositories.ErrNotFound)
	}

	updated, err := parseEntryForm(c, entry.UserID)
	if updated == nil {
		return err
	}
	entry.EntryDate = updated.EntryDate
	entry.KmRun = updated.KmRun
	entry.Hours = updated.Hours
	entry.Pace = updated.Pace

	if err := h.entryRepo.Update(entry); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "entry": entry})
}

// DeleteEntryHandler removes an entry, its upload row and the stored
// blob; owner or admin only
func (h *EntryHandlers) DeleteEntryHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "invalid entry id")
	}

	entry, err := h.entryRepo.GetByID(uint(id))
	if err != nil {
		return fail(c, err)
	}
	if entry.UserID != currentUserID(c) && !isAdmin(c) {
		return fail(c, repositories.ErrNotFound)
	}

	filename, err := h.entryRepo.Delete(entry.ID)
	if err != nil {
		return fail(c, err)
	}
	if filename != "" {
		os.Remove(filepath.Join(h.uploadDir, filename))
	}
	return c.JSON(fiber.Map{"ok": true})
}
