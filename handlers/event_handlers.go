package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/daryl22/lsr-tracker/metrics"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/fiber/v2"
)

type EventHandlers struct {
	eventRepo *repositories.EventRepository
	entryRepo *repositories.EntryRepository
	userRepo  *repositories.UserRepository
	uploadDir string
}

func NewEventHandlers(eventRepo *repositories.EventRepository, entryRepo *repositories.EntryRepository,
	userRepo *repositories.UserRepository, uploadDir string) *EventHandlers {
	return &EventHandlers{
		eventRepo: eventRepo,
		entryRepo: entryRepo,
		userRepo:  userRepo,
		uploadDir: uploadDir,
	}
}

// JoinHandler registers the current user as an event participant
func (h *EventHandlers) JoinHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	userID := currentUserID(c)
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		return fail(c, err)
	}

	participantID, err := h.eventRepo.TryJoin(id, userID, user.Gender, time.Now())
	if err != nil {
		metrics.PolicyRejections.WithLabelValues("join").Inc()
		return fail(c, err)
	}

	metrics.EventJoins.Inc()
	return c.JSON(fiber.Map{"ok": true, "participant_id": participantID})
}

// EventEntryHandler submits a run toward an event. The gate differs
// from the generic path; persistence is the same. A proof screenshot
// is required here.
func (h *EventHandlers) EventEntryHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	userID := currentUserID(c)
	entry, errResp := parseEntryForm(c, userID)
	if entry == nil {
		return errResp
	}

	file, err := c.FormFile("proof")
	if err != nil {
		return badRequest(c, "a proof screenshot is required")
	}

	if err := h.eventRepo.CanSubmit(id, userID, entry.EntryDate); err != nil {
		metrics.PolicyRejections.WithLabelValues("submit").Inc()
		return fail(c, err)
	}

	upload, err := saveProof(c, file, h.uploadDir)
	if err != nil {
		return fail(c, err)
	}
	if err := h.entryRepo.Create(entry, upload); err != nil {
		os.Remove(filepath.Join(h.uploadDir, upload.Filename))
		return fail(c, err)
	}

	metrics.EntriesCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "entry_id": entry.ID})
}

// RankingHandler returns the full participant ranking of an event
func (h *EventHandlers) RankingHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	event, rows, err := h.eventRepo.Ranking(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"ok":      true,
		"event":   event,
		"ranking": rows,
		"goal":    event.KmGoal,
	})
}

// StandingHandler returns the current user's rank within an event
func (h *EventHandlers) StandingHandler(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	standing, err := h.eventRepo.UserStanding(id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "standing": standing})
}

// ListEventsHandler lists active events annotated with the current
// user's participation and standing
func (h *EventHandlers) ListEventsHandler(c *fiber.Ctx) error {
	userID := currentUserID(c)

	events, err := h.eventRepo.GetAll(true)
	if err != nil {
		return fail(c, err)
	}

	out := make([]fiber.Map, 0, len(events))
	for i := range events {
		event := &events[i]
		_, rows, err := h.eventRepo.Ranking(event.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fail(c, err)
		}

		item := fiber.Map{
			"event":              event,
			"has_joined":         false,
			"user_rank":          0,
			"total_participants": len(rows),
			"user_total_km":      0.0,
		}
		for rank, row := range rows {
			if row.UserID == userID {
				item["has_joined"] = true
				item["user_rank"] = rank + 1
				item["user_total_km"] = row.TotalKm
				break
			}
		}
		out = append(out, item)
	}

	return c.JSON(fiber.Map{"ok": true, "events": out})
}
