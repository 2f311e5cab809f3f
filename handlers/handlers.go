package handlers

import (
	"errors"
	"log"

	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps repository errors onto HTTP statuses. Store failures
// fall through to 500.
func statusFor(err error) int {
	var genderErr *repositories.GenderIneligibleError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repositories.ErrNotParticipant):
		return fiber.StatusForbidden
	case errors.Is(err, repositories.ErrAlreadyJoined),
		errors.Is(err, repositories.ErrDuplicateClosedDate):
		return fiber.StatusConflict
	case errors.Is(err, repositories.ErrEventNotStarted),
		errors.Is(err, repositories.ErrEventEnded),
		errors.Is(err, repositories.ErrOutsideEventPeriod),
		errors.Is(err, repositories.ErrDateClosed),
		errors.As(err, &genderErr):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the error response for err. Store failures are logged
// and reported without internal detail.
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": message})
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func isAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals("isAdmin").(bool)
	return admin
}

// eventID parses the :id path parameter
func eventID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, errors.New("invalid event id")
	}
	return uint(id), nil
}
