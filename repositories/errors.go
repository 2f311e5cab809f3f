package repositories

import (
	"errors"
	"fmt"
)

// Policy errors returned by the repositories. Handlers translate these
// into HTTP statuses; anything else is a store failure.
var (
	ErrNotFound            = errors.New("not found")
	ErrEventNotStarted     = errors.New("event has not started yet")
	ErrEventEnded          = errors.New("event has already ended")
	ErrAlreadyJoined       = errors.New("you have already joined this event")
	ErrNotParticipant      = errors.New("you are not a participant of this event")
	ErrOutsideEventPeriod  = errors.New("date is outside the event period")
	ErrDateClosed          = errors.New("submissions are closed for this date")
	ErrDuplicateClosedDate = errors.New("this date is already closed")
)

// GenderIneligibleError reports a failed gender restriction check. The
// message names both the event's restriction and the user's own gender.
type GenderIneligibleError struct {
	Restriction string
	Gender      string
}

func (e *GenderIneligibleError) Error() string {
	return fmt.Sprintf("this event is restricted to %s participants; your registered gender is %s",
		e.Restriction, e.Gender)
}
