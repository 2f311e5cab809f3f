package repositories

import (
	"errors"
	"sort"
	"time"

	"github.com/daryl22/lsr-tracker/database"
	"github.com/daryl22/lsr-tracker/models"

	"gorm.io/gorm"
)

// EventRepository handles events, participation, closed dates and the
// ranking aggregation
type EventRepository struct{}

// NewEventRepository creates a new event repository
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

// RankingRow is one participant's aggregate within an event's window.
// Participants without qualifying entries still appear with zero
// totals.
type RankingRow struct {
	UserID     uint    `json:"user_id"`
	Email      string  `json:"email"`
	TotalKm    float64 `json:"total_km"`
	TotalHours float64 `json:"total_hours"`
	EntryCount int     `json:"entry_count"`
	TotalDays  int     `json:"total_days"`
}

// Standing is the requesting user's own position within an event
type Standing struct {
	Rank              int     `json:"rank"`
	TotalParticipants int     `json:"total_participants"`
	TotalKm           float64 `json:"total_km"`
	TotalHours        float64 `json:"total_hours"`
	TotalDays         int     `json:"total_days"`
}

// GetByID retrieves an event by id
func (r *EventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	err := database.DB.First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create persists a new event
func (r *EventRepository) Create(event *models.Event) error {
	event.StartDate = DateOnly(event.StartDate)
	event.EndDate = DateOnly(event.EndDate)
	return database.DB.Create(event).Error
}

// Update updates an event
func (r *EventRepository) Update(event *models.Event) error {
	event.StartDate = DateOnly(event.StartDate)
	event.EndDate = DateOnly(event.EndDate)
	return database.DB.Save(event).Error
}

// Delete removes an event; participants and closed dates cascade
func (r *EventRepository) Delete(id uint) error {
	res := database.DB.Delete(&models.Event{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// End marks an event as ended. The flag is one-way; there is no
// un-end operation.
func (r *EventRepository) End(id uint) error {
	res := database.DB.Model(&models.Event{}).Where("id = ?", id).Update("is_ended", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAll lists events, newest start date first. When activeOnly is set,
// ended events are skipped.
func (r *EventRepository) GetAll(activeOnly bool) ([]models.Event, error) {
	q := database.DB.Order("start_date DESC, id DESC")
	if activeOnly {
		q = q.Where("is_ended = ?", false)
	}
	var events []models.Event
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// TryJoin runs the eligibility checks in order and registers the user
// as a participant. Timing uses the calendar date at UTC+8, not the
// caller's locale. The pre-check and the insert are not one
// transaction; a lost race on concurrent joins is caught by the
// unique(event_id, user_id) constraint and reported as ErrAlreadyJoined.
func (r *EventRepository) TryJoin(eventID, userID uint, gender string, now time.Time) (uint, error) {
	event, err := r.GetByID(eventID)
	if err != nil {
		return 0, err
	}

	today := PHToday(now)
	if today.Before(DateOnly(event.StartDate)) {
		return 0, ErrEventNotStarted
	}
	if today.After(DateOnly(event.EndDate)) {
		return 0, ErrEventEnded
	}

	joined, err := r.IsParticipant(eventID, userID)
	if err != nil {
		return 0, err
	}
	if joined {
		return 0, ErrAlreadyJoined
	}

	if event.GenderRestriction != models.RestrictionBoth && gender != event.GenderRestriction {
		return 0, &GenderIneligibleError{Restriction: event.GenderRestriction, Gender: gender}
	}

	participant := models.EventParticipant{
		EventID:  eventID,
		UserID:   userID,
		JoinedAt: now,
	}
	if err := database.DB.Create(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrAlreadyJoined
		}
		return 0, err
	}
	return participant.ID, nil
}

// IsParticipant checks whether the user has joined the event
func (r *EventRepository) IsParticipant(eventID, userID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

// CanSubmit decides whether the user may submit an entry dated
// entryDate toward the event: participant first, then within the
// event period, then not an admin-closed date. Every check is a fresh
// read of the store.
func (r *EventRepository) CanSubmit(eventID, userID uint, entryDate time.Time) error {
	event, err := r.GetByID(eventID)
	if err != nil {
		return err
	}

	joined, err := r.IsParticipant(eventID, userID)
	if err != nil {
		return err
	}
	if !joined {
		return ErrNotParticipant
	}

	date := DateOnly(entryDate)
	if date.Before(DateOnly(event.StartDate)) || date.After(DateOnly(event.EndDate)) {
		return ErrOutsideEventPeriod
	}

	var count int64
	err = database.DB.Model(&models.EventClosedDate{}).
		Where("event_id = ? AND closed_date = ?", eventID, date).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDateClosed
	}
	return nil
}

// rankingRows aggregates every participant's entries within the
// event's inclusive date window and sorts them: total km descending,
// email ascending on ties. Both the public ranking and the personal
// standing derive from this one sort so the two views can never
// disagree about a rank.
func (r *EventRepository) rankingRows(event *models.Event) ([]RankingRow, error) {
	var rows []RankingRow
	err := database.DB.Table("event_participants").
		Select(`users.id AS user_id, users.email AS email,
			COALESCE(SUM(entries.km_run), 0) AS total_km,
			COALESCE(SUM(entries.hours), 0) AS total_hours,
			COUNT(entries.id) AS entry_count,
			COUNT(DISTINCT entries.entry_date) AS total_days`).
		Joins("JOIN users ON users.id = event_participants.user_id").
		Joins("LEFT JOIN entries ON entries.user_id = event_participants.user_id AND entries.entry_date >= ? AND entries.entry_date <= ?",
			DateOnly(event.StartDate), DateOnly(event.EndDate)).
		Where("event_participants.event_id = ?", event.ID).
		Group("users.id, users.email").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalKm != rows[j].TotalKm {
			return rows[i].TotalKm > rows[j].TotalKm
		}
		return rows[i].Email < rows[j].Email
	})
	return rows, nil
}

// Ranking returns the event and its full sorted participant ranking
func (r *EventRepository) Ranking(eventID uint) (*models.Event, []RankingRow, error) {
	event, err := r.GetByID(eventID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.rankingRows(event)
	if err != nil {
		return nil, nil, err
	}
	return event, rows, nil
}

// UserStanding returns the user's 1-based rank and totals within the
// event. A participant with no qualifying entries is still ranked.
func (r *EventRepository) UserStanding(eventID, userID uint) (*Standing, error) {
	event, err := r.GetByID(eventID)
	if err != nil {
		return nil, err
	}
	rows, err := r.rankingRows(event)
	if err != nil {
		return nil, err
	}
	standing := Standing{TotalParticipants: len(rows)}
	for i, row := range rows {
		if row.UserID == userID {
			standing.Rank = i + 1
			standing.TotalKm = row.TotalKm
			standing.TotalHours = row.TotalHours
			standing.TotalDays = row.TotalDays
			return &standing, nil
		}
	}
	return nil, ErrNotParticipant
}

// CloseDate blocks submissions for one date of the event. The date
// must fall inside the event period; closing it twice is a conflict.
func (r *EventRepository) CloseDate(eventID uint, date time.Time, adminID uint) (uint, error) {
	event, err := r.GetByID(eventID)
	if err != nil {
		return 0, err
	}
	day := DateOnly(date)
	if day.Before(DateOnly(event.StartDate)) || day.After(DateOnly(event.EndDate)) {
		return 0, ErrOutsideEventPeriod
	}
	closed := models.EventClosedDate{
		EventID:    eventID,
		ClosedDate: day,
		CreatedBy:  adminID,
	}
	if err := database.DB.Create(&closed).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrDuplicateClosedDate
		}
		return 0, err
	}
	return closed.ID, nil
}

// OpenDate re-opens a previously closed date
func (r *EventRepository) OpenDate(eventID uint, date time.Time) error {
	res := database.DB.
		Where("event_id = ? AND closed_date = ?", eventID, DateOnly(date)).
		Delete(&models.EventClosedDate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClosedDates lists the closed dates of an event in date order
func (r *EventRepository) ClosedDates(eventID uint) ([]models.EventClosedDate, error) {
	if _, err := r.GetByID(eventID); err != nil {
		return nil, err
	}
	var dates []models.EventClosedDate
	err := database.DB.Where("event_id = ?", eventID).Order("closed_date").Find(&dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}
