package models

import (
	"time"
)

// Gender values stored on users and used as event restrictions
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// RestrictionBoth opens an event to every gender
const RestrictionBoth = "both"

// Event categories
const (
	CategoryAdvanced     = "advanced"
	CategoryIntermediate = "intermediate"
)

// User represents a registered runner
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Gender       string    `gorm:"not null" json:"gender"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
}

// Entry represents one logged run. A user may log any number of
// entries per calendar date.
type Entry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	EntryDate time.Time `gorm:"type:date;not null;index" json:"entry_date"`
	KmRun     float64   `gorm:"not null" json:"km_run"`
	Hours     float64   `gorm:"not null" json:"hours"`
	Pace      *float64  `json:"pace"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Upload    *Upload   `gorm:"foreignKey:EntryID" json:"upload,omitempty"`
}

// Upload represents a stored proof screenshot. Filename is the opaque
// storage key; at most one upload attaches to an entry.
type Upload struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	EntryID      *uint     `gorm:"uniqueIndex" json:"entry_id"`
	Filename     string    `gorm:"uniqueIndex;not null" json:"filename"`
	OriginalName string    `json:"originalname"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Entry        *Entry    `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"-"`
}

// Event represents an admin-defined, time-boxed competition
type Event struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"-"`
	Name              string    `gorm:"not null" json:"name"`
	StartDate         time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate           time.Time `gorm:"type:date;not null" json:"end_date"`
	Category          string    `gorm:"not null" json:"category"`
	GenderRestriction string    `gorm:"not null;default:both" json:"gender_restriction"`
	KmGoal            float64   `gorm:"not null;default:0" json:"km_goal"`
	IsEnded           bool      `gorm:"default:false" json:"is_ended"`
	CreatedBy         uint      `json:"created_by"`
}

// EventParticipant joins a user to an event. The unique index is the
// real guard against concurrent double-joins.
type EventParticipant struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	EventID  uint      `gorm:"not null;uniqueIndex:uidx_event_user" json:"event_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:uidx_event_user" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	Event    Event     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// EventClosedDate blocks entry submission for one date of an event
type EventClosedDate struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EventID    uint      `gorm:"not null;uniqueIndex:uidx_event_closed_date" json:"event_id"`
	ClosedDate time.Time `gorm:"type:date;not null;uniqueIndex:uidx_event_closed_date" json:"closed_date"`
	CreatedBy  uint      `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	Event      Event     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}
