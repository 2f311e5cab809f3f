package repositories

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/daryl22/lsr-tracker/database"
	"github.com/daryl22/lsr-tracker/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points database.DB at a throwaway sqlite file with the
// same TranslateError behavior the postgres connection uses
func setupTestDB(t *testing.T) {
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
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func createUser(t *testing.T, email, gender string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Gender: gender}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func createEvent(t *testing.T, name, start, end, restriction string, goal float64) *models.Event {
	t.Helper()
	event := &models.Event{
		Name:              name,
		StartDate:         date(t, start),
		EndDate:           date(t, end),
		Category:          models.CategoryIntermediate,
		GenderRestriction: restriction,
		KmGoal:            goal,
	}
	require.NoError(t, database.DB.Create(event).Error)
	return event
}

func addEntry(t *testing.T, userID uint, day string, km, hours float64) *models.Entry {
	t.Helper()
	entry := &models.Entry{UserID: userID, EntryDate: date(t, day), KmRun: km, Hours: hours}
	require.NoError(t, database.DB.Create(entry).Error)
	return entry
}

func joinEvent(t *testing.T, eventID, userID uint) {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.EventParticipant{
		EventID: eventID, UserID: userID, JoinedAt: time.Now(),
	}).Error)
}
