package repositories

import (
	"testing"
	"time"

	"github.com/daryl22/lsr-tracker/database"
	"github.com/daryl22/lsr-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntryWithUpload(t *testing.T) {
	setupTestDB(t)
	repo := NewEntryRepository()

	user := createUser(t, "a@x.com", models.GenderFemale)
	pace := 5.2
	entry := &models.Entry{
		UserID:    user.ID,
		EntryDate: date(t, "2024-06-10"),
		KmRun:     5,
		Hours:     0.5,
		Pace:      &pace,
	}
	upload := &models.Upload{
		Filename:     "abc123.png",
		OriginalName: "proof.png",
		Mimetype:     "image/png",
		Size:         1024,
	}

	require.NoError(t, repo.Create(entry, upload))
	require.NotZero(t, entry.ID)

	got, err := repo.GetByID(entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Upload)
	assert.Equal(t, "abc123.png", got.Upload.Filename)
	assert.Equal(t, user.ID, got.Upload.UserID)
	require.NotNil(t, got.Upload.EntryID)
	assert.Equal(t, entry.ID, *got.Upload.EntryID)

	// deleting the entry removes the upload row and reports its key
	filename, err := repo.Delete(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123.png", filename)

	_, err = repo.GetByID(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var count int64
	require.NoError(t, database.DB.Model(&models.Upload{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateEntryWithoutUpload(t *testing.T) {
	setupTestDB(t)
	repo := NewEntryRepository()

	user := createUser(t, "a@x.com", models.GenderFemale)
	entry := &models.Entry{UserID: user.ID, EntryDate: date(t, "2024-06-10"), KmRun: 3, Hours: 0.25}
	require.NoError(t, repo.Create(entry, nil))

	got, err := repo.GetByID(entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Upload)
	assert.Nil(t, got.Pace)
}

func TestMonthlyEntriesHalfOpenWindow(t *testing.T) {
	setupTestDB(t)
	repo := NewEntryRepository()

	user := createUser(t, "a@x.com", models.GenderFemale)
	addEntry(t, user.ID, "2024-05-31", 1, 0.1)
	first := addEntry(t, user.ID, "2024-06-01", 2, 0.2)
	last := addEntry(t, user.ID, "2024-06-30", 3, 0.3)
	addEntry(t, user.ID, "2024-07-01", 4, 0.4)

	start, end, _ := MonthWindow("2024-06", time.Now())
	entries, err := repo.MonthlyEntries(user.ID, start, end)
	require.NoError(t, err)

	// the first of the month is in, the first of the next month is out
	require.Len(t, entries, 2)
	assert.Equal(t, last.ID, entries[0].ID) // newest date first
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestMonthlyEntriesAllUsers(t *testing.T) {
	setupTestDB(t)
	repo := NewEntryRepository()

	userA := createUser(t, "a@x.com", models.GenderFemale)
	userB := createUser(t, "b@x.com", models.GenderMale)
	addEntry(t, userA.ID, "2024-06-10", 5, 0.5)
	addEntry(t, userB.ID, "2024-06-11", 6, 0.6)

	start, end, _ := MonthWindow("2024-06", time.Now())

	all, err := repo.MonthlyEntries(0, start, end)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.MonthlyEntries(userA.ID, start, end)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, userA.ID, mine[0].UserID)
}

func TestTop10(t *testing.T) {
	setupTestDB(t)
	repo := NewEntryRepository()

	// twelve users with distinct totals; only ten may appear
	users := make([]*models.User, 12)
	for i := range users {
		users[i] = createUser(t, string(rune('a'+i))+"@x.com", models.GenderFemale)
		addEntry(t, users[i].ID, "2024-06-10", float64(12-i), 1)
	}
	// a user without entries in the month must be absent entirely
	idle := createUser(t, "zz@x.com", models.GenderMale)
	addEntry(t, idle.ID, "2024-05-10", 100, 5)

	start, end, _ := MonthWindow("2024-06", time.Now())
	rows, err := repo.Top10(start, end)
	require.NoError(t, err)

	require.Len(t, rows, 10)
	assert.Equal(t, "a@x.com", rows[0].Email)
	assert.Equal(t, 12.0, rows[0].TotalKm)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].TotalKm, rows[i].TotalKm)
	}
	for _, row := range rows {
		assert.NotEqual(t, idle.Email, row.Email)
	}
}

func TestTop10Rounding(t *testing.T) {
	setupTestDB(t)
	repo := NewEntryRepository()

	user := createUser(t, "a@x.com", models.GenderFemale)
	addEntry(t, user.ID, "2024-06-10", 1.111, 0.1)
	addEntry(t, user.ID, "2024-06-11", 1.111, 0.1)

	start, end, _ := MonthWindow("2024-06", time.Now())
	rows, err := repo.Top10(start, end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2.22, rows[0].TotalKm)
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2024, 8, 17, 13, 0, 0, 0, time.Local)

	start, end, label := MonthWindow("2024-06", now)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, "2024-06", label)

	// malformed and missing tokens silently fall back to the current
	// month on the system clock (not the UTC+8 event clock)
	for _, token := range []string{"", "junk", "2024-13", "06-2024"} {
		start, end, label = MonthWindow(token, now)
		assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), start, token)
		assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), end, token)
		assert.Equal(t, "2024-08", label, token)
	}

	// December rolls into January of the next year
	_, end, _ = MonthWindow("2024-12", now)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}
