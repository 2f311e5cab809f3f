package repositories

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/daryl22/lsr-tracker/database"
	"github.com/daryl22/lsr-tracker/models"

	"gorm.io/gorm"
)

// EntryRepository handles run entries, their proof uploads and the
// monthly aggregation views
type EntryRepository struct{}

// NewEntryRepository creates a new entry repository
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{}
}

// TopRow is one row of the monthly top-10 leaderboard
type TopRow struct {
	UserID  uint    `json:"user_id"`
	Email   string  `json:"email"`
	TotalKm float64 `json:"total_km"`
}

// Create persists an entry together with its optional proof upload.
// Both writes run in one transaction so an entry can never end up
// without the upload the caller attached to it.
func (r *EntryRepository) Create(entry *models.Entry, upload *models.Upload) error {
	entry.EntryDate = DateOnly(entry.EntryDate)
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if upload != nil {
			upload.UserID = entry.UserID
			upload.EntryID = &entry.ID
			if err := tx.Create(upload).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves an entry and its attached upload
func (r *EntryRepository) GetByID(id uint) (*models.Entry, error) {
	var entry models.Entry
	err := database.DB.Preload("Upload").First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update updates an entry
func (r *EntryRepository) Update(entry *models.Entry) error {
	entry.EntryDate = DateOnly(entry.EntryDate)
	return database.DB.Save(entry).Error
}

// Delete removes an entry and its upload row, returning the storage
// key of the deleted upload so the caller can remove the blob.
func (r *EntryRepository) Delete(id uint) (string, error) {
	entry, err := r.GetByID(id)
	if err != nil {
		return "", err
	}
	var filename string
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if entry.Upload != nil {
			filename = entry.Upload.Filename
			if err := tx.Delete(&models.Upload{}, entry.Upload.ID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Entry{}, id).Error
	})
	if err != nil {
		return "", err
	}
	return filename, nil
}

// MonthlyEntries lists entries within [monthStart, monthEnd), newest
// date first. A zero userID lists entries for every user.
func (r *EntryRepository) MonthlyEntries(userID uint, monthStart, monthEnd time.Time) ([]models.Entry, error) {
	q := database.DB.Preload("Upload").
		Where("entry_date >= ? AND entry_date < ?", monthStart, monthEnd).
		Order("entry_date DESC, id DESC")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Top10 aggregates total km per user over [monthStart, monthEnd) and
// returns at most ten rows, highest total first. Users without entries
// in the month do not appear.
func (r *EntryRepository) Top10(monthStart, monthEnd time.Time) ([]TopRow, error) {
	var rows []TopRow
	err := database.DB.Table("entries").
		Select("users.id AS user_id, users.email AS email, SUM(entries.km_run) AS total_km").
		Joins("JOIN users ON users.id = entries.user_id").
		Where("entries.entry_date >= ? AND entries.entry_date < ?", monthStart, monthEnd).
		Group("users.id, users.email").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TotalKm = math.Round(rows[i].TotalKm*100) / 100
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalKm != rows[j].TotalKm {
			return rows[i].TotalKm > rows[j].TotalKm
		}
		return rows[i].Email < rows[j].Email
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}
	return rows, nil
}

// GetUploadByFilename resolves a stored blob key to its metadata
func (r *EntryRepository) GetUploadByFilename(filename string) (*models.Upload, error) {
	var upload models.Upload
	err := database.DB.Where("filename = ?", filename).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// UploadsByUser lists uploads, optionally filtered to one user. The
// filter is a parameterized clause, never assembled from request text.
func (r *EntryRepository) UploadsByUser(userID uint) ([]models.Upload, error) {
	q := database.DB.Order("created_at DESC")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var uploads []models.Upload
	if err := q.Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}
