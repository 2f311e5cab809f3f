package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/daryl22/lsr-tracker/models"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/fiber/v2"
)

// FileHandlers streams stored proof screenshots by their opaque
// storage key
type FileHandlers struct {
	entryRepo *repositories.EntryRepository
	uploadDir string
}

func NewFileHandlers(entryRepo *repositories.EntryRepository, uploadDir string) *FileHandlers {
	return &FileHandlers{entryRepo: entryRepo, uploadDir: uploadDir}
}

// FileHandler serves a stored blob inline. Only the owner or an admin
// may fetch it; content type comes from the stored metadata.
func (h *FileHandlers) FileHandler(c *fiber.Ctx) error {
	upload, path, errResp := h.lookup(c)
	if upload == nil {
		return errResp
	}

	c.Set("Content-Type", upload.Mimetype)
	// Disable caching for proof screenshots
	c.Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	c.Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", sanitizeFilename(upload.OriginalName)))

	return c.SendFile(path)
}

// DownloadHandler forces an attachment download of a stored blob
func (h *FileHandlers) DownloadHandler(c *fiber.Ctx) error {
	upload, path, errResp := h.lookup(c)
	if upload == nil {
		return errResp
	}

	c.Set("Content-Type", "application/octet-stream")
	c.Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", sanitizeFilename(upload.OriginalName)))

	return c.SendFile(path)
}

// lookup resolves the :filename parameter to an upload the current
// user may access and the blob's path on disk. On failure it returns a
// nil upload and the already-written error response.
func (h *FileHandlers) lookup(c *fiber.Ctx) (*models.Upload, string, error) {
	filename := c.Params("filename")
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return nil, "", badRequest(c, "invalid filename")
	}

	upload, err := h.entryRepo.GetUploadByFilename(filename)
	if err != nil {
		return nil, "", fail(c, err)
	}
	if upload.UserID != currentUserID(c) && !isAdmin(c) {
		return nil, "", fail(c, repositories.ErrNotFound)
	}

	path := filepath.Join(h.uploadDir, upload.Filename)
	if _, err := os.Stat(path); err != nil {
		return nil, "", fail(c, repositories.ErrNotFound)
	}
	return upload, path, nil
}

// sanitizeFilename strips quotes so the stored original name cannot
// break out of the Content-Disposition header
func sanitizeFilename(name string) string {
	return strings.NewReplacer("\"", "", "\r", "", "\n", "").Replace(name)
}
