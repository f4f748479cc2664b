// Package gallery manages the photo "memories" attached to a group.
//
// Unlike balances and expenses, the list is patched locally after an upload
// (prepend) or delete (filter) instead of being re-fetched.
package gallery

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/refresh"
)

// MaxUploadSize is the largest accepted image.
const MaxUploadSize = 5 << 20

// User-facing messages.
const (
	MsgNoImage        = "Please select an image first"
	MsgTooLarge       = "File is too large. Please select an image under 5MB."
	MsgUnsupported    = "Unsupported file type. Please select a JPEG, PNG, GIF or WebP image."
	MsgLoadFailed     = "Failed to load memories. Please try again later."
	MsgUploadFailed   = "Failed to upload image. Please try again."
	MsgDeleteFailed   = "Failed to delete memory. Please try again."
	MsgNothingPending = "Please choose a memory to delete first."
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Client is the subset of the backend API the gallery calls.
type Client interface {
	Memories(ctx context.Context, groupID int64) ([]models.Memory, error)
	UploadMemory(ctx context.Context, groupID int64, filename, contentType string, data []byte) (*models.Memory, error)
	DeleteMemory(ctx context.Context, memoryID int64) error
}

// Gallery is the memories view of one group.
type Gallery struct {
	client  Client
	groupID int64
	logger  *slog.Logger
	guard   refresh.Guard

	mu        sync.Mutex
	memories  []models.Memory
	uploading bool
	deleting  bool
	pending   int64
}

// New creates an empty gallery for a group.
func New(client Client, groupID int64, logger *slog.Logger) *Gallery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gallery{
		client:  client,
		groupID: groupID,
		logger:  logger.With("component", "gallery", "group_id", groupID),
	}
}

// Fetch loads the memories of the group.
func (g *Gallery) Fetch(ctx context.Context) ([]models.Memory, error) {
	ticket := g.guard.Begin()
	memories, err := g.client.Memories(ctx, g.groupID)
	if err != nil {
		g.logger.Error("Failed to fetch memories", "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgLoadFailed)
	}
	if g.guard.Accept(ticket) {
		g.mu.Lock()
		g.memories = memories
		g.mu.Unlock()
	}
	return g.Memories(), nil
}

// Memories returns the current list, newest first.
func (g *Gallery) Memories() []models.Memory {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Memory(nil), g.memories...)
}

// CheckImage validates an image before upload and returns its detected MIME type.
func CheckImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.Validation("image", MsgNoImage)
	}
	if len(data) > MaxUploadSize {
		return "", apperrors.Validation("image", MsgTooLarge)
	}
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !allowedTypes[mime] {
		return "", apperrors.Validation("image", MsgUnsupported)
	}
	return mime, nil
}

// Uploading reports whether an upload is in flight.
func (g *Gallery) Uploading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uploading
}

// Upload sends one image and prepends the created memory. Size and type are
// checked before any network call.
func (g *Gallery) Upload(ctx context.Context, filename string, data []byte) (*models.Memory, error) {
	mime, err := CheckImage(data)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.uploading {
		g.mu.Unlock()
		return nil, apperrors.Busy()
	}
	g.uploading = true
	g.mu.Unlock()

	memory, err := g.client.UploadMemory(ctx, g.groupID, filename, mime, data)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploading = false
	if err != nil {
		g.logger.Error("Failed to upload memory", "filename", filename, "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgUploadFailed)
	}
	if g.guard.Open() {
		g.memories = append([]models.Memory{*memory}, g.memories...)
	}
	g.logger.Info("Memory uploaded", "memory_id", memory.ID, "bytes", len(data), "type", mime)
	return memory, nil
}

// RequestDelete holds a memory for deletion pending confirmation.
func (g *Gallery) RequestDelete(memoryID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = memoryID
}

// PendingDelete returns the memory awaiting confirmation.
func (g *Gallery) PendingDelete() (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending, g.pending != 0
}

// CancelDelete discards the pending deletion.
func (g *Gallery) CancelDelete() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = 0
}

// ConfirmDelete deletes the pending memory and filters it out of the list.
func (g *Gallery) ConfirmDelete(ctx context.Context) error {
	g.mu.Lock()
	id := g.pending
	if id == 0 {
		g.mu.Unlock()
		return apperrors.Validation("memory", MsgNothingPending)
	}
	if g.deleting {
		g.mu.Unlock()
		return apperrors.Busy()
	}
	g.deleting = true
	g.mu.Unlock()

	err := g.client.DeleteMemory(ctx, id)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleting = false
	if err != nil {
		g.logger.Error("Failed to delete memory", "memory_id", id, "error", err)
		return apperrors.FromResponse(err, api.StatusOf(err), MsgDeleteFailed)
	}
	if g.pending == id {
		g.pending = 0
	}
	kept := g.memories[:0:0]
	for _, m := range g.memories {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	g.memories = kept
	g.logger.Info("Memory deleted", "memory_id", id)
	return nil
}

// Close ignores responses still in flight.
func (g *Gallery) Close() {
	g.guard.Close()
}
