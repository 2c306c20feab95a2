// Package blobstore stores uploaded bioimpedance report images and patient
// progress photos. It defines the PhotoStore interface, an in-memory
// implementation used in development and tests, and Echo HTTP handlers for
// upload, download, metadata retrieval, listing and deletion. Uploaded report
// images are served back at a stable URL so the extraction pipeline can fetch
// them by reference.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/auth"
)

var (
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed upload size in bytes (20 MB). Scale
// report exports and phone photos stay well under this.
const MaxFileSize = 20 * 1024 * 1024

// AllowedKinds lists valid photo kind values.
var AllowedKinds = map[string]bool{
	"bioimpedance-report": true,
	"progress-photo":      true,
	"other":               true,
}

// AllowedContentTypes lists the image formats the extraction providers accept,
// plus PDF for scale reports exported as documents.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"application/pdf": true,
}

// PhotoMetadata describes a stored photo.
type PhotoMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientID   string    `json:"patient_id"`
	Week        int       `json:"week,omitempty"`
	Kind        string    `json:"kind"`
	Hash        string    `json:"hash"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
}

// URL returns the path where the photo can be fetched, suitable for passing
// to the extraction pipeline as an image reference.
func (m PhotoMetadata) URL() string {
	return "/api/v1/photos/" + m.ID
}

// PhotoStore defines the contract for photo storage backends.
type PhotoStore interface {
	Save(ctx context.Context, meta PhotoMetadata, content io.Reader) (*PhotoMetadata, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *PhotoMetadata, error)
	Stat(ctx context.Context, id string) (*PhotoMetadata, error)
	Delete(ctx context.Context, id string) error
	ListByPatient(ctx context.Context, patientID, kind string, limit, offset int) ([]*PhotoMetadata, int, error)
}

type storedPhoto struct {
	metadata PhotoMetadata
	content  []byte
}

// InMemoryPhotoStore is a thread-safe, in-memory PhotoStore.
type InMemoryPhotoStore struct {
	mu     sync.RWMutex
	photos map[string]*storedPhoto
}

// NewInMemoryPhotoStore returns a ready-to-use InMemoryPhotoStore.
func NewInMemoryPhotoStore() *InMemoryPhotoStore {
	return &InMemoryPhotoStore{photos: make(map[string]*storedPhoto)}
}

// Save validates inputs, reads the content, computes a SHA-256 hash and stores
// the photo in memory.
func (s *InMemoryPhotoStore) Save(_ context.Context, meta PhotoMetadata, content io.Reader) (*PhotoMetadata, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}
	if meta.ContentType != "" && !AllowedContentTypes[meta.ContentType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, meta.ContentType)
	}
	if meta.Kind == "" {
		meta.Kind = "other"
	}
	if !AllowedKinds[meta.Kind] {
		return nil, fmt.Errorf("invalid photo kind: %s", meta.Kind)
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.UploadedAt = time.Now().UTC()

	s.mu.Lock()
	s.photos[meta.ID] = &storedPhoto{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

// Open returns an io.ReadCloser over the photo content and its metadata.
func (s *InMemoryPhotoStore) Open(_ context.Context, id string) (io.ReadCloser, *PhotoMetadata, error) {
	s.mu.RLock()
	p, ok := s.photos[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrPhotoNotFound
	}

	meta := p.metadata
	return io.NopCloser(bytes.NewReader(p.content)), &meta, nil
}

// Stat returns photo metadata without content.
func (s *InMemoryPhotoStore) Stat(_ context.Context, id string) (*PhotoMetadata, error) {
	s.mu.RLock()
	p, ok := s.photos[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrPhotoNotFound
	}

	meta := p.metadata
	return &meta, nil
}

// Delete removes a photo by ID.
func (s *InMemoryPhotoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.photos[id]; !ok {
		return ErrPhotoNotFound
	}
	delete(s.photos, id)
	return nil
}

// ListByPatient returns photos for a given patient, optionally filtered by
// kind, newest first. It returns the matching page and the total count.
func (s *InMemoryPhotoStore) ListByPatient(_ context.Context, patientID, kind string, limit, offset int) ([]*PhotoMetadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*PhotoMetadata
	for _, p := range s.photos {
		if p.metadata.PatientID != patientID {
			continue
		}
		if kind != "" && p.metadata.Kind != kind {
			continue
		}
		m := p.metadata
		matched = append(matched, &m)
	}

	// Newest first.
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].UploadedAt.After(matched[i].UploadedAt) {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}

	total := len(matched)
	if limit <= 0 {
		limit = 20
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], total, nil
}

type listResponse struct {
	Items []*PhotoMetadata `json:"items"`
	Total int              `json:"total"`
}

// PhotoHandler provides Echo HTTP handlers for photo operations.
type PhotoHandler struct {
	store PhotoStore
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(store PhotoStore) *PhotoHandler {
	return &PhotoHandler{store: store}
}

// RegisterRoutes mounts photo routes on the supplied Echo group. Reads are
// scoped to the photo's patient; deletion is admin-only like every other
// destructive operation.
func (h *PhotoHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/photos", h.handleUpload)
	g.GET("/photos/:id", h.handleDownload)
	g.GET("/photos/:id/meta", h.handleStat)
	g.DELETE("/photos/:id", h.handleDelete, auth.RequireRole("master"))
	g.GET("/patients/:patientId/photos", h.handleListByPatient)
}

func (h *PhotoHandler) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}
	patientID := c.FormValue("patient_id")
	if patientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "patient_id is required"})
	}
	if !auth.CanAccessPatient(c.Request().Context(), patientID) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to open uploaded file"})
	}
	defer src.Close()

	week, _ := strconv.Atoi(c.FormValue("week"))

	meta := PhotoMetadata{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		PatientID:   patientID,
		Week:        week,
		Kind:        c.FormValue("kind"),
		UploadedBy:  c.FormValue("uploaded_by"),
	}

	result, err := h.store.Save(c.Request().Context(), meta, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrInvalidContentType):
			return c.JSON(http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrMissingFileName):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"photo": result,
		"url":   result.URL(),
	})
}

func (h *PhotoHandler) handleDownload(c echo.Context) error {
	rc, meta, err := h.store.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	defer rc.Close()

	if !auth.CanAccessPatient(c.Request().Context(), meta.PatientID) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *PhotoHandler) handleStat(c echo.Context) error {
	meta, err := h.store.Stat(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !auth.CanAccessPatient(c.Request().Context(), meta.PatientID) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *PhotoHandler) handleDelete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PhotoHandler) handleListByPatient(c echo.Context) error {
	if !auth.CanAccessPatient(c.Request().Context(), c.Param("patientId")) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	limit := intParam(c, "limit", 20)
	offset := intParam(c, "offset", 0)

	items, total, err := h.store.ListByPatient(c.Request().Context(), c.Param("patientId"), c.QueryParam("kind"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if items == nil {
		items = []*PhotoMetadata{}
	}

	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

func intParam(c echo.Context, name string, defaultVal int) int {
	v := c.QueryParam(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
