package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	// ErrKeyNotFound indicates the requested API key does not exist.
	ErrKeyNotFound = errors.New("api key not found")

	// ErrKeyRevoked indicates the API key has been revoked.
	ErrKeyRevoked = errors.New("api key revoked")

	// ErrKeyExpired indicates the API key has passed its expiration time.
	ErrKeyExpired = errors.New("api key expired")

	// ErrInvalidKey indicates the provided raw key matches no stored hash.
	ErrInvalidKey = errors.New("invalid api key")
)

// APIKey is a managed key for programmatic access (report exports, the
// extraction webhook). Key material is never stored; only a SHA-256 hash.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"`
	Roles      []string   `json:"roles"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore persists API keys. Backed by an in-memory map in tests and
// development; the same interface suits a relational table.
type APIKeyStore interface {
	CreateKey(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, id string) (*APIKey, error)
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	List(ctx context.Context) ([]*APIKey, error)
	UpdateKey(ctx context.Context, key *APIKey) error
	DeleteKey(ctx context.Context, id string) error
}

// InMemoryAPIKeyStore is a thread-safe in-memory APIKeyStore.
type InMemoryAPIKeyStore struct {
	mu      sync.RWMutex
	byID    map[string]*APIKey
	byHash  map[string]string
	ordered []string
}

func NewInMemoryAPIKeyStore() *InMemoryAPIKeyStore {
	return &InMemoryAPIKeyStore{
		byID:   make(map[string]*APIKey),
		byHash: make(map[string]string),
	}
}

func (s *InMemoryAPIKeyStore) CreateKey(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyKey(key)
	s.byID[cp.ID] = cp
	if cp.KeyHash != "" {
		s.byHash[cp.KeyHash] = cp.ID
	}
	s.ordered = append(s.ordered, cp.ID)
	return nil
}

func (s *InMemoryAPIKeyStore) GetByID(_ context.Context, id string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.byID[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return copyKey(k), nil
}

func (s *InMemoryAPIKeyStore) GetByHash(_ context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	k, ok := s.byID[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return copyKey(k), nil
}

func (s *InMemoryAPIKeyStore) List(_ context.Context) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*APIKey, 0, len(s.ordered))
	for _, id := range s.ordered {
		if k, ok := s.byID[id]; ok {
			result = append(result, copyKey(k))
		}
	}
	return result, nil
}

func (s *InMemoryAPIKeyStore) UpdateKey(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[key.ID]; !ok {
		return ErrKeyNotFound
	}
	s.byID[key.ID] = copyKey(key)
	return nil
}

func (s *InMemoryAPIKeyStore) DeleteKey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.byID[id]
	if !ok {
		return ErrKeyNotFound
	}
	delete(s.byHash, k.KeyHash)
	delete(s.byID, id)
	for i, oid := range s.ordered {
		if oid == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	return nil
}

func copyKey(k *APIKey) *APIKey {
	cp := *k
	cp.Roles = append([]string(nil), k.Roles...)
	return &cp
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

const keyPrefixLen = 8

// APIKeyManager generates, verifies and revokes API keys.
type APIKeyManager struct {
	store APIKeyStore
}

func NewAPIKeyManager(store APIKeyStore) *APIKeyManager {
	return &APIKeyManager{store: store}
}

// Generate creates a new key and returns the record plus the raw key material.
// The raw key is shown exactly once; only its hash is persisted.
func (m *APIKeyManager) Generate(ctx context.Context, name string, roles []string, expiresAt *time.Time) (*APIKey, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	rawKey := "zm_" + hex.EncodeToString(raw)

	key := &APIKey{
		ID:        uuid.New().String(),
		Name:      name,
		KeyHash:   HashKey(rawKey),
		KeyPrefix: rawKey[:keyPrefixLen],
		Roles:     roles,
		Status:    "active",
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateKey(ctx, key); err != nil {
		return nil, "", err
	}
	return key, rawKey, nil
}

// Verify resolves a raw key to its record, enforcing revocation and expiry.
func (m *APIKeyManager) Verify(ctx context.Context, rawKey string) (*APIKey, error) {
	if !strings.HasPrefix(rawKey, "zm_") {
		return nil, ErrInvalidKey
	}
	key, err := m.store.GetByHash(ctx, HashKey(rawKey))
	if err != nil {
		return nil, ErrInvalidKey
	}
	if key.Status == "revoked" {
		return nil, ErrKeyRevoked
	}
	if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
		return nil, ErrKeyExpired
	}

	now := time.Now()
	key.LastUsedAt = &now
	_ = m.store.UpdateKey(ctx, key)

	return key, nil
}

// Revoke marks a key revoked. Revocation is permanent.
func (m *APIKeyManager) Revoke(ctx context.Context, id string) error {
	key, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if key.Status == "revoked" {
		return nil
	}
	now := time.Now()
	key.Status = "revoked"
	key.RevokedAt = &now
	return m.store.UpdateKey(ctx, key)
}

// HashKey returns the hex SHA-256 digest of raw key material.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// Middleware + handlers
// ---------------------------------------------------------------------------

// APIKeyHeader is the header carrying raw API keys.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware authenticates requests bearing an API key header. Requests
// without the header pass through untouched so the JWT middleware can handle
// them.
func APIKeyMiddleware(m *APIKeyManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawKey := c.Request().Header.Get(APIKeyHeader)
			if rawKey == "" {
				return next(c)
			}

			key, err := m.Verify(c.Request().Context(), rawKey)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, "apikey:"+key.ID)
			ctx = context.WithValue(ctx, UserRolesKey, key.Roles)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// APIKeyHandler exposes admin CRUD over API keys.
type APIKeyHandler struct {
	manager *APIKeyManager
}

func NewAPIKeyHandler(manager *APIKeyManager) *APIKeyHandler {
	return &APIKeyHandler{manager: manager}
}

func (h *APIKeyHandler) RegisterRoutes(api *echo.Group) {
	keys := api.Group("/apikeys", RequireRole("master"))
	keys.POST("", h.Create)
	keys.GET("", h.List)
	keys.DELETE("/:id", h.Revoke)
}

type createKeyRequest struct {
	Name      string     `json:"name"`
	Roles     []string   `json:"roles"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (h *APIKeyHandler) Create(c echo.Context) error {
	var req createKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if len(req.Roles) == 0 {
		req.Roles = []string{"patient"}
	}

	key, rawKey, err := h.manager.Generate(c.Request().Context(), req.Name, req.Roles, req.ExpiresAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"key":     key,
		"raw_key": rawKey,
	})
}

func (h *APIKeyHandler) List(c echo.Context) error {
	keys, err := h.manager.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, keys)
}

func (h *APIKeyHandler) Revoke(c echo.Context) error {
	if err := h.manager.Revoke(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "api key not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
