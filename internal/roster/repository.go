package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playperu/hooplink/internal/hooplink"
)

// Fixed blob keys. They match the keys the browser client used, so data
// exported from it loads unchanged.
const (
	GamesKey         = "hoopslink_games"
	NotificationsKey = "hoopslink_notifications"
)

// ErrBlobNotFound is returned by Blobs.GetBlob when nothing is stored under a key.
var ErrBlobNotFound = errors.New("blob not found")

// Repository loads and saves the two collections as a whole.
type Repository interface {
	LoadGames(ctx context.Context) ([]hooplink.Game, error)
	SaveGames(ctx context.Context, games []hooplink.Game) error
	LoadNotifications(ctx context.Context) ([]hooplink.Notification, error)
	SaveNotifications(ctx context.Context, notifications []hooplink.Notification) error
}

// Blobs is a key-value store of opaque byte blobs.
type Blobs interface {
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte) error
}

// BlobRepository stores each collection as one JSON blob.
type BlobRepository struct {
	blobs  Blobs
	logger *slog.Logger
}

func NewBlobRepository(blobs Blobs, logger *slog.Logger) *BlobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobRepository{blobs: blobs, logger: logger}
}

func (r *BlobRepository) LoadGames(ctx context.Context) ([]hooplink.Game, error) {
	var games []hooplink.Game
	if err := r.load(ctx, GamesKey, &games); err != nil {
		return nil, err
	}
	if games == nil {
		games = []hooplink.Game{}
	}
	return games, nil
}

func (r *BlobRepository) SaveGames(ctx context.Context, games []hooplink.Game) error {
	return r.save(ctx, GamesKey, games)
}

func (r *BlobRepository) LoadNotifications(ctx context.Context) ([]hooplink.Notification, error) {
	var ns []hooplink.Notification
	if err := r.load(ctx, NotificationsKey, &ns); err != nil {
		return nil, err
	}
	if ns == nil {
		ns = []hooplink.Notification{}
	}
	return ns, nil
}

func (r *BlobRepository) SaveNotifications(ctx context.Context, notifications []hooplink.Notification) error {
	return r.save(ctx, NotificationsKey, notifications)
}

// load decodes the blob under key into dest. A missing or unparsable blob
// leaves dest empty.
func (r *BlobRepository) load(ctx context.Context, key string, dest any) error {
	data, err := r.blobs.GetBlob(ctx, key)
	if errors.Is(err, ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("discarding unparsable blob", "key", key, "error", err)
		return nil
	}
	return nil
}

func (r *BlobRepository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.blobs.PutBlob(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// MemoryBlobs keeps blobs in process memory.
type MemoryBlobs struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{data: make(map[string][]byte)}
}

func (m *MemoryBlobs) GetBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryBlobs) PutBlob(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

var (
	_ Repository = (*BlobRepository)(nil)
	_ Blobs      = (*MemoryBlobs)(nil)
)
