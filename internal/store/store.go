package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/lectern/internal/domain"
)

// Bucket names
var (
	bucketChapters   = []byte("chapters")
	bucketCategories = []byte("categories")
	bucketMeta       = []byte("meta")

	allBuckets = [][]byte{bucketChapters, bucketCategories, bucketMeta}
)

const (
	keyList     = "list"
	keySyncedAt = "synced_at"
)

// MirrorStore implements domain.Store using BoltDB, with an in-memory
// layer for hot-path reads.
type MirrorStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// Raw JSON, promoted on access
	cache map[string][]byte
}

// NewMirrorStore opens (or creates) the mirror at path. An empty path
// gives a memory-only store.
func NewMirrorStore(path string) (*MirrorStore, error) {
	if path == "" {
		return &MirrorStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &MirrorStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *MirrorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ domain.Store = (*MirrorStore)(nil)

// === Generic helpers ===

func (s *MirrorStore) get(bucket []byte, key string, dest any) (bool, error) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return true, json.Unmarshal(data, dest)
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return true, json.Unmarshal(data, dest)
}

func (s *MirrorStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

// === domain.ChapterRepository ===

// ListChapters returns the mirrored chapter list. A mirror that was never
// synced is an error, so the cache records it instead of showing an empty
// catalogue as fresh.
func (s *MirrorStore) ListChapters(_ context.Context) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	ok, err := s.get(bucketChapters, keyList, &chapters)
	if err != nil {
		return nil, fmt.Errorf("read chapters: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("offline mirror has no chapters: %w", domain.ErrServerOffline)
	}
	return chapters, nil
}

// ListCategories returns the mirrored category list
func (s *MirrorStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	ok, err := s.get(bucketCategories, keyList, &categories)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("offline mirror has no categories: %w", domain.ErrServerOffline)
	}
	return categories, nil
}

// === Writes ===

func (s *MirrorStore) SaveChapters(chapters []domain.Chapter) error {
	if err := s.set(bucketChapters, keyList, chapters); err != nil {
		return err
	}
	return s.touch()
}

func (s *MirrorStore) SaveCategories(categories []domain.Category) error {
	if err := s.set(bucketCategories, keyList, categories); err != nil {
		return err
	}
	return s.touch()
}

// SyncedAt returns when the mirror was last written
func (s *MirrorStore) SyncedAt() time.Time {
	var unix int64
	if ok, err := s.get(bucketMeta, keySyncedAt, &unix); !ok || err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

func (s *MirrorStore) touch() error {
	return s.set(bucketMeta, keySyncedAt, time.Now().Unix())
}

// Clear wipes every bucket
func (s *MirrorStore) Clear() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}
