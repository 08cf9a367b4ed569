package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/gameday/domain"
)

const (
	defaultBucket = "gameday"

	keyReminders = "reminders"
	keyStats     = "stats"
)

// Store wraps BoltDB and keeps the device-local reminder collection and its
// stats snapshot as two independent JSON records.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Load returns the persisted reminders. A missing record is an empty collection.
func (s *Store) Load() ([]domain.Reminder, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	var reminders []domain.Reminder
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(keyReminders))
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, &reminders)
	})
	return reminders, err
}

// LoadStats returns the last persisted stats snapshot.
func (s *Store) LoadStats() (domain.Stats, error) {
	if s == nil || s.db == nil {
		return domain.Stats{}, bolt.ErrDatabaseNotOpen
	}

	var stats domain.Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(keyStats))
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, &stats)
	})
	return stats, err
}

// Save writes the reminder collection and its stats snapshot in one transaction.
func (s *Store) Save(reminders []domain.Reminder, stats domain.Stats) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if reminders == nil {
		reminders = []domain.Reminder{}
	}

	remindersJSON, err := json.Marshal(reminders)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if err := b.Put([]byte(keyReminders), remindersJSON); err != nil {
			return err
		}
		return b.Put([]byte(keyStats), statsJSON)
	})
}

// Clear removes both records.
func (s *Store) Clear() error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if err := b.Delete([]byte(keyReminders)); err != nil {
			return err
		}
		return b.Delete([]byte(keyStats))
	})
}

// Size returns the number of persisted reminders.
func (s *Store) Size() (int, error) {
	reminders, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(reminders), nil
}

// Ping verifies the database file is still usable.
func (s *Store) Ping() error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return errors.New("localstore: bucket missing")
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
