// Package settings persists small JSON-typed key/value settings in SQLite.
package settings

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openmux/statusd/internal/events"
)

// Store is the settings database. Values are JSON documents grouped into
// named buckets; writes are announced on the event bus so subscribers can
// re-read what they care about.
type Store struct {
	db       *sql.DB
	eventBus *events.Bus
	logger   *slog.Logger
}

// Open opens or creates the database at path and initializes the schema.
func Open(path string, eventBus *events.Bus, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}

	return &Store{db: db, eventBus: eventBus, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			bucket TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (bucket, key)
		);
		CREATE INDEX IF NOT EXISTS idx_settings_bucket ON settings(bucket);
	`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Buckets lists the bucket names present in the store.
func (s *Store) Buckets() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT bucket FROM settings ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan bucket name: %w", err)
		}
		buckets = append(buckets, name)
	}
	return buckets, rows.Err()
}

// announce publishes a change notification for bucket/key. An empty key
// means the whole bucket changed.
func (s *Store) announce(bucket, key string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(events.SettingChangedEvent{
		Bucket:    bucket,
		Key:       key,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Bucket is a named view over the store.
type Bucket struct {
	store *Store
	name  string
}

// Bucket returns a view bound to the given bucket name. Buckets need no
// creation step; they exist once they hold a key.
func (s *Store) Bucket(name string) *Bucket {
	return &Bucket{store: s, name: name}
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Put stores value under key, replacing any previous value.
func (b *Bucket) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return b.putRaw(key, data)
}

// PutRaw stores a pre-encoded JSON document.
func (b *Bucket) PutRaw(key string, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("value for %s/%s is not valid JSON", b.name, key)
	}
	return b.putRaw(key, raw)
}

func (b *Bucket) putRaw(key string, data []byte) error {
	now := time.Now().UTC().Unix()

	_, err := b.store.db.Exec(`
		INSERT INTO settings (bucket, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, b.name, key, string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to store setting: %w", err)
	}

	b.store.announce(b.name, key)
	return nil
}

// GetRaw returns the stored JSON document for key.
func (b *Bucket) GetRaw(key string) ([]byte, bool, error) {
	var value string

	err := b.store.db.QueryRow(`
		SELECT value FROM settings WHERE bucket = ? AND key = ?
	`, b.name, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get setting: %w", err)
	}

	return []byte(value), true, nil
}

// Delete removes a key from the bucket and reports whether it existed.
func (b *Bucket) Delete(key string) (bool, error) {
	result, err := b.store.db.Exec(`
		DELETE FROM settings WHERE bucket = ? AND key = ?
	`, b.name, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete setting: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected > 0 {
		b.store.announce(b.name, key)
	}
	return affected > 0, nil
}

// Keys returns all keys in the bucket.
func (b *Bucket) Keys() ([]string, error) {
	rows, err := b.store.db.Query(`
		SELECT key FROM settings WHERE bucket = ? ORDER BY key
	`, b.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Items returns every key and its raw document in the bucket.
func (b *Bucket) Items() (map[string]json.RawMessage, error) {
	rows, err := b.store.db.Query(`
		SELECT key, value FROM settings WHERE bucket = ? ORDER BY key
	`, b.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	items := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		items[key] = json.RawMessage(value)
	}
	return items, rows.Err()
}

// Clear removes all keys from the bucket.
func (b *Bucket) Clear() error {
	result, err := b.store.db.Exec(`DELETE FROM settings WHERE bucket = ?`, b.name)
	if err != nil {
		return fmt.Errorf("failed to clear bucket: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected > 0 {
		b.store.announce(b.name, "")
	}
	return nil
}
