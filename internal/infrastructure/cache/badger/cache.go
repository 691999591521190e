// Package badger provides a persistent ReportCache backed by BadgerDB.
// Reports are stored as JSON under the service's cache key and expire on
// the configured TTL, so repeated checks against an unchanged character
// version skip the full rule run.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// Cache implements the ReportCache interface on a local BadgerDB directory.
type Cache struct {
	db  *badgerdb.DB
	ttl time.Duration
}

// NewCache opens the cache at dir. A zero ttl stores entries without
// expiry.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}

	opts := badgerdb.DefaultOptions(dir).
		WithLoggingLevel(badgerdb.ERROR)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening report cache: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached report and true, or nil and false on a miss.
// Expired entries count as misses.
func (c *Cache) Get(ctx context.Context, key string) (*entities.Report, bool, error) {
	var report *entities.Report

	err := c.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			report = &entities.Report{}
			return json.Unmarshal(val, report)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached report: %w", err)
	}

	return report, true, nil
}

// Set stores a report under the key, subject to the cache's TTL.
func (c *Cache) Set(ctx context.Context, key string, report *entities.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	return c.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}
