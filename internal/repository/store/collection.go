package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/metrics"
)

var (
	// ErrStore wraps every database failure.
	ErrStore = errors.New("store error")
	// ErrNotFound is returned by Get when the record does not exist.
	ErrNotFound = errors.New("record not found")
	// errIDRequired is returned when a record has an empty id.
	errIDRequired = errors.New("record id is required")
)

// Record is anything addressable by a string id.
type Record interface {
	RecordID() string
}

// Collection is a named set of records of one type.
type Collection[T Record] struct {
	db     *badger.DB
	name   string
	prefix []byte

	// mu guards subscribers and orders snapshot publication.
	mu          sync.Mutex
	subscribers map[chan []T]struct{}
}

// NewCollection binds a collection name to the database.
func NewCollection[T Record](db *badger.DB, name string) *Collection[T] {
	return &Collection[T]{
		db:          db,
		name:        name,
		prefix:      []byte(name + "/"),
		subscribers: make(map[chan []T]struct{}),
	}
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var record T

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(id))
		if err != nil {
			return err
		}

		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &record)
		})
	})

	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return record, ErrNotFound
	default:
		return record, c.fail(ctx, "get", err)
	}
}

// List returns every record ordered by id.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	records, err := c.list()
	if err != nil {
		return nil, c.fail(ctx, "list", err)
	}

	return records, nil
}

// Put inserts or replaces the record.
func (c *Collection[T]) Put(ctx context.Context, record T) error {
	id := record.RecordID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %w", ErrStore, errIDRequired)
	}

	value, err := json.Marshal(record)
	if err != nil {
		return c.fail(ctx, "put", err)
	}

	if err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(id), value)
	}); err != nil {
		return c.fail(ctx, "put", err)
	}

	c.publish(ctx)

	return nil
}

// Delete removes the record. Deleting a missing record succeeds.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(id))
	}); err != nil {
		return c.fail(ctx, "delete", err)
	}

	c.publish(ctx)

	return nil
}

// Subscribe returns a stream of snapshots: the current content first, then
// one snapshot after every change. A slow reader only sees the latest
// snapshot. The stream is closed when ctx is done.
func (c *Collection[T]) Subscribe(ctx context.Context) (<-chan []T, error) {
	ch := make(chan []T, 1)

	c.mu.Lock()

	records, err := c.list()
	if err != nil {
		c.mu.Unlock()

		return nil, c.fail(ctx, "subscribe", err)
	}

	ch <- records
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()

		c.mu.Lock()
		delete(c.subscribers, ch)
		close(ch)
		c.mu.Unlock()
	}()

	return ch, nil
}

// publish sends a fresh snapshot to every subscriber, replacing unread ones.
func (c *Collection[T]) publish(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subscribers) == 0 {
		return
	}

	records, err := c.list()
	if err != nil {
		_ = c.fail(ctx, "publish", err)

		return
	}

	for ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}

		ch <- records
	}
}

// list reads every record of the collection.
func (c *Collection[T]) list() ([]T, error) {
	records := make([]T, 0)

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = c.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(c.prefix); it.ValidForPrefix(c.prefix); it.Next() {
			var record T

			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &record)
			}); err != nil {
				return err
			}

			records = append(records, record)
		}

		return nil
	})

	return records, err
}

func (c *Collection[T]) key(id string) []byte {
	return append(append([]byte{}, c.prefix...), id...)
}

// fail counts, logs and wraps a database error.
func (c *Collection[T]) fail(ctx context.Context, operation string, err error) error {
	metrics.StoreErrors.WithLabelValues(c.name, operation).Inc()
	logger.ErrorKV(ctx, "Store operation failed", "collection", c.name, "operation", operation, "error", err)

	return fmt.Errorf("%w: %s %s: %w", ErrStore, operation, c.name, err)
}
