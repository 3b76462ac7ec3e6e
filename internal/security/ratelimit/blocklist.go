package ratelimit

import (
	"encoding/binary"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// Key prefixes for block-list storage.
const (
	prefixFailCount = "failcount:"
	prefixBlocked   = "blocked:"
)

// BlockList tracks failed authentication attempts per identifier and
// blocks identifiers that reach MaxFailedAuthAttempts within an hour,
// persisting state in an embedded Badger store so blocks survive a
// server restart.
//
// Both the failure counter and the resulting block are stored with
// Badger's per-entry TTL, so expiry needs no separate sweep goroutine:
// Badger's own value-log GC reclaims expired entries.
type BlockList struct {
	db                *badgerdb.DB
	maxFailedAttempts int
	blockDuration     time.Duration
	failWindow        time.Duration
}

// NewBlockList opens (or creates) the Badger store at dbPath. An empty
// dbPath runs the store in memory, useful for tests and for deployments
// that accept resetting blocks across a restart.
func NewBlockList(dbPath string, maxFailedAttempts int, blockDuration time.Duration) (*BlockList, error) {
	opts := badgerdb.DefaultOptions(dbPath)
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open rate limit store: %w", err)
	}

	return &BlockList{
		db:                db,
		maxFailedAttempts: maxFailedAttempts,
		blockDuration:     blockDuration,
		failWindow:        time.Hour,
	}, nil
}

// Close releases the underlying Badger store.
func (b *BlockList) Close() error {
	return b.db.Close()
}

// RecordFailedAuth records a failed authentication attempt for
// identifier and reports whether its failure count has now reached
// maxFailedAttempts, in which case it is now blocked.
func (b *BlockList) RecordFailedAuth(identifier string) (blocked bool, err error) {
	err = b.db.Update(func(txn *badgerdb.Txn) error {
		key := failCountKey(identifier)

		count := 0
		item, getErr := txn.Get(key)
		switch {
		case getErr == nil:
			if valErr := item.Value(func(val []byte) error {
				count = int(binary.BigEndian.Uint32(val))
				return nil
			}); valErr != nil {
				return valErr
			}
		case getErr == badgerdb.ErrKeyNotFound:
			// first failure for this identifier
		default:
			return getErr
		}

		count++
		entry := badgerdb.NewEntry(key, encodeCount(count)).WithTTL(b.failWindow)
		if setErr := txn.SetEntry(entry); setErr != nil {
			return setErr
		}

		if count >= b.maxFailedAttempts {
			blockEntry := badgerdb.NewEntry(blockedKey(identifier), []byte{1}).WithTTL(b.blockDuration)
			if setErr := txn.SetEntry(blockEntry); setErr != nil {
				return setErr
			}
			blocked = true
		}
		return nil
	})
	return blocked, err
}

// IsBlocked reports whether identifier currently has an active block.
func (b *BlockList) IsBlocked(identifier string) (bool, error) {
	blocked := false
	err := b.db.View(func(txn *badgerdb.Txn) error {
		_, getErr := txn.Get(blockedKey(identifier))
		if getErr == badgerdb.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		blocked = true
		return nil
	})
	return blocked, err
}

// Unblock clears identifier's block and failure count.
func (b *BlockList) Unblock(identifier string) error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Delete(blockedKey(identifier)); err != nil && err != badgerdb.ErrKeyNotFound {
			return err
		}
		if err := txn.Delete(failCountKey(identifier)); err != nil && err != badgerdb.ErrKeyNotFound {
			return err
		}
		return nil
	})
}

// BlockedCount reports how many identifiers are currently blocked, for
// admin API / Prometheus introspection.
func (b *BlockList) BlockedCount() (int, error) {
	count := 0
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixBlocked)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func failCountKey(identifier string) []byte {
	return []byte(prefixFailCount + identifier)
}

func blockedKey(identifier string) []byte {
	return []byte(prefixBlocked + identifier)
}

func encodeCount(count int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(count))
	return buf
}
