// Package hashcache persists file checksums between runs so repeat
// snapshots only re-hash files whose size or modification time changed.
// Entries are keyed by walk root and relative path and stored in Badger.
package hashcache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("hashcache entry not found")

// keySeparator separates root from relative path in cache keys.
const keySeparator = '\x00'

// Entry is one cached checksum with the stat fingerprint it is valid for.
type Entry struct {
	Size     int64  // file size in bytes
	Mtime    int64  // modification time as UnixNano
	MP3      bool   // whether the checksum was computed in MP3 mode
	Checksum string // lowercase hex digest
}

// encode serializes the entry using gob.
func (e *Entry) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode deserializes bytes into the entry.
func (e *Entry) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// makeKey builds the Badger key for a root and relative path.
func makeKey(root, relPath string) []byte {
	return []byte(root + string(keySeparator) + relPath)
}

// Cache wraps a Badger database holding checksum entries.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache at the given directory.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logging is noise here

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening hash cache at %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get retrieves the entry for root and relPath.
func (c *Cache) Get(root, relPath string) (*Entry, error) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey(root, relPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Lookup returns the cached checksum for a file whose current stat
// fingerprint and hashing mode match the stored entry, or "" when the
// cache cannot vouch for it.
func (c *Cache) Lookup(root, relPath string, size, mtime int64, mp3 bool) string {
	entry, err := c.Get(root, relPath)
	if err != nil {
		return ""
	}
	if entry.Size != size || entry.Mtime != mtime || entry.MP3 != mp3 {
		return ""
	}
	return entry.Checksum
}

// Put stores an entry for root and relPath.
func (c *Cache) Put(root, relPath string, entry *Entry) error {
	value, err := entry.encode()
	if err != nil {
		return fmt.Errorf("encoding hashcache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(root, relPath), value)
	})
}

// PutBatch stores many entries for one root in a single write batch.
func (c *Cache) PutBatch(root string, entries map[string]*Entry) error {
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()

	for relPath, entry := range entries {
		value, err := entry.encode()
		if err != nil {
			return fmt.Errorf("encoding hashcache entry %q: %w", relPath, err)
		}
		if err := wb.Set(makeKey(root, relPath), value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// DropRoot removes every entry under the given root.
func (c *Cache) DropRoot(root string) error {
	prefix := []byte(root + string(keySeparator))

	return c.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
