package save

import (
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var bucketSaves = []byte("saves")

// Store persists named save slots in a single bbolt file. One slot is
// one serialized Snapshot; writing a slot replaces it atomically.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the save database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &Error{Reason: "open save database", Err: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSaves)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &Error{Reason: "init save database", Err: err}
	}
	return &Store{db: db}, nil
}

// Put writes a snapshot into the named slot.
func (s *Store) Put(slot string, snap *Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return &Error{Reason: "encode snapshot", Err: err}
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSaves).Put([]byte(slot), data)
	})
	if err != nil {
		return &Error{Reason: fmt.Sprintf("write slot %q", slot), Err: err}
	}
	return nil
}

// Get reads the named slot. A missing slot is an *Error.
func (s *Store) Get(slot string) (*Snapshot, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSaves).Get([]byte(slot))
		if v == nil {
			return &Error{Reason: fmt.Sprintf("no save in slot %q", slot)}
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// List returns the slot names in sorted order.
func (s *Store) List() ([]string, error) {
	var slots []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSaves).ForEach(func(k, _ []byte) error {
			slots = append(slots, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, &Error{Reason: "list slots", Err: err}
	}
	sort.Strings(slots)
	return slots, nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (s *Store) Delete(slot string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSaves).Delete([]byte(slot))
	})
	if err != nil {
		return &Error{Reason: fmt.Sprintf("delete slot %q", slot), Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
