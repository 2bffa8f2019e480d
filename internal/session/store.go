package session

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var credentialsBucket = []byte("credentials")

// FileStore persists room credentials on disk, keyed by room code. It
// stands in for the browser's session-scoped storage: a restarted client
// reuses the saved identity instead of joining the room as a new player.
type FileStore struct {
	db *bolt.DB
}

// OpenFileStore opens (or creates) the store at path.
func OpenFileStore(path string) (*FileStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}

	return &FileStore{db: db}, nil
}

// Save stores credentials for a room, replacing any prior entry.
func (s *FileStore) Save(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Put([]byte(creds.RoomCode), data)
	})
}

// Load returns the saved credentials for a room, if any.
func (s *FileStore) Load(roomCode string) (Credentials, bool, error) {
	var creds Credentials
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(credentialsBucket).Get([]byte(roomCode))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &creds); err != nil {
			return fmt.Errorf("decode credentials: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return Credentials{}, false, err
	}
	return creds, found, nil
}

// Delete removes the saved credentials for a room.
func (s *FileStore) Delete(roomCode string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete([]byte(roomCode))
	})
}

// Close closes the underlying database.
func (s *FileStore) Close() error {
	return s.db.Close()
}
