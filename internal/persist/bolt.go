package persist

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var bucketPartySlots = []byte("party_slots")

// BoltPartyStore keeps saved-party slots in an embedded bbolt file.
// Key: 8-byte big-endian slot ID. Value: JSON array of actor IDs.
type BoltPartyStore struct {
	bolt *bbolt.DB
}

// OpenBolt opens or creates the store file, along with its parent
// directories, and ensures its bucket exists.
func OpenBolt(path string, timeout time.Duration) (*BoltPartyStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt: create dir for %s: %w", path, err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPartySlots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}
	return &BoltPartyStore{bolt: db}, nil
}

func (s *BoltPartyStore) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Path returns the filesystem path of the underlying file.
func (s *BoltPartyStore) Path() string { return s.bolt.Path() }

// SaveSlot overwrites a slot with the given roster snapshot.
func (s *BoltPartyStore) SaveSlot(ctx context.Context, slot int32, actorIDs []int32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if actorIDs == nil {
		actorIDs = []int32{}
	}
	data, err := json.Marshal(actorIDs)
	if err != nil {
		return fmt.Errorf("bolt: encode slot %d: %w", slot, err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPartySlots).Put(slotKey(slot), data)
	})
}

// LoadSlot returns the snapshot of a slot; ok is false when nothing was saved.
func (s *BoltPartyStore) LoadSlot(ctx context.Context, slot int32) (actorIDs []int32, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	err = s.bolt.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPartySlots).Get(slotKey(slot))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &actorIDs)
	})
	if err != nil {
		return nil, false, fmt.Errorf("bolt: load slot %d: %w", slot, err)
	}
	return actorIDs, ok, nil
}

// DeleteSlot removes a slot. Deleting a missing slot is not an error.
func (s *BoltPartyStore) DeleteSlot(ctx context.Context, slot int32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPartySlots).Delete(slotKey(slot))
	})
}

// Slots lists saved slot IDs in ascending order.
func (s *BoltPartyStore) Slots(ctx context.Context) ([]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []int32
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPartySlots).ForEach(func(k, _ []byte) error {
			out = append(out, keyToSlot(k))
			return nil
		})
	})
	return out, err
}

// slotKey converts a slot ID to an 8-byte big-endian key.
func slotKey(slot int32) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(slot))
	return buf
}

func keyToSlot(b []byte) int32 {
	return int32(binary.BigEndian.Uint64(b))
}
