// Package boltdb is a history.Store backed by a bbolt database, as an alternative to the single JSON file.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher/history"
)

var Buckets = struct {
	Metadata []byte
	History  []byte
}{
	Metadata: []byte("__metadata__"),
	History:  []byte("history"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type Store struct {
	db  *bbolt.DB
	log *zap.SugaredLogger
}

var _ history.Store = (*Store)(nil)

func New(path string) (_ *Store, err error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.History); err != nil {
			return err
		}

		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version > currentVersion {
			return fmt.Errorf("history database version %d is newer than supported version %d", version, currentVersion)
		}

		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: zap.S().Named("history").With("path", path)}, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Load returns records newest first. Undecodable records are skipped.
func (s *Store) Load() (records []history.Record, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(Buckets.History).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r history.Record
			if err := json.Unmarshal(v, &r); err != nil {
				s.log.Warnf("skipping record %x: %v: %v", k, history.ErrCorrupted, err)
				continue
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) Append(r history.Record) (bool, error) {
	r, ok := r.Existing()
	if !ok {
		s.log.Debug("not recording download with no existing files")
		return false, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.History)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		if err := bucket.Put(sequenceKey(seq), data); err != nil {
			return err
		}
		return truncate(bucket, history.MaxEntries)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// truncate deletes the oldest records until at most n remain.
func truncate(bucket *bbolt.Bucket, n int) error {
	c := bucket.Cursor()
	excess := -n
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		excess++
	}
	for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
		if err := bucket.Delete(k); err != nil {
			return err
		}
		excess--
	}
	return nil
}

func (s *Store) Truncate(n int) error {
	if n < 0 {
		n = 0
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return truncate(tx.Bucket(Buckets.History), n)
	})
}

func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.History)
		var keys [][]byte
		if err := bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		}); err != nil {
			return err
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
