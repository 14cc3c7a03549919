package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/caevv/compactcols/internal/history"
)

const (
	// buildsBucket holds one sub-bucket per job, keyed by build number.
	buildsBucket = "builds"
	// buildIndexBucket maps build IDs to their job and number.
	buildIndexBucket = "build_index"
)

// BoltStore implements the Store interface using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store at the given path.
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(buildsBucket)); err != nil {
			return fmt.Errorf("create builds bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(buildIndexBucket)); err != nil {
			return fmt.Errorf("create build_index bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// SaveBuild persists a build, numbering it from the job bucket's sequence
// when Number is zero.
func (s *BoltStore) SaveBuild(b *history.Build) error {
	if err := validateBuild(b); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		builds := tx.Bucket([]byte(buildsBucket))
		index := tx.Bucket([]byte(buildIndexBucket))

		jobBucket, err := builds.CreateBucketIfNotExists([]byte(b.JobID))
		if err != nil {
			return fmt.Errorf("create job bucket %s: %w", b.JobID, err)
		}

		if b.Number == 0 {
			seq, err := jobBucket.NextSequence()
			if err != nil {
				return fmt.Errorf("next build number for %s: %w", b.JobID, err)
			}
			b.Number = int(seq)
		} else if uint64(b.Number) > jobBucket.Sequence() {
			if err := jobBucket.SetSequence(uint64(b.Number)); err != nil {
				return fmt.Errorf("advance build number for %s: %w", b.JobID, err)
			}
		}

		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal build: %w", err)
		}

		key := numberKey(b.Number)
		if err := jobBucket.Put(key, data); err != nil {
			return fmt.Errorf("put build in job bucket: %w", err)
		}

		// index value: 8-byte number followed by the job ID
		ref := append(key, []byte(b.JobID)...)
		if old := index.Get([]byte(b.ID)); len(old) >= 8 && !bytes.Equal(old, ref) {
			if oldJob := builds.Bucket(old[8:]); oldJob != nil {
				if err := oldJob.Delete(old[:8]); err != nil {
					return fmt.Errorf("delete moved build: %w", err)
				}
			}
		}
		if err := index.Put([]byte(b.ID), ref); err != nil {
			return fmt.Errorf("put build index: %w", err)
		}

		return nil
	})
}

// GetBuild retrieves a specific build by its ID.
func (s *BoltStore) GetBuild(id string) (*history.Build, error) {
	if id == "" {
		return nil, fmt.Errorf("build id is required")
	}

	var build *history.Build

	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket([]byte(buildIndexBucket))
		builds := tx.Bucket([]byte(buildsBucket))

		ref := index.Get([]byte(id))
		if len(ref) < 8 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		jobBucket := builds.Bucket(ref[8:])
		if jobBucket == nil {
			return fmt.Errorf("job bucket not found: %s", string(ref[8:]))
		}

		data := jobBucket.Get(ref[:8])
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		build = &history.Build{}
		if err := json.Unmarshal(data, build); err != nil {
			return fmt.Errorf("unmarshal build: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return build, nil
}

// GetJobBuilds walks the job bucket backwards from the highest number.
func (s *BoltStore) GetJobBuilds(jobID string, limit int) ([]*history.Build, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	limit = normalizeLimit(limit)

	var builds []*history.Build

	err := s.db.View(func(tx *bolt.Tx) error {
		jobBucket := tx.Bucket([]byte(buildsBucket)).Bucket([]byte(jobID))
		if jobBucket == nil {
			// No builds for this job yet
			return nil
		}

		c := jobBucket.Cursor()
		for k, v := c.Last(); k != nil && len(builds) < limit; k, v = c.Prev() {
			b := &history.Build{}
			if err := json.Unmarshal(v, b); err != nil {
				return fmt.Errorf("unmarshal build %d: %w", binary.BigEndian.Uint64(k), err)
			}
			builds = append(builds, b)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return builds, nil
}

// GetJobLandmarks walks the job bucket backwards until every landmark is
// found or the bucket is exhausted.
func (s *BoltStore) GetJobLandmarks(jobID string) ([]*history.Build, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	marks := newLandmarks()

	err := s.db.View(func(tx *bolt.Tx) error {
		jobBucket := tx.Bucket([]byte(buildsBucket)).Bucket([]byte(jobID))
		if jobBucket == nil {
			return nil
		}

		c := jobBucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			b := &history.Build{}
			if err := json.Unmarshal(v, b); err != nil {
				return fmt.Errorf("unmarshal build %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if marks.offer(b) {
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return marks.builds, nil
}

// ListJobs returns the job IDs in key order.
func (s *BoltStore) ListJobs() ([]string, error) {
	var jobs []string

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(buildsBucket)).ForEach(func(k, v []byte) error {
			// nested buckets have a nil value
			if v == nil {
				jobs = append(jobs, string(k))
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// Close releases resources held by the store.
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func numberKey(n int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(n))
	return key
}
