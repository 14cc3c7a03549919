package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/caevv/compactcols/internal/history"
)

// JSONStore implements the Store interface using a simple JSON file.
// All builds are kept in memory and persisted to disk on each write.
// This implementation is suitable for small-scale deployments and testing.
type JSONStore struct {
	path   string
	builds map[string]*history.Build // indexed by build ID
	next   map[string]int            // highest number per job
	mu     sync.RWMutex
}

// jsonPersistence is the on-disk format for the JSON store.
type jsonPersistence struct {
	Builds []*history.Build `json:"builds"`
}

// NewJSONStore creates a new JSON file-backed store at the given path.
func NewJSONStore(path string) (Store, error) {
	s := &JSONStore{
		path:   path,
		builds: make(map[string]*history.Build),
		next:   make(map[string]int),
	}

	// Load existing data if file exists
	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load existing data: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return s, nil
}

// load reads the JSON file and rebuilds the in-memory indexes.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var persist jsonPersistence
	if err := json.Unmarshal(data, &persist); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}

	s.builds = make(map[string]*history.Build, len(persist.Builds))
	for _, b := range persist.Builds {
		s.builds[b.ID] = b
		if b.Number > s.next[b.JobID] {
			s.next[b.JobID] = b.Number
		}
	}

	return nil
}

// save writes the in-memory map to the JSON file.
func (s *JSONStore) save() error {
	builds := make([]*history.Build, 0, len(s.builds))
	for _, b := range s.builds {
		builds = append(builds, b)
	}
	sort.Slice(builds, func(i, j int) bool {
		if builds[i].JobID != builds[j].JobID {
			return builds[i].JobID < builds[j].JobID
		}
		return builds[i].Number < builds[j].Number
	})

	persist := jsonPersistence{Builds: builds}
	data, err := json.MarshalIndent(persist, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	// Write to temp file first, then rename (atomic on POSIX)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// SaveBuild persists a build. A build that reuses another build's job and
// number replaces it.
func (s *JSONStore) SaveBuild(b *history.Build) error {
	if err := validateBuild(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Number == 0 {
		b.Number = s.next[b.JobID] + 1
	}
	if b.Number > s.next[b.JobID] {
		s.next[b.JobID] = b.Number
	}

	for id, existing := range s.builds {
		if id != b.ID && existing.JobID == b.JobID && existing.Number == b.Number {
			delete(s.builds, id)
		}
	}

	cp := *b
	s.builds[b.ID] = &cp
	return s.save()
}

// GetBuild retrieves a specific build by its ID.
func (s *JSONStore) GetBuild(id string) (*history.Build, error) {
	if id == "" {
		return nil, fmt.Errorf("build id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.builds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	cp := *b
	return &cp, nil
}

// GetJobBuilds retrieves the most recent builds of a job.
func (s *JSONStore) GetJobBuilds(jobID string, limit int) ([]*history.Build, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var builds []*history.Build
	for _, b := range s.builds {
		if b.JobID == jobID {
			cp := *b
			builds = append(builds, &cp)
		}
	}

	sort.Slice(builds, func(i, j int) bool {
		return builds[i].Number > builds[j].Number
	})

	if len(builds) > limit {
		builds = builds[:limit]
	}

	return builds, nil
}

// GetJobLandmarks retrieves the landmark builds of a job.
func (s *JSONStore) GetJobLandmarks(jobID string) ([]*history.Build, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var builds []*history.Build
	for _, b := range s.builds {
		if b.JobID == jobID {
			builds = append(builds, b)
		}
	}
	sort.Slice(builds, func(i, j int) bool {
		return builds[i].Number > builds[j].Number
	})

	marks := newLandmarks()
	for _, b := range builds {
		if marks.offer(b) {
			break
		}
	}

	for i, b := range marks.builds {
		cp := *b
		marks.builds[i] = &cp
	}
	return marks.builds, nil
}

// ListJobs returns the job IDs in lexical order.
func (s *JSONStore) ListJobs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.next))
	for jobID := range s.next {
		jobs = append(jobs, jobID)
	}
	sort.Strings(jobs)

	return jobs, nil
}

// Close releases resources held by the store.
// For JSON store, this is a no-op since we don't hold open file handles.
func (s *JSONStore) Close() error {
	return nil
}
