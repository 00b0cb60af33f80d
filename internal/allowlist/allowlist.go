package allowlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Store is a thread-safe set of allowed telegram user IDs persisted as a
// JSON array in a single file. Mutations rewrite the whole file through a
// temp-file rename so a crash never leaves a partial write behind.
type Store struct {
	mu   sync.RWMutex
	path string
	ids  map[int64]struct{}
	log  zerolog.Logger
}

// Open loads the allowlist at path. A missing file yields an empty store.
func Open(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path: path,
		ids:  make(map[int64]struct{}),
		log:  log,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read allowlist %s: %w", path, err)
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse allowlist %s: %w", path, err)
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}

	log.Info().Int("users", len(s.ids)).Str("path", path).Msg("allowlist loaded")
	return s, nil
}

// Contains reports whether id is in the set.
func (s *Store) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Add inserts id and persists the set. Returns false without writing when
// id is already present.
func (s *Store) Add(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false, nil
	}
	s.ids[id] = struct{}{}
	if err := s.save(); err != nil {
		delete(s.ids, id)
		return false, err
	}
	s.log.Info().Int64("user_id", id).Msg("user allowed")
	return true, nil
}

// Remove deletes id and persists the set. Returns false when id was absent.
func (s *Store) Remove(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; !ok {
		return false, nil
	}
	delete(s.ids, id)
	if err := s.save(); err != nil {
		s.ids[id] = struct{}{}
		return false, err
	}
	s.log.Info().Int64("user_id", id).Msg("user revoked")
	return true, nil
}

// List returns the IDs in ascending order.
func (s *Store) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// save writes the set atomically. Caller must hold the write lock.
func (s *Store) save() error {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal allowlist: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".allowed-*.json")
	if err != nil {
		return fmt.Errorf("create temp allowlist: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp allowlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp allowlist: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace allowlist %s: %w", s.path, err)
	}
	return nil
}
