package api

import (
	"sync"
	"time"

	"github.com/samcharles93/cubetile/internal/tiling"
)

// planKey identifies a request. The planner is deterministic, so equal
// keys always produce equal descriptors.
type planKey struct {
	target  string
	problem tiling.Problem
}

type TilingStore struct {
	mu      sync.Mutex
	records map[string]*TilingRecord
	byKey   map[planKey]string
}

func NewTilingStore() *TilingStore {
	return &TilingStore{
		records: make(map[string]*TilingRecord),
		byKey:   make(map[planKey]string),
	}
}

// Create stores a new record for the request. If an identical request was
// stored first, that record is returned with Cached set and d is dropped.
func (s *TilingStore) Create(t tiling.Target, p tiling.Problem, d tiling.Descriptor, f tiling.Footprints, now time.Time) TilingRecord {
	key := planKey{target: t.Name, problem: p}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		rec := *s.records[id]
		rec.Cached = true
		return rec
	}
	rec := &TilingRecord{
		ID:         newTilingID(),
		Object:     "tiling",
		CreatedAt:  now.Unix(),
		Target:     t.Name,
		Problem:    p,
		Descriptor: d,
		Footprints: f,
	}
	s.records[rec.ID] = rec
	s.byKey[key] = rec.ID
	return *rec
}

// Cached returns the record of an earlier identical request.
func (s *TilingStore) Cached(targetName string, p tiling.Problem) (TilingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[planKey{target: targetName, problem: p}]
	if !ok {
		return TilingRecord{}, false
	}
	rec := *s.records[id]
	rec.Cached = true
	return rec, true
}

func (s *TilingStore) Get(id string) (TilingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return TilingRecord{}, false
	}
	return *rec, true
}

func (s *TilingStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	delete(s.records, id)
	key := planKey{target: rec.Target, problem: rec.Problem}
	if s.byKey[key] == id {
		delete(s.byKey, key)
	}
	return true
}

func (s *TilingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
