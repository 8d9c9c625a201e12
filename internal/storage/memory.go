package storage

import (
	"context"
	"sync"

	"github.com/kweissmann/hireview/backend/internal/types"
)

// MemoryStore is an in-memory Store for local development and tests.
// Records are kept in insertion order per date key.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string][]types.CandidateRecord // dateKey -> records
	recruiters map[string]types.Recruiter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[string][]types.CandidateRecord),
		recruiters: make(map[string]types.Recruiter),
	}
}

func (s *MemoryStore) SaveRecord(_ context.Context, record types.CandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DateKey] = append(s.records[record.DateKey], record)
	return nil
}

func (s *MemoryStore) PutRecruiter(_ context.Context, recruiter types.Recruiter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recruiters[recruiter.RecruiterID] = recruiter
	return nil
}

func (s *MemoryStore) GetRecordsByDate(_ context.Context, dateKey string) ([]types.CandidateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Copy so callers get a stable snapshot
	records := make([]types.CandidateRecord, len(s.records[dateKey]))
	copy(records, s.records[dateKey])
	return records, nil
}

func (s *MemoryStore) LookupRecruiter(_ context.Context, recruiterID string) (types.Recruiter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recruiter, ok := s.recruiters[recruiterID]
	return recruiter, ok, nil
}

func (s *MemoryStore) TruncateAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string][]types.CandidateRecord)
	s.recruiters = make(map[string]types.Recruiter)
	return nil
}
