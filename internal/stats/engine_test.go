package stats

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kweissmann/hireview/backend/internal/cache"
	"github.com/kweissmann/hireview/backend/internal/storage"
	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

const testDay = "2026-03-02"

func testFilter(recruiterID string) Filter {
	return Filter{
		RecruiterID: recruiterID,
		Day:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func newTestEngine(store storage.Store) *Engine {
	logger := zerolog.Nop()
	return NewEngine(store, cache.NewRecruiterCache(store, time.Minute), time.Second, logger)
}

func seedRecords(t *testing.T, store storage.Store, records ...types.CandidateRecord) {
	t.Helper()
	for _, r := range records {
		if err := store.SaveRecord(context.Background(), r); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}
}

// record builds a candidate on the test day
func record(id, recruiterID, client string, status types.HRStatus) types.CandidateRecord {
	return types.CandidateRecord{
		DateKey:   testDay,
		RecordID:  id,
		Client:    client,
		HRStatus:  status,
		CreatedBy: recruiterID,
		CreatedAt: "2026-03-02T09:00:00Z",
	}
}

func TestComputeAggregatesEmptySet(t *testing.T) {
	engine := newTestEngine(storage.NewMemoryStore())

	result, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalCalls != 0 || result.TotalSelected != 0 {
		t.Errorf("expected zero totals, got %d/%d", result.TotalCalls, result.TotalSelected)
	}
	if result.RecruiterCalls == nil || len(result.RecruiterCalls) != 0 {
		t.Errorf("expected empty recruiterCalls, got %v", result.RecruiterCalls)
	}
	if result.ClientCalls == nil || len(result.ClientCalls) != 0 {
		t.Errorf("expected empty clientCalls, got %v", result.ClientCalls)
	}
}

func TestComputeAggregatesDayScenario(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutRecruiter(context.Background(), types.Recruiter{RecruiterID: "R1", Name: "Dana"})
	store.PutRecruiter(context.Background(), types.Recruiter{RecruiterID: "R2", Name: "Jonas"})
	seedRecords(t, store,
		record("c1", "R1", "Acme", types.StatusSelect),
		record("c2", "R1", "Acme", types.StatusReject),
		record("c3", "R2", "Globex", types.StatusSelect),
	)
	engine := newTestEngine(store)

	result, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalCalls != 3 {
		t.Errorf("expected totalCalls 3, got %d", result.TotalCalls)
	}
	if result.TotalSelected != 2 {
		t.Errorf("expected totalSelected 2, got %d", result.TotalSelected)
	}
	if result.TotalSelected > result.TotalCalls {
		t.Error("totalSelected must never exceed totalCalls")
	}

	wantRecruiters := []types.RecruiterCalls{
		{RecruiterID: "R1", Name: "Dana", Calls: 2},
		{RecruiterID: "R2", Name: "Jonas", Calls: 1},
	}
	if !reflect.DeepEqual(result.RecruiterCalls, wantRecruiters) {
		t.Errorf("recruiterCalls = %v, want %v", result.RecruiterCalls, wantRecruiters)
	}

	wantClients := []types.ClientCalls{
		{Client: "Acme", Calls: 2},
		{Client: "Globex", Calls: 1},
	}
	if !reflect.DeepEqual(result.ClientCalls, wantClients) {
		t.Errorf("clientCalls = %v, want %v", result.ClientCalls, wantClients)
	}
}

func TestComputeAggregatesRecruiterFilter(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRecords(t, store,
		record("c1", "R1", "Acme", types.StatusSelect),
		record("c2", "R1", "Acme", types.StatusReject),
		record("c3", "R2", "Globex", types.StatusSelect),
	)
	engine := newTestEngine(store)

	result, err := engine.ComputeAggregates(context.Background(), testFilter("R1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalCalls != 2 {
		t.Errorf("expected totalCalls 2, got %d", result.TotalCalls)
	}
	if result.TotalSelected != 1 {
		t.Errorf("expected totalSelected 1, got %d", result.TotalSelected)
	}
	if len(result.RecruiterCalls) != 1 || result.RecruiterCalls[0].RecruiterID != "R1" {
		t.Errorf("expected only R1 in recruiterCalls, got %v", result.RecruiterCalls)
	}
}

func TestComputeAggregatesClientSortDescending(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRecords(t, store,
		record("c1", "R1", "Initech", types.StatusPending),
		record("c2", "R1", "Acme", types.StatusPending),
		record("c3", "R1", "Acme", types.StatusPending),
		record("c4", "R1", "Acme", types.StatusPending),
		record("c5", "R1", "Globex", types.StatusPending),
		record("c6", "R1", "Globex", types.StatusPending),
		record("c7", "R1", "Hooli", types.StatusPending),
	)
	engine := newTestEngine(store)

	result, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(result.ClientCalls); i++ {
		if result.ClientCalls[i-1].Calls < result.ClientCalls[i].Calls {
			t.Fatalf("clientCalls not sorted descending: %v", result.ClientCalls)
		}
	}

	if result.ClientCalls[0].Client != "Acme" {
		t.Errorf("expected Acme first, got %s", result.ClientCalls[0].Client)
	}

	// Initech and Hooli both have one call; the stable sort keeps
	// Initech (seen first) ahead of Hooli
	ties := result.ClientCalls[len(result.ClientCalls)-2:]
	if ties[0].Client != "Initech" || ties[1].Client != "Hooli" {
		t.Errorf("expected stable tie order Initech,Hooli, got %v", ties)
	}
}

func TestComputeAggregatesIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutRecruiter(context.Background(), types.Recruiter{RecruiterID: "R1", Name: "Dana"})
	seedRecords(t, store,
		record("c1", "R1", "Acme", types.StatusSelect),
		record("c2", "R2", "Globex", types.StatusReject),
	)
	engine := newTestEngine(store)

	first, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated computation differs: %v vs %v", first, second)
	}
}

func TestComputeAggregatesUnresolvedRecruiter(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRecords(t, store, record("c1", "R-ghost", "Acme", types.StatusSelect))
	engine := newTestEngine(store)

	result, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.RecruiterCalls) != 1 {
		t.Fatalf("expected 1 recruiter entry, got %d", len(result.RecruiterCalls))
	}
	entry := result.RecruiterCalls[0]
	if entry.RecruiterID != "R-ghost" || entry.Calls != 1 {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry.Name != "" {
		t.Errorf("unresolved recruiter must have empty name, got %q", entry.Name)
	}
}

func TestComputeAggregatesExcludesOutOfWindowTimestamps(t *testing.T) {
	store := storage.NewMemoryStore()
	stray := record("c1", "R1", "Acme", types.StatusSelect)
	stray.CreatedAt = "2026-03-05T09:00:00Z" // disagrees with its partition key
	seedRecords(t, store, stray, record("c2", "R1", "Acme", types.StatusReject))
	engine := newTestEngine(store)

	result, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalCalls != 1 {
		t.Errorf("expected stray record excluded, got totalCalls %d", result.TotalCalls)
	}
}

// failingStore fails every read
type failingStore struct {
	*storage.MemoryStore
}

func (s *failingStore) GetRecordsByDate(context.Context, string) ([]types.CandidateRecord, error) {
	return nil, errors.New("connection refused")
}

func TestComputeAggregatesStoreUnavailable(t *testing.T) {
	engine := newTestEngine(&failingStore{storage.NewMemoryStore()})

	result, err := engine.ComputeAggregates(context.Background(), testFilter(""))
	if result != nil {
		t.Error("no partial result may be returned on store failure")
	}
	if !errors.Is(err, storage.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
