package storage

import (
	"context"
	"errors"

	"github.com/kweissmann/hireview/backend/internal/types"
)

// ErrStoreUnavailable indicates the record store could not be reached or
// timed out. Aggregation callers surface it as a generic server error.
var ErrStoreUnavailable = errors.New("record store unavailable")

// Store defines the record store interface. The stats pipeline only uses
// the read side; the intake endpoints use the write side.
type Store interface {
	// SaveRecord persists a candidate record
	SaveRecord(ctx context.Context, record types.CandidateRecord) error

	// PutRecruiter upserts recruiter display metadata
	PutRecruiter(ctx context.Context, recruiter types.Recruiter) error

	// GetRecordsByDate returns all candidate records created on the given
	// calendar day (dateKey is YYYY-MM-DD in the server timezone)
	GetRecordsByDate(ctx context.Context, dateKey string) ([]types.CandidateRecord, error)

	// LookupRecruiter resolves recruiter metadata. The second return value
	// reports whether the recruiter exists; a missing recruiter is not an
	// error.
	LookupRecruiter(ctx context.Context, recruiterID string) (types.Recruiter, bool, error)

	// TruncateAll deletes all stored records and recruiters
	TruncateAll(ctx context.Context) error
}
