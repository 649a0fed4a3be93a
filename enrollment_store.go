package portal

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultEnrollmentTTL bounds how long an unfinished enrollment is kept.
const DefaultEnrollmentTTL = 30 * time.Minute

// EnrollmentStore keeps two factor enrollment records between requests.
type EnrollmentStore interface {
	// Get returns ErrEnrollmentNotFound when nothing is stored for userID.
	Get(ctx context.Context, userID string) (*TwoFactorEnrollment, error)
	Save(ctx context.Context, e *TwoFactorEnrollment) error
	Delete(ctx context.Context, userID string) error
}

type memoryEnrollment struct {
	record  TwoFactorEnrollment
	expires time.Time
}

// MemoryEnrollmentStore is an in process EnrollmentStore for single instance
// deployments and tests.
type MemoryEnrollmentStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]memoryEnrollment
}

func NewMemoryEnrollmentStore(ttl time.Duration) *MemoryEnrollmentStore {
	if ttl <= 0 {
		ttl = DefaultEnrollmentTTL
	}
	return &MemoryEnrollmentStore{
		ttl:     ttl,
		now:     time.Now,
		records: map[string]memoryEnrollment{},
	}
}

// WithClock replaces the store clock, used by tests.
func (s *MemoryEnrollmentStore) WithClock(now func() time.Time) *MemoryEnrollmentStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *MemoryEnrollmentStore) Get(_ context.Context, userID string) (*TwoFactorEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrEnrollmentNotFound
	}
	if !s.now().Before(rec.expires) {
		delete(s.records, userID)
		return nil, ErrEnrollmentNotFound
	}

	out := rec.record
	out.BackupCodes = slices.Clone(rec.record.BackupCodes)
	return &out, nil
}

func (s *MemoryEnrollmentStore) Save(_ context.Context, e *TwoFactorEnrollment) error {
	if e == nil || e.UserID == "" {
		return ErrEnrollmentNotFound
	}

	rec := *e
	rec.BackupCodes = slices.Clone(e.BackupCodes)

	s.mu.Lock()
	s.records[e.UserID] = memoryEnrollment{record: rec, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryEnrollmentStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.records, userID)
	s.mu.Unlock()
	return nil
}
