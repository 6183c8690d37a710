package optimizer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Proposal is a dry-run Result staged for a later explicit apply, keyed by
// an opaque id the caller generates at ingestion (e.g. uuid.NewString()).
type Proposal struct {
	ID          string
	Result      *Result
	RequestedAt time.Time
}

// Stage wraps result in a Proposal with a freshly generated id, ready to
// hand to Save. It is the entry point a -dry-run caller uses instead of
// committing result straight to a state.StateStore.
func Stage(result *Result) Proposal {
	return Proposal{ID: uuid.NewString(), Result: result, RequestedAt: time.Now()}
}

// ProposalStore holds dry-run proposals pending an explicit apply, evicting
// entries older than its TTL on lookup. Adapted from the teacher's
// proposalStore (mutex-guarded map, TTL checked in Get) — it gives the
// optimizer's Result→Applied transition a place to stage a result that
// hasn't been committed yet.
type ProposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]Proposal
}

// NewProposalStore builds a ProposalStore with the given TTL. A
// non-positive ttl defaults to 30 minutes, mirroring the teacher's
// newProposalStore default.
func NewProposalStore(ttl time.Duration) *ProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ProposalStore{
		ttl:   ttl,
		items: make(map[string]Proposal),
	}
}

// Save stages a proposal, stamping RequestedAt if unset.
func (s *ProposalStore) Save(p Proposal) {
	if p.RequestedAt.IsZero() {
		p.RequestedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ID] = p
}

// Get returns the proposal for id if present and not yet expired.
func (s *ProposalStore) Get(id string) (Proposal, bool) {
	s.mu.RLock()
	p, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return Proposal{}, false
	}
	if time.Since(p.RequestedAt) > s.ttl {
		s.Delete(id)
		return Proposal{}, false
	}
	return p, true
}

// Delete removes a proposal regardless of its expiry state.
func (s *ProposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
