// Package exam implements the Exam Allocator (spec §4.5): given a target
// exam and its siblings, it validates subject/filière exclusivity, builds
// the candidate room pool, and selects a room subset through an escalating
// chain of strategies (single best-fit, subset-sum DP for small pools,
// greedy+refinement, bounded bitmask fallback for large pools).
package exam

import (
	"sort"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/lectioshed/scheduler-core/pkg/errors"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

const (
	greedyRefinementK  = 16
	dpMaxRooms         = 50
	dpMaxTotalCapacity = 10000
	bitmaskFallbackN   = 15
)

// AllocationResult is the outcome of a successful allocation.
type AllocationResult struct {
	Allocations   []domain.RoomAllocation
	TotalAssigned int
	Remaining     int
	UsedRooms     []string
	Strategy      string
}

// Allocator selects room assignments for exams given a fixed room
// catalogue.
type Allocator struct {
	Rooms    []domain.RoomConfig
	validate *validator.Validate
}

// New builds an Allocator over the given room catalogue.
func New(rooms []domain.RoomConfig) *Allocator {
	return &Allocator{Rooms: rooms, validate: validator.New()}
}

// Allocate runs the full allocation pipeline of spec §4.5 for target
// against others (every other exam currently scheduled).
func (a *Allocator) Allocate(target domain.Exam, others []domain.Exam) (*AllocationResult, error) {
	if err := a.validateInput(target); err != nil {
		return nil, err
	}
	if err := checkSubjectDuplication(target, others); err != nil {
		return nil, err
	}
	if err := checkFiliereConflict(target, others); err != nil {
		return nil, err
	}

	pool := a.roomPool(target, others)
	if len(pool) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoRoomsAvailable, "no candidate rooms available for this exam")
	}

	needed := target.StudentsCount - target.TotalAssigned()
	chosen, strategy, ok := selectRooms(pool, needed)
	if !ok {
		// Pool capacity falls short of needed: spec §8 boundary behavior
		// says fill everything available and report remaining>0, not an
		// error — no_rooms_available is reserved for an empty candidate
		// pool, already handled above.
		chosen, strategy = pool, strategyGreedy
	}

	result := fill(chosen, needed)
	result.Strategy = strategy
	return result, nil
}

// validateInput enforces the struct tags on target and on the allocator's
// own room catalogue, the same validator.Struct/appErrors.Wrap idiom the
// rest of the core uses for request validation.
func (a *Allocator) validateInput(target domain.Exam) error {
	v := a.validate
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(target); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid exam")
	}
	for _, r := range a.Rooms {
		if err := v.Struct(r); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid room config")
		}
	}
	return nil
}

func checkSubjectDuplication(target domain.Exam, others []domain.Exam) error {
	for _, other := range others {
		if other.ID == target.ID {
			continue
		}
		if !sharesFiliere(target, other) {
			continue
		}
		if target.SharesSubject(other) {
			return appErrors.Clone(appErrors.ErrSubjectDuplicate, "subject already scheduled in exam "+other.ID)
		}
	}
	return nil
}

func checkFiliereConflict(target domain.Exam, others []domain.Exam) error {
	for _, other := range others {
		if other.ID == target.ID {
			continue
		}
		if !target.Overlaps(other) {
			continue
		}
		if target.Filiere != "" && target.Filiere == other.Filiere {
			return appErrors.Clone(appErrors.ErrFiliereConflict, "filiere already scheduled in overlapping exam "+other.ID)
		}
	}
	return nil
}

func sharesFiliere(target, other domain.Exam) bool {
	return target.Filiere != "" && target.Filiere == other.Filiere
}

// roomPool returns every configured room with positive capacity that is
// not used by any other exam overlapping target in time.
func (a *Allocator) roomPool(target domain.Exam, others []domain.Exam) []domain.RoomConfig {
	occupied := make(map[string]bool)
	for _, other := range others {
		if other.ID == target.ID || !target.Overlaps(other) {
			continue
		}
		for _, alloc := range other.Allocations {
			occupied[alloc.Room] = true
		}
	}

	pool := make([]domain.RoomConfig, 0, len(a.Rooms))
	for _, r := range a.Rooms {
		if r.Capacity <= 0 || occupied[r.Room] {
			continue
		}
		pool = append(pool, r)
	}
	return pool
}

func fill(chosen []domain.RoomConfig, needed int) *AllocationResult {
	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].Capacity > chosen[j].Capacity })

	result := &AllocationResult{
		Allocations: make([]domain.RoomAllocation, 0, len(chosen)),
		UsedRooms:   make([]string, 0, len(chosen)),
	}
	remaining := needed
	for _, room := range chosen {
		assigned := room.Capacity
		if assigned > remaining {
			assigned = remaining
		}
		result.Allocations = append(result.Allocations, domain.RoomAllocation{
			Room:     room.Room,
			Capacity: room.Capacity,
			Assigned: assigned,
		})
		result.UsedRooms = append(result.UsedRooms, room.Room)
		result.TotalAssigned += assigned
		remaining -= assigned
	}
	result.Remaining = needed - result.TotalAssigned
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result
}
