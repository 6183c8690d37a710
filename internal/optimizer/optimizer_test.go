package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

func cm(id string, day domain.Weekday, start, end int, room, prof, group, filiere, matiere string) domain.Session {
	return domain.Session{
		ID: id, Jour: day, HeureDebut: start, HeureFin: end,
		Salle: room, Professeur: prof, Groupe: group, Filiere: filiere,
		Matiere: matiere, Type: domain.SessionCM,
	}
}

func TestRunPhaseTransitionsInOrder(t *testing.T) {
	r := NewRun()
	assert.Equal(t, PhaseIdle, r.Phase())
	r.advance()
	assert.Equal(t, PhaseSnapshotting, r.Phase())
	r.advance()
	assert.Equal(t, PhaseAnalyzing, r.Phase())
	r.advance()
	assert.Equal(t, PhasePreparing, r.Phase())
	r.advance()
	assert.Equal(t, PhaseOptimizing, r.Phase())
	r.advance()
	assert.Equal(t, PhaseValidating, r.Phase())
	r.advance()
	assert.Equal(t, PhaseResult, r.Phase())
}

func TestRunApplyOnlyFromResult(t *testing.T) {
	r := NewRun()
	assert.Error(t, r.Apply())
	for r.Phase() != PhaseResult {
		r.advance()
	}
	require.NoError(t, r.Apply())
	assert.Equal(t, PhaseApplied, r.Phase())
}

func TestOptimizeWithNoHeuristicsIsANoOp(t *testing.T) {
	sessions := []domain.Session{
		cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math"),
	}
	opt := New(nil, 1, nil, nil)
	result := opt.Optimize(sessions, domain.Options{})

	assert.Equal(t, PhaseResult, result.Phase)
	assert.True(t, result.Success)
	assert.True(t, result.CountPreserved)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, 480, result.Sessions[0].HeureDebut)
}

func TestOptimizeRemovesGapsWithinGroup(t *testing.T) {
	sessions := []domain.Session{
		cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math"),
		cm("b", domain.Monday, 660, 750, "R2", "p2", "G1", "F1", "Phys"),
	}
	opts := domain.DefaultOptions()
	opts.RemoveGaps = true
	opt := New(nil, 1, nil, nil)
	result := opt.Optimize(sessions, opts)

	require.Len(t, result.Sessions, 2)
	byID := map[string]domain.Session{}
	for _, s := range result.Sessions {
		byID[s.ID] = s
	}
	assert.Equal(t, 480, byID["a"].HeureDebut)
	assert.Equal(t, 585, byID["b"].HeureDebut, "b should follow a with the default 15-minute break")
}

func TestOptimizeLeavesLockedSessionsUntouched(t *testing.T) {
	locked := cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math")
	locked.Locked = true
	mobile := cm("b", domain.Monday, 480, 570, "R1", "p2", "G2", "F2", "Phys")

	opts := domain.DefaultOptions()
	opts.RemoveGaps = true
	opt := New(nil, 1, nil, nil)
	result := opt.Optimize([]domain.Session{locked, mobile}, opts)

	assert.True(t, result.LockedUnchanged)
	var gotLocked domain.Session
	for _, s := range result.Sessions {
		if s.ID == "a" {
			gotLocked = s
		}
	}
	assert.Equal(t, 480, gotLocked.HeureDebut)
}

func TestOptimizeResolvesRoomConflictViaRelocation(t *testing.T) {
	a := cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math")
	a.Locked = true
	b := cm("b", domain.Monday, 480, 570, "R1", "p2", "G2", "F2", "Phys")

	opts := domain.DefaultOptions()
	opt := New(nil, 1, nil, nil)
	result := opt.Optimize([]domain.Session{a, b}, opts)

	assert.Equal(t, 0, result.ConflictsAfter)
	assert.Empty(t, result.RelocationFailures)
}

func TestOptimizeApplyTransitionsToApplied(t *testing.T) {
	sessions := []domain.Session{cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math")}
	opt := New(nil, 1, nil, nil)
	result := opt.Optimize(sessions, domain.Options{})

	require.NoError(t, result.Apply())
	assert.Equal(t, PhaseApplied, result.Phase)
}

func TestOptimizeEmitsProgressAtEachStageBoundary(t *testing.T) {
	sessions := []domain.Session{cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math")}
	opt := New(nil, 1, nil, nil)

	var seen []int
	opt.Optimize(sessions, domain.Options{}, func(current, total int, message string) {
		assert.Equal(t, totalPhases, total)
		assert.NotEmpty(t, message)
		seen = append(seen, current)
	})

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, seen)
}

func TestOptimizeIsDeterministic(t *testing.T) {
	sessions := []domain.Session{
		cm("a", domain.Monday, 480, 570, "R1", "p1", "G1", "F1", "Math"),
		cm("b", domain.Monday, 660, 750, "R2", "p2", "G1", "F1", "Phys"),
	}
	opts := domain.DefaultOptions()
	opts.RemoveGaps = true

	opt1 := New(nil, 1, nil, nil)
	r1 := opt1.Optimize(sessions, opts)
	opt2 := New(nil, 1, nil, nil)
	r2 := opt2.Optimize(sessions, opts)

	assert.Equal(t, r1.Sessions, r2.Sessions)
}
