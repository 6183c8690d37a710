package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

func tp(id string, day domain.Weekday, start, end int, matiere, groupe string) domain.Session {
	return domain.Session{
		ID: id, Jour: day, HeureDebut: start, HeureFin: end,
		Type: domain.SessionTP, Matiere: matiere, Groupe: groupe,
	}
}

func TestBuildUnitsPairsContiguousSameSubjectTPs(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")

	units := BuildUnits([]domain.Session{t1, t2})
	require.Len(t, units, 1)
	assert.True(t, units[0].IsPair())
	assert.Equal(t, "t1+t2", units[0].ID())
	assert.Equal(t, 480, units[0].Start())
	assert.Equal(t, 670, units[0].End())
}

func TestBuildUnitsRejectsGapTooLarge(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 610, 700, "Chem", "G1")

	units := BuildUnits([]domain.Session{t1, t2})
	require.Len(t, units, 2)
	assert.False(t, units[0].IsPair())
	assert.False(t, units[1].IsPair())
}

func TestBuildUnitsRejectsDifferentGroup(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G2")

	units := BuildUnits([]domain.Session{t1, t2})
	assert.Len(t, units, 2)
}

func TestBuildUnitsRejectsDurationMismatchBeyondThreshold(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1") // 90 min
	t2 := tp("t2", domain.Monday, 580, 650, "Chem", "G1") // 70 min, diff=20 > 15

	units := BuildUnits([]domain.Session{t1, t2})
	assert.Len(t, units, 2)
}

func TestBuildUnitsRejectsShortTP(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 510, "Chem", "G1") // 30 min < 45
	t2 := tp("t2", domain.Monday, 520, 565, "Chem", "G1")

	units := BuildUnits([]domain.Session{t1, t2})
	assert.Len(t, units, 2)
}

func TestBuildUnitsEachSessionJoinsAtMostOnePair(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	t3 := tp("t3", domain.Monday, 680, 770, "Chem", "G1")

	units := BuildUnits([]domain.Session{t1, t2, t3})
	require.Len(t, units, 2)
	pairs, singles := 0, 0
	for _, u := range units {
		if u.IsPair() {
			pairs++
		} else {
			singles++
		}
	}
	assert.Equal(t, 1, pairs)
	assert.Equal(t, 1, singles)
}

func TestBuildUnitsWrapsNonTPAsSingle(t *testing.T) {
	cm := domain.Session{ID: "cm1", Jour: domain.Tuesday, HeureDebut: 480, HeureFin: 570, Type: domain.SessionCM}
	units := BuildUnits([]domain.Session{cm})
	require.Len(t, units, 1)
	assert.False(t, units[0].IsPair())
	assert.Equal(t, "cm1", units[0].ID())
}

func TestMoveToSinglePreservesDuration(t *testing.T) {
	s := domain.Session{ID: "s1", Jour: domain.Monday, HeureDebut: 480, HeureFin: 570, Type: domain.SessionCM}
	u := Single(s)
	u.MoveTo(domain.Wednesday, 600, 15)
	assert.Equal(t, domain.Wednesday, u.Day())
	assert.Equal(t, 600, u.Start())
	assert.Equal(t, 690, u.End())
}

func TestMoveToPairShiftsBothChildrenCoherently(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	units := BuildUnits([]domain.Session{t1, t2})
	require.Len(t, units, 1)
	u := units[0]

	u.MoveTo(domain.Friday, 600, 15)
	sessions := u.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, domain.Friday, sessions[0].Jour)
	assert.Equal(t, 600, sessions[0].HeureDebut)
	assert.Equal(t, 690, sessions[0].HeureFin) // original 90-min duration preserved
	assert.Equal(t, domain.Friday, sessions[1].Jour)
	assert.Equal(t, 705, sessions[1].HeureDebut) // end1 + gap
	assert.Equal(t, 795, sessions[1].HeureFin)   // original 90-min duration preserved
}

func TestCloneIsIndependent(t *testing.T) {
	s := domain.Session{ID: "s1", Jour: domain.Monday, HeureDebut: 480, HeureFin: 570}
	u := Single(s)
	clone := u.Clone()
	clone.MoveTo(domain.Tuesday, 600, 15)

	assert.Equal(t, domain.Monday, u.Day())
	assert.Equal(t, domain.Tuesday, clone.Day())
}

func TestOverlapsChecksWholeSpanForPair(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	units := BuildUnits([]domain.Session{t1, t2})
	u := units[0]

	assert.True(t, u.Overlaps(domain.Monday, 560, 600), "overlaps tp1's tail")
	assert.True(t, u.Overlaps(domain.Monday, 600, 650), "overlaps the gap between tp1 and tp2")
	assert.False(t, u.Overlaps(domain.Monday, 670, 700), "starts exactly where the union ends")
	assert.False(t, u.Overlaps(domain.Tuesday, 500, 560), "different day")
}

func TestRepairFixesDriftedPair(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	units := BuildUnits([]domain.Session{t1, t2})
	u := units[0]

	// Simulate a heuristic that moved tp2 alone, violating contiguity.
	u.tp2.HeureDebut = 900
	u.tp2.HeureFin = 990

	repaired := Repair(units)
	assert.Equal(t, []string{u.ID()}, repaired)
	assert.Equal(t, u.tp1.HeureFin+15, u.tp2.HeureDebut)
}

func TestRepairLeavesHealthyPairsUntouched(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	units := BuildUnits([]domain.Session{t1, t2})

	repaired := Repair(units)
	assert.Empty(t, repaired)
}

func TestToSessionsFlattensInOrder(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	cm := domain.Session{ID: "cm1", Jour: domain.Tuesday, HeureDebut: 480, HeureFin: 570, Type: domain.SessionCM}

	units := BuildUnits([]domain.Session{t1, t2, cm})
	flat := ToSessions(units)
	assert.Len(t, flat, 3)
}

func TestLockedPropagatesFromEitherChild(t *testing.T) {
	t1 := tp("t1", domain.Monday, 480, 570, "Chem", "G1")
	t2 := tp("t2", domain.Monday, 580, 670, "Chem", "G1")
	t2.Locked = true

	units := BuildUnits([]domain.Session{t1, t2})
	assert.True(t, units[0].Locked())
}
