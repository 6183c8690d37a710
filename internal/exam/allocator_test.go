package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lectioshed/scheduler-core/pkg/errors"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

var day1 = time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)

func exam(id string, start, end, students int, filiere string, subjects ...string) domain.Exam {
	return domain.Exam{
		ID: id, Date: day1, StartTime: start, EndTime: end,
		StudentsCount: students, Filiere: filiere, Subjects: subjects,
	}
}

func room(name string, capacity int) domain.RoomConfig {
	return domain.RoomConfig{Room: name, Capacity: capacity, Supervisors: 1}
}

func TestAllocateRejectsSubjectDuplicateWithinSameFiliere(t *testing.T) {
	target := exam("e1", 480, 600, 30, "CS", "Algorithms")
	other := exam("e2", 900, 1020, 20, "CS", "Algorithms")

	a := New([]domain.RoomConfig{room("R1", 50)})
	_, err := a.Allocate(target, []domain.Exam{other})

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSubjectDuplicate))
}

func TestAllocateIgnoresSubjectDuplicateAcrossDifferentFiliere(t *testing.T) {
	target := exam("e1", 480, 600, 30, "CS", "Algorithms")
	other := exam("e2", 900, 1020, 20, "Math", "Algorithms")

	a := New([]domain.RoomConfig{room("R1", 50)})
	result, err := a.Allocate(target, []domain.Exam{other})

	require.NoError(t, err)
	assert.Equal(t, 30, result.TotalAssigned)
}

func TestAllocateRejectsOverlappingFiliereConflict(t *testing.T) {
	target := exam("e1", 480, 600, 30, "CS")
	other := exam("e2", 540, 660, 20, "CS")

	a := New([]domain.RoomConfig{room("R1", 50)})
	_, err := a.Allocate(target, []domain.Exam{other})

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrFiliereConflict))
}

func TestAllocateAllowsSameFiliereWhenNotOverlapping(t *testing.T) {
	target := exam("e1", 480, 600, 30, "CS")
	other := exam("e2", 900, 1020, 20, "CS")

	a := New([]domain.RoomConfig{room("R1", 50)})
	_, err := a.Allocate(target, []domain.Exam{other})

	assert.NoError(t, err)
}

func TestRoomPoolExcludesRoomsHeldByOverlappingExam(t *testing.T) {
	other := exam("e2", 540, 600, 10, "Math")
	other.Allocations = []domain.RoomAllocation{{Room: "R1", Capacity: 50, Assigned: 10}}

	a := &Allocator{Rooms: []domain.RoomConfig{room("R1", 50), room("R2", 50)}}
	pool := a.roomPool(exam("e1", 480, 600, 10, "CS"), []domain.Exam{other})

	require.Len(t, pool, 1)
	assert.Equal(t, "R2", pool[0].Room)
}

func TestAllocateErrorsWhenCandidatePoolIsEmpty(t *testing.T) {
	target := exam("e1", 480, 600, 10, "CS")
	a := New([]domain.RoomConfig{room("A", 0)})

	_, err := a.Allocate(target, nil)

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoRoomsAvailable))
}

func TestRoomPoolIgnoresZeroCapacityRooms(t *testing.T) {
	a := &Allocator{Rooms: []domain.RoomConfig{room("R1", 0), room("R2", 40)}}
	pool := a.roomPool(exam("e1", 480, 600, 10, "CS"), nil)

	require.Len(t, pool, 1)
	assert.Equal(t, "R2", pool[0].Room)
}

func TestAllocateSingleBestFit(t *testing.T) {
	target := exam("e1", 480, 600, 30, "CS")
	a := New([]domain.RoomConfig{room("Small", 35), room("Big", 200), room("TooSmall", 20)})

	result, err := a.Allocate(target, nil)

	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, "Small", result.Allocations[0].Room)
	assert.Equal(t, 30, result.TotalAssigned)
	assert.Equal(t, 0, result.Remaining)
}

func TestAllocateGreedyWhenNoSingleRoomFits(t *testing.T) {
	target := exam("e1", 480, 600, 90, "CS")
	a := New([]domain.RoomConfig{room("A", 40), room("B", 35), room("C", 30), room("D", 10)})

	result, err := a.Allocate(target, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.TotalAssigned, 90)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, result.UsedRooms)
}

func TestAllocateFillsEverythingWhenTotalCapacityInsufficient(t *testing.T) {
	target := exam("e1", 480, 600, 1000, "CS")
	a := New([]domain.RoomConfig{room("A", 40), room("B", 35)})

	result, err := a.Allocate(target, nil)

	require.NoError(t, err)
	assert.Equal(t, 75, result.TotalAssigned)
	assert.Equal(t, 925, result.Remaining)
}

func TestSelectRoomsPrefersExactSubsetOverGreedyWaste(t *testing.T) {
	pool := []domain.RoomConfig{room("A", 40), room("B", 35), room("C", 10), room("D", 5)}

	chosen, _, ok := selectRooms(pool, 45)

	require.True(t, ok)
	sum := 0
	for _, r := range chosen {
		sum += r.Capacity
	}
	assert.Equal(t, 45, sum, "an exact 45-sum pair exists; DP should find it instead of the 75-sum greedy pick")
}

func TestSelectRoomsSubsetSumDPFindsMinimalSum(t *testing.T) {
	// No single room reaches 30 alone, but 18+12 hits it exactly — DP
	// must find that exact combination rather than settling for greedy's
	// larger (possibly wasteful) accumulation.
	pool := []domain.RoomConfig{room("A", 18), room("B", 12), room("C", 9), room("D", 5), room("E", 7)}

	chosen, _, ok := selectRooms(pool, 30)

	require.True(t, ok)
	sum := 0
	for _, r := range chosen {
		sum += r.Capacity
	}
	assert.Equal(t, 30, sum)
}

func TestFillAssignsDescendingByCapacity(t *testing.T) {
	chosen := []domain.RoomConfig{room("Small", 10), room("Big", 50)}
	result := fill(chosen, 40)

	require.Len(t, result.Allocations, 2)
	assert.Equal(t, "Big", result.Allocations[0].Room)
	assert.Equal(t, 40, result.Allocations[0].Assigned)
	assert.Equal(t, "Small", result.Allocations[1].Room)
	assert.Equal(t, 0, result.Allocations[1].Assigned)
	assert.Equal(t, 40, result.TotalAssigned)
	assert.Equal(t, 0, result.Remaining)
}

func TestAllocateIsDeterministic(t *testing.T) {
	target := exam("e1", 480, 600, 90, "CS")
	rooms := []domain.RoomConfig{room("A", 40), room("B", 35), room("C", 30), room("D", 10)}

	r1, err1 := New(rooms).Allocate(target, nil)
	r2, err2 := New(rooms).Allocate(target, nil)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1.Allocations, r2.Allocations)
}

func TestSeedScenarioBestFitExactEightyStudents(t *testing.T) {
	target := exam("e1", 480, 600, 80, "")
	rooms := []domain.RoomConfig{room("A", 100), room("B", 50), room("C", 40), room("D", 200)}

	result, err := New(rooms).Allocate(target, nil)

	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, "A", result.Allocations[0].Room)
	assert.Equal(t, 80, result.Allocations[0].Assigned)
	assert.Equal(t, 0, result.Remaining)
}

func TestSeedScenarioSubsetSumOneHundredTwenty(t *testing.T) {
	target := exam("e1", 480, 600, 120, "")
	rooms := []domain.RoomConfig{room("A", 70), room("B", 60), room("C", 50), room("D", 40)}

	result, err := New(rooms).Allocate(target, nil)

	require.NoError(t, err)
	assert.Equal(t, 120, result.TotalAssigned)
	assert.Equal(t, 0, result.Remaining)
	assert.ElementsMatch(t, []string{"A", "C"}, result.UsedRooms)
}

func TestAllocateZeroStudentsNeedsNoRooms(t *testing.T) {
	target := exam("e1", 480, 600, 0, "")
	result, err := New([]domain.RoomConfig{room("A", 50)}).Allocate(target, nil)

	require.NoError(t, err)
	assert.Empty(t, result.Allocations)
	assert.Equal(t, 0, result.Remaining)
}

func TestAllocateOverCapacityFillsEverythingAndReportsRemaining(t *testing.T) {
	target := exam("e1", 480, 600, 500, "")
	rooms := []domain.RoomConfig{room("A", 100), room("B", 50)}

	result, err := New(rooms).Allocate(target, nil)

	require.NoError(t, err)
	assert.Equal(t, 150, result.TotalAssigned)
	assert.Equal(t, 350, result.Remaining)
	assert.ElementsMatch(t, []string{"A", "B"}, result.UsedRooms)
}

func TestBitmaskFallbackUsedForLargeRoomCatalogues(t *testing.T) {
	rooms := make([]domain.RoomConfig, 0, 60)
	for i := 0; i < 60; i++ {
		rooms = append(rooms, room(string(rune('a'+i%26))+string(rune('0'+i/26)), (i%7)+3))
	}
	target := exam("e1", 480, 600, 150, "CS")

	result, err := New(rooms).Allocate(target, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.TotalAssigned, 150)
}
