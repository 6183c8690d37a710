package optimizer

import (
	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/unit"
)

// resolveConflicts is the relocator of spec §4.4: for every unit still
// involved in a conflict after the heuristic pipeline, scan (day,
// startMinute) combinations in lexicographic order and accept the first
// conflict-free placement. Units with no escape are left in place and
// reported as failures.
func resolveConflicts(allUnits []*unit.Unit, a *acceptor) []string {
	idx := sessionIndex(allUnits)
	conflicted := conflictingUnits(allUnits, idx, a)

	var failures []string
	for _, i := range conflicted {
		u := allUnits[i]
		if u.Locked() || u.Fixed() {
			continue
		}
		if relocate(u, othersFor(allUnits, nil, i), a) {
			continue
		}
		failures = append(failures, u.ID())
	}
	return failures
}

func conflictingUnits(allUnits []*unit.Unit, idx map[string]*unit.Unit, a *acceptor) []int {
	sessions := unit.ToSessions(allUnits)
	report := a.detector.CheckAll(sessions)

	flagged := make(map[string]bool)
	addBoth := func(ida, idb string) {
		flagged[ida] = true
		flagged[idb] = true
	}
	for _, c := range report.Rooms {
		addBoth(c.A, c.B)
	}
	for _, c := range report.Teachers {
		addBoth(c.A, c.B)
	}
	for _, c := range report.Groups {
		addBoth(c.A, c.B)
	}
	for _, c := range report.Filieres {
		addBoth(c.A, c.B)
	}
	for _, c := range report.SubjectTP {
		addBoth(c.A, c.B)
	}

	unitIDs := make(map[string]bool)
	for sessionID := range flagged {
		if u, ok := idx[sessionID]; ok {
			unitIDs[u.ID()] = true
		}
	}

	var indices []int
	for i, u := range allUnits {
		if unitIDs[u.ID()] {
			indices = append(indices, i)
		}
	}
	return indices
}

func relocate(u *unit.Unit, others []*unit.Unit, a *acceptor) bool {
	duration := u.Duration()
	for _, day := range domain.Weekdays {
		for start := a.opts.MaxStartTime * 60; start+duration <= a.opts.MaxEndTime*60; start += 15 {
			if a.tryMove(u, day, start, others) {
				return true
			}
		}
	}
	return false
}
