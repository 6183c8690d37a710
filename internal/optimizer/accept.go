package optimizer

import (
	"github.com/lectioshed/scheduler-core/internal/conflict"
	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/unit"
)

// acceptor implements the single candidate-acceptance rule shared by every
// heuristic (spec §4.4): build a candidate placement, check it against
// everything already placed, verify optional teacher constraints, and
// accept atomically only if nothing new breaks.
type acceptor struct {
	detector *conflict.Detector
	teachers map[string]*domain.TeacherConstraints
	opts     domain.Options
}

// tryMove attempts to relocate u to (day, start) against others (which
// must not include u itself). On success it mutates u in place and
// returns true; on rejection u is left untouched.
func (a *acceptor) tryMove(u *unit.Unit, day domain.Weekday, start int, others []*unit.Unit) bool {
	trial := u.Clone()
	trial.MoveTo(day, start, 0)

	if !a.withinWindow(trial) {
		return false
	}
	if a.opts.RespectConstraints && !a.teacherConstraintsAllow(trial) {
		return false
	}
	if !a.conflictFree(trial, others) {
		return false
	}

	u.MoveTo(day, start, 0)
	return true
}

func (a *acceptor) withinWindow(u *unit.Unit) bool {
	return u.Start() >= a.opts.MaxStartTime*60 && u.End() <= a.opts.MaxEndTime*60
}

func (a *acceptor) teacherConstraintsAllow(u *unit.Unit) bool {
	for _, s := range u.Sessions() {
		tc := a.teachers[s.Professeur]
		if tc != nil && !tc.Allows(s.Jour, s.HeureDebut) {
			return false
		}
	}
	return true
}

// conflictFree reports whether placing trial alongside others introduces
// any new conflict beyond whatever already exists among others alone.
// Comparing against a freshly computed baseline, rather than assuming
// others is conflict-free, keeps the rule correct even mid-pipeline when
// earlier heuristics may have left latent conflicts for the resolution
// pass to clean up later.
func (a *acceptor) conflictFree(trial *unit.Unit, others []*unit.Unit) bool {
	otherSessions := unit.ToSessions(others)
	baseline := a.detector.CheckAll(otherSessions).Total()

	combined := make([]domain.Session, 0, len(otherSessions)+2)
	combined = append(combined, otherSessions...)
	combined = append(combined, trial.Sessions()...)
	return a.detector.CheckAll(combined).Total() <= baseline
}

// without returns units with the unit at index i removed, without
// mutating units.
func without(units []*unit.Unit, i int) []*unit.Unit {
	out := make([]*unit.Unit, 0, len(units)-1)
	out = append(out, units[:i]...)
	out = append(out, units[i+1:]...)
	return out
}
