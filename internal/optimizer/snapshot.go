package optimizer

import (
	"sort"

	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/unit"
)

// Snapshot is the deep-copied, partitioned view of a timetable that the
// optimizer works from (spec §4.4: "deep-copy the session list; partition
// into locked and mobile; detect coupled-TP pairs; group sessions by
// filière").
type Snapshot struct {
	Original  []domain.Session
	Locked    []*unit.Unit
	Mobile    []*unit.Unit
	ByFiliere map[string][]*unit.Unit
}

func newSnapshot(sessions []domain.Session) *Snapshot {
	original := make([]domain.Session, len(sessions))
	for i, s := range sessions {
		original[i] = s.Clone()
	}

	units := unit.BuildUnits(original)
	snap := &Snapshot{
		Original:  original,
		ByFiliere: make(map[string][]*unit.Unit),
	}
	for _, u := range units {
		if u.Locked() || u.Fixed() {
			snap.Locked = append(snap.Locked, u)
			continue
		}
		snap.Mobile = append(snap.Mobile, u)
		snap.ByFiliere[u.Filiere()] = append(snap.ByFiliere[u.Filiere()], u)
	}
	return snap
}

// AllUnits returns every unit, locked and mobile, in a stable order.
func (s *Snapshot) AllUnits() []*unit.Unit {
	all := make([]*unit.Unit, 0, len(s.Locked)+len(s.Mobile))
	all = append(all, s.Locked...)
	all = append(all, s.Mobile...)
	return all
}

// filiereOrder resolves the processing order for per-filière mode: the
// configured order if given, otherwise filières ranked by decreasing
// session count (spec §4.4 default).
func filiereOrder(snap *Snapshot, opts domain.Options) []string {
	if len(opts.FiliereOrder) > 0 {
		return opts.FiliereOrder
	}
	names := make([]string, 0, len(snap.ByFiliere))
	for name := range snap.ByFiliere {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		ci, cj := len(snap.ByFiliere[names[i]]), len(snap.ByFiliere[names[j]])
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	return names
}

// lockedUnchanged verifies that every locked unit's underlying sessions
// still sit on the same day and start time they began with (spec §4.4
// Validation, clause ii).
func lockedUnchanged(snap *Snapshot) bool {
	original := make(map[string]domain.Session, len(snap.Original))
	for _, s := range snap.Original {
		original[s.ID] = s
	}
	for _, u := range snap.Locked {
		for _, s := range u.Sessions() {
			orig, ok := original[s.ID]
			if !ok || orig.Jour != s.Jour || orig.HeureDebut != s.HeureDebut {
				return false
			}
		}
	}
	return true
}

// sessionIndex maps every underlying session id to the unit that owns it,
// so a conflict report (which names session ids) can be resolved back to
// the movable unit during the relocation pass.
func sessionIndex(units []*unit.Unit) map[string]*unit.Unit {
	idx := make(map[string]*unit.Unit, len(units)*2)
	for _, u := range units {
		for _, s := range u.Sessions() {
			idx[s.ID] = u
		}
	}
	return idx
}
