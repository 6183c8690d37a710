// Package unit implements the Atomic Unit Model (spec §4.3): a single
// session or a coupled TP pair, wrapped so every placement heuristic moves
// either as one indivisible step. This is the tagged-variant design from
// Design Note §9 (`Unit = Single(Session) | Pair(Session, Session)`) rather
// than the flat-list-plus-repair approach, eliminating the class of bug
// where one half of a pair moves without the other.
package unit

import (
	"sort"

	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/timeutil"
)

const (
	minPairGap    = 0
	maxPairGap    = 30
	minTPDuration = 45
	maxDurDiff    = 15
	repairGap     = 15
)

// Unit is a movable placement: either a single session or a coupled TP
// pair that must always move together.
type Unit struct {
	paired bool
	single domain.Session
	tp1    domain.Session
	tp2    domain.Session
}

// Single wraps one ordinary session.
func Single(s domain.Session) *Unit {
	return &Unit{single: s}
}

// NewPair wraps two sessions already known to satisfy the coupling
// predicate. tp1 must be the earlier session.
func NewPair(tp1, tp2 domain.Session) *Unit {
	return &Unit{paired: true, tp1: tp1, tp2: tp2}
}

// IsPair reports whether u wraps a coupled TP pair.
func (u *Unit) IsPair() bool {
	return u.paired
}

// ID returns a stable identity: the session id for a single unit, or the
// concatenation of both child ids for a pair.
func (u *Unit) ID() string {
	if u.paired {
		return u.tp1.ID + "+" + u.tp2.ID
	}
	return u.single.ID
}

// Day returns the unit's weekday.
func (u *Unit) Day() domain.Weekday {
	if u.paired {
		return u.tp1.Jour
	}
	return u.single.Jour
}

// Start returns the unit's start, in minutes since midnight.
func (u *Unit) Start() int {
	if u.paired {
		return u.tp1.HeureDebut
	}
	return u.single.HeureDebut
}

// End returns the unit's end, in minutes since midnight.
func (u *Unit) End() int {
	if u.paired {
		return u.tp2.HeureFin
	}
	return u.single.HeureFin
}

// Duration is the unit's total span, End - Start (for a pair, this
// includes the inter-session gap).
func (u *Unit) Duration() int {
	return u.End() - u.Start()
}

// Locked reports whether the unit must not be moved: a pair is locked if
// either child is locked (spec §3: "locked = tp1.locked ∨ tp2.locked").
func (u *Unit) Locked() bool {
	if u.paired {
		return u.tp1.Locked || u.tp2.Locked
	}
	return u.single.Locked
}

// Fixed reports whether the unit is immovable by policy.
func (u *Unit) Fixed() bool {
	if u.paired {
		return u.tp1.Fixed || u.tp2.Fixed
	}
	return u.single.Fixed
}

// Type returns the session type driving slot preference: TP for a pair,
// the single session's type otherwise.
func (u *Unit) Type() domain.SessionType {
	if u.paired {
		return domain.SessionTP
	}
	return u.single.Type
}

// Filiere returns the unit's filière.
func (u *Unit) Filiere() string {
	if u.paired {
		return u.tp1.Filiere
	}
	return u.single.Filiere
}

// Groupe returns the unit's group.
func (u *Unit) Groupe() string {
	if u.paired {
		return u.tp1.Groupe
	}
	return u.single.Groupe
}

// Matiere returns the unit's subject.
func (u *Unit) Matiere() string {
	if u.paired {
		return u.tp1.Matiere
	}
	return u.single.Matiere
}

// Sessions flattens the unit back to its underlying one or two sessions.
func (u *Unit) Sessions() []domain.Session {
	if u.paired {
		return []domain.Session{u.tp1, u.tp2}
	}
	return []domain.Session{u.single}
}

// Overlaps tests the candidate window [start, end) on day against the
// unit's whole span — for a pair, against the union interval
// [start(tp1), end(tp2)], per spec §4.3.
func (u *Unit) Overlaps(day domain.Weekday, start, end int) bool {
	if day != u.Day() {
		return false
	}
	return timeutil.TimesOverlap(start, end, u.Start(), u.End())
}

// Clone returns a deep copy, safe to mutate (e.g. for candidate-placement
// testing) without affecting u.
func (u *Unit) Clone() *Unit {
	clone := *u
	clone.single = u.single.Clone()
	clone.tp1 = u.tp1.Clone()
	clone.tp2 = u.tp2.Clone()
	return &clone
}

// MoveTo shifts the unit to start at startMinutes on day. For a pair, tp1
// is placed first, tp2 follows at end(tp1)+gap; both children keep their
// original durations (spec §4.3). gap<=0 defaults to 15.
func (u *Unit) MoveTo(day domain.Weekday, startMinutes, gap int) {
	if gap <= 0 {
		gap = repairGap
	}
	if !u.paired {
		dur := u.single.Duration()
		u.single.Jour = day
		u.single.HeureDebut = startMinutes
		u.single.HeureFin = startMinutes + dur
		return
	}
	dur1 := u.tp1.Duration()
	dur2 := u.tp2.Duration()
	u.tp1.Jour = day
	u.tp1.HeureDebut = startMinutes
	u.tp1.HeureFin = startMinutes + dur1
	start2 := u.tp1.HeureFin + gap
	u.tp2.Jour = day
	u.tp2.HeureDebut = start2
	u.tp2.HeureFin = start2 + dur2
}

// qualifies reports whether t1 (earlier) and t2 (later) satisfy the
// CoupledTPUnit predicate of spec §3.
func qualifies(t1, t2 domain.Session) bool {
	if t1.Jour != t2.Jour || t1.Matiere != t2.Matiere || t1.Groupe != t2.Groupe {
		return false
	}
	gap := t2.HeureDebut - t1.HeureFin
	if gap < minPairGap || gap > maxPairGap {
		return false
	}
	d1, d2 := t1.Duration(), t2.Duration()
	if d1 < minTPDuration || d2 < minTPDuration {
		return false
	}
	diff := d1 - d2
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxDurDiff
}

// BuildUnits runs the detection pass of spec §4.3: scans TP sessions for
// qualifying pairs (earliest-start-first greedy matching, each session
// joining at most one pair) and wraps every remaining session — TP or
// otherwise — as a Single unit.
func BuildUnits(sessions []domain.Session) []*Unit {
	tps := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Type == domain.SessionTP {
			tps = append(tps, s)
		}
	}
	sort.SliceStable(tps, func(i, j int) bool {
		if tps[i].Jour != tps[j].Jour {
			return tps[i].Jour < tps[j].Jour
		}
		return tps[i].HeureDebut < tps[j].HeureDebut
	})

	used := make(map[string]bool, len(tps))
	units := make([]*Unit, 0, len(sessions))

	for i := range tps {
		t1 := tps[i]
		if used[t1.ID] {
			continue
		}
		for j := i + 1; j < len(tps); j++ {
			t2 := tps[j]
			if used[t2.ID] {
				continue
			}
			if !qualifies(t1, t2) {
				continue
			}
			used[t1.ID] = true
			used[t2.ID] = true
			units = append(units, NewPair(t1, t2))
			break
		}
	}

	for _, s := range sessions {
		if used[s.ID] {
			continue
		}
		units = append(units, Single(s))
	}
	return units
}

// Repair is the deterministic repair pass of spec §4.3: for every paired
// unit whose children drifted apart (different day, or gap outside
// [0,30]), pin tp2 to start 15 minutes after tp1 ends, on tp1's day, and
// recompute its end. Returns the ids of units it had to repair.
func Repair(units []*Unit) []string {
	var repaired []string
	for _, u := range units {
		if !u.paired {
			continue
		}
		gap := u.tp2.HeureDebut - u.tp1.HeureFin
		if u.tp1.Jour == u.tp2.Jour && gap >= minPairGap && gap <= maxPairGap {
			continue
		}
		dur2 := u.tp2.Duration()
		u.tp2.Jour = u.tp1.Jour
		u.tp2.HeureDebut = u.tp1.HeureFin + repairGap
		u.tp2.HeureFin = u.tp2.HeureDebut + dur2
		repaired = append(repaired, u.ID())
	}
	return repaired
}

// ToSessions flattens a slice of units back into a flat session list, in
// unit order (pairs contribute tp1 then tp2).
func ToSessions(units []*Unit) []domain.Session {
	out := make([]domain.Session, 0, len(units)*2)
	for _, u := range units {
		out = append(out, u.Sessions()...)
	}
	return out
}
