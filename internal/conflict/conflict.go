// Package conflict implements the pairwise and global conflict evaluation
// of spec §4.2: given a candidate session (or the whole timetable) it
// reports room, teacher, group, filière-exclusion, and TP-per-subject-per-
// slot conflicts, deduplicated by (pair, kind, discriminator) so repeated
// checks over the same pair never inflate the total.
package conflict

import (
	"fmt"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

// Kind names the dimension a Conflict was raised on.
type Kind string

const (
	KindRoom      Kind = "room"
	KindTeacher   Kind = "teacher"
	KindGroup     Kind = "group"
	KindFiliere   Kind = "filiere"
	KindSubjectTP Kind = "subjectTP"
)

// Conflict is one detected collision between two sessions.
type Conflict struct {
	Kind          Kind
	A, B          string
	Discriminator string
}

func key(a, b string, kind Kind, discriminator string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s|%s|%s|%s", a, b, kind, discriminator)
}

// Report is the structured result of a conflict evaluation. Callers that
// only need a boolean answer should check Total() == 0 rather than
// inspecting individual slices, to stay correct under future kinds.
type Report struct {
	Rooms     []Conflict
	Teachers  []Conflict
	Groups    []Conflict
	Filieres  []Conflict
	SubjectTP []Conflict

	seen map[string]bool
}

func newReport() *Report {
	return &Report{seen: make(map[string]bool)}
}

func (r *Report) add(kind Kind, a, b, discriminator string) {
	k := key(a, b, kind, discriminator)
	if r.seen[k] {
		return
	}
	r.seen[k] = true
	c := Conflict{Kind: kind, A: a, B: b, Discriminator: discriminator}
	switch kind {
	case KindRoom:
		r.Rooms = append(r.Rooms, c)
	case KindTeacher:
		r.Teachers = append(r.Teachers, c)
	case KindGroup:
		r.Groups = append(r.Groups, c)
	case KindFiliere:
		r.Filieres = append(r.Filieres, c)
	case KindSubjectTP:
		r.SubjectTP = append(r.SubjectTP, c)
	}
}

// Total returns the deduplicated conflict count across all kinds.
func (r *Report) Total() int {
	return len(r.seen)
}

// HasAny reports whether any conflict was recorded, short-circuiting
// callers that only need a boolean (spec §4.2: "Callers that only need a
// boolean answer short-circuit on the first key emitted").
func (r *Report) HasAny() bool {
	return len(r.seen) > 0
}

// Detector evaluates conflicts over flat session lists. Atomic units
// (internal/unit) flatten to their underlying sessions before reaching the
// detector; the detector itself has no notion of coupling.
type Detector struct {
	Exclusions          domain.ExclusionSet
	TPPerSubjectPerSlot int
}

// New builds a Detector with the given exclusion set and TP-per-slot cap
// (spec default: 1).
func New(exclusions domain.ExclusionSet, tpPerSubjectPerSlot int) *Detector {
	if tpPerSubjectPerSlot <= 0 {
		tpPerSubjectPerSlot = 1
	}
	return &Detector{Exclusions: exclusions, TPPerSubjectPerSlot: tpPerSubjectPerSlot}
}

// CheckCandidate evaluates candidate against others, excluding any session
// with the same ID as candidate (self-comparison). Malformed entries
// (HeureDebut >= HeureFin, i.e. "missing times") are treated as non-
// overlapping and thus conflict-free, per spec §4.2 error behavior.
func (d *Detector) CheckCandidate(candidate domain.Session, others []domain.Session) *Report {
	report := newReport()
	for _, other := range others {
		if other.ID == candidate.ID {
			continue
		}
		d.pair(candidate, other, report)
	}
	d.tpSlotCheck(append([]domain.Session{candidate}, others...), report)
	return report
}

// CheckAll evaluates every pair in sessions, for post-heuristic validation
// ("zero remaining conflicts").
func (d *Detector) CheckAll(sessions []domain.Session) *Report {
	report := newReport()
	for i := 0; i < len(sessions); i++ {
		for j := i + 1; j < len(sessions); j++ {
			d.pair(sessions[i], sessions[j], report)
		}
	}
	d.tpSlotCheck(sessions, report)
	return report
}

func (d *Detector) pair(a, b domain.Session, report *Report) {
	if a.Jour != b.Jour {
		return
	}
	if !isWellFormed(a) || !isWellFormed(b) {
		return
	}
	if a.HeureDebut >= a.HeureFin || b.HeureDebut >= b.HeureFin {
		return
	}
	if a.HeureDebut >= b.HeureFin || b.HeureDebut >= a.HeureFin {
		return
	}

	// Room conflict: TPs are exempt by policy (spec §4.2.1).
	if a.Salle != "" && a.Salle == b.Salle && a.Type != domain.SessionTP && b.Type != domain.SessionTP {
		report.add(KindRoom, a.ID, b.ID, a.Salle)
	}

	if sharesTeacher(a, b) {
		report.add(KindTeacher, a.ID, b.ID, commonTeacher(a, b))
	}

	if a.Groupe != "" && a.Groupe == b.Groupe {
		report.add(KindGroup, a.ID, b.ID, a.Groupe)
	}

	if d.Exclusions.Excluded(a.Filiere, b.Filiere) {
		report.add(KindFiliere, a.ID, b.ID, a.Filiere+"/"+b.Filiere)
	}
}

func isWellFormed(s domain.Session) bool {
	return s.HeureDebut >= 0 && s.HeureFin > 0
}

func sharesTeacher(a, b domain.Session) bool {
	return commonTeacher(a, b) != ""
}

func commonTeacher(a, b domain.Session) string {
	if a.Professeur != "" && a.Professeur == b.Professeur {
		return a.Professeur
	}
	for _, t1 := range a.Enseignants {
		if t1 == "" {
			continue
		}
		if t1 == b.Professeur {
			return t1
		}
		for _, t2 := range b.Enseignants {
			if t1 == t2 {
				return t1
			}
		}
	}
	return ""
}

// tpSlotCheck flags sessions beyond the TP-per-subject-per-half-day cap.
// Each excess session is reported against the first session observed in its
// (day, slot, subject) bucket, which is a stable, order-independent
// discriminator for deduplication.
func (d *Detector) tpSlotCheck(sessions []domain.Session, report *Report) {
	type bucketKey struct {
		day     domain.Weekday
		slot    domain.HalfDaySlot
		matiere string
	}
	seenID := make(map[string]bool, len(sessions))
	buckets := make(map[bucketKey][]domain.Session)
	order := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Type != domain.SessionTP || !isWellFormed(s) {
			continue
		}
		if seenID[s.ID] {
			continue
		}
		seenID[s.ID] = true
		order = append(order, s)
	}
	for _, s := range order {
		bk := bucketKey{day: s.Jour, slot: domain.SlotFor(s.HeureDebut), matiere: s.Matiere}
		buckets[bk] = append(buckets[bk], s)
	}
	for bk, bucket := range buckets {
		if len(bucket) <= d.TPPerSubjectPerSlot {
			continue
		}
		first := bucket[0]
		discriminator := fmt.Sprintf("%s:%s:%s", bk.day, bk.slot, bk.matiere)
		for _, s := range bucket[d.TPPerSubjectPerSlot:] {
			report.add(KindSubjectTP, first.ID, s.ID, discriminator)
		}
	}
}
