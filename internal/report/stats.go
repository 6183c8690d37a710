// Package report implements Progress & Reporting (spec §4.6): before/after
// statistics over a session list, the global score formula, and CSV/PDF
// rendering of the resulting improvement record.
package report

import (
	"sort"

	"github.com/lectioshed/scheduler-core/internal/conflict"
	"github.com/lectioshed/scheduler-core/internal/domain"
)

// Stats is one side (before or after) of an improvement comparison.
type Stats struct {
	Conflicts  int
	Gaps       int
	Variance   float64
	Clustering float64
	Score      float64
}

// ComputeStats derives the five §4.6 metrics for sessions against
// detector.
func ComputeStats(sessions []domain.Session, detector *conflict.Detector) Stats {
	s := Stats{
		Conflicts:  detector.CheckAll(sessions).Total(),
		Gaps:       countGaps(sessions),
		Variance:   dailyLoadVariance(sessions),
		Clustering: subjectClustering(sessions),
	}
	s.Score = globalScore(s.Conflicts, s.Gaps, s.Variance, s.Clustering)
	return s
}

// globalScore implements spec §4.6's formula, clamped to [0, 100].
func globalScore(conflicts, gaps int, variance, clustering float64) float64 {
	score := 100 - 10*float64(conflicts) - 5*float64(gaps) - 2*variance + 20*clustering
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type timelineKey struct {
	day   domain.Weekday
	group string
}

// countGaps sums the idle gaps left between consecutive sessions within
// each (day, group) timeline — exactly what the removeGaps heuristic
// targets (internal/optimizer/heuristics.go).
func countGaps(sessions []domain.Session) int {
	byTimeline := make(map[timelineKey][]domain.Session)
	for _, s := range sessions {
		if !s.Valid() {
			continue
		}
		k := timelineKey{day: s.Jour, group: s.Groupe}
		byTimeline[k] = append(byTimeline[k], s)
	}

	gaps := 0
	for _, timeline := range byTimeline {
		sort.Slice(timeline, func(i, j int) bool { return timeline[i].HeureDebut < timeline[j].HeureDebut })
		for i := 1; i < len(timeline); i++ {
			if timeline[i].HeureDebut > timeline[i-1].HeureFin {
				gaps++
			}
		}
	}
	return gaps
}

// dailyLoadVariance is the average, across groups, of the population
// variance (in hours²) of that group's per-day session-minute load — the
// same notion of "load" balanceDailyLoad evens out.
func dailyLoadVariance(sessions []domain.Session) float64 {
	loadMinutes := make(map[string]map[domain.Weekday]int)
	for _, s := range sessions {
		if !s.Valid() {
			continue
		}
		if loadMinutes[s.Groupe] == nil {
			loadMinutes[s.Groupe] = make(map[domain.Weekday]int)
		}
		loadMinutes[s.Groupe][s.Jour] += s.Duration()
	}
	if len(loadMinutes) == 0 {
		return 0
	}

	totalVariance := 0.0
	for _, byDay := range loadMinutes {
		if len(byDay) < 2 {
			continue
		}
		sum := 0
		for _, m := range byDay {
			sum += m
		}
		mean := float64(sum) / float64(len(byDay))
		sq := 0.0
		for _, m := range byDay {
			diff := float64(m) - mean
			sq += diff * diff
		}
		variance := sq / float64(len(byDay))
		totalVariance += variance / (60 * 60) // minutes² -> hours²
	}
	return totalVariance / float64(len(loadMinutes))
}

// subjectClustering scores, per subject, the fraction of its sessions that
// land on that subject's most common day, averaged across subjects — a
// 0..1 measure of how well groupBySubject has concentrated each subject.
func subjectClustering(sessions []domain.Session) float64 {
	bySubject := make(map[string][]domain.Session)
	for _, s := range sessions {
		if !s.Valid() {
			continue
		}
		bySubject[s.Matiere] = append(bySubject[s.Matiere], s)
	}
	if len(bySubject) == 0 {
		return 0
	}

	total := 0.0
	for _, group := range bySubject {
		counts := make(map[domain.Weekday]int)
		for _, s := range group {
			counts[s.Jour]++
		}
		modal := 0
		for _, c := range counts {
			if c > modal {
				modal = c
			}
		}
		total += float64(modal) / float64(len(group))
	}
	return total / float64(len(bySubject))
}
