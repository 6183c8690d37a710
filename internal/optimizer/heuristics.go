package optimizer

import (
	"math"
	"sort"

	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/unit"
)

func othersFor(mobile, locked []*unit.Unit, i int) []*unit.Unit {
	others := make([]*unit.Unit, 0, len(mobile)+len(locked)-1)
	others = append(others, locked...)
	others = append(others, without(mobile, i)...)
	return others
}

// groupBySubject migrates same-subject units toward the day the subject
// already appears on most often (spec §4.4 step 1).
func groupBySubject(mobile, locked []*unit.Unit, a *acceptor) {
	bySubject := make(map[string][]int)
	for i, u := range mobile {
		if u.Locked() {
			continue
		}
		bySubject[u.Matiere()] = append(bySubject[u.Matiere()], i)
	}

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		indices := bySubject[subject]
		if len(indices) < 2 {
			continue
		}
		modal := modalDay(mobile, indices)
		for _, i := range indices {
			u := mobile[i]
			if u.Day() == modal {
				continue
			}
			a.tryMove(u, modal, u.Start(), othersFor(mobile, locked, i))
		}
	}
}

func modalDay(units []*unit.Unit, indices []int) domain.Weekday {
	counts := make(map[domain.Weekday]int)
	for _, i := range indices {
		counts[units[i].Day()]++
	}
	best, bestCount := domain.Monday, -1
	for _, d := range domain.Weekdays {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

type loadBucket struct {
	day   domain.Weekday
	group string
}

// balanceDailyLoad relocates units from overloaded (day, group) buckets to
// compatible underloaded buckets of the same group (spec §4.4 step 2).
func balanceDailyLoad(mobile, locked []*unit.Unit, a *acceptor, tolerance float64) {
	loadMinutes := make(map[loadBucket]int)
	allUnits := append(append([]*unit.Unit{}, locked...), mobile...)
	for _, u := range allUnits {
		b := loadBucket{day: u.Day(), group: u.Groupe()}
		loadMinutes[b] += u.Duration()
	}

	byGroup := make(map[string][]domain.Weekday)
	for b := range loadMinutes {
		byGroup[b.group] = append(byGroup[b.group], b.day)
	}
	groups := make([]string, 0, len(byGroup))
	for group := range byGroup {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		days := byGroup[group]
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		if len(days) < 2 {
			continue
		}
		total := 0
		for _, d := range days {
			total += loadMinutes[loadBucket{day: d, group: group}]
		}
		average := float64(total) / float64(len(days))
		threshold := tolerance * average

		for _, overDay := range days {
			overLoad := float64(loadMinutes[loadBucket{day: overDay, group: group}])
			if overLoad <= average+threshold {
				continue
			}
			movedIdx := findMovableInBucket(mobile, overDay, group)
			if movedIdx < 0 {
				continue
			}
			for _, underDay := range days {
				if underDay == overDay {
					continue
				}
				underLoad := float64(loadMinutes[loadBucket{day: underDay, group: group}])
				if underLoad >= average-threshold {
					continue
				}
				u := mobile[movedIdx]
				if a.tryMove(u, underDay, u.Start(), othersFor(mobile, locked, movedIdx)) {
					loadMinutes[loadBucket{day: overDay, group: group}] -= u.Duration()
					loadMinutes[loadBucket{day: underDay, group: group}] += u.Duration()
					break
				}
			}
		}
	}
}

func findMovableInBucket(mobile []*unit.Unit, day domain.Weekday, group string) int {
	for i, u := range mobile {
		if u.Locked() {
			continue
		}
		if u.Day() == day && u.Groupe() == group {
			return i
		}
	}
	return -1
}

// preferredTimeSlots moves each unit toward its session type's configured
// half-day target (spec §4.4 step 3).
func preferredTimeSlots(mobile, locked []*unit.Unit, a *acceptor, opts domain.Options) {
	for i, u := range mobile {
		if u.Locked() {
			continue
		}
		pref := opts.SlotFor(u.Type())
		target, ok := targetStart(pref, opts)
		if !ok {
			continue
		}
		if target+u.Duration() > opts.MaxEndTime*60 {
			continue
		}
		if u.Start() == target {
			continue
		}
		a.tryMove(u, u.Day(), target, othersFor(mobile, locked, i))
	}
}

func targetStart(pref domain.SlotPreference, opts domain.Options) (int, bool) {
	switch pref {
	case domain.SlotMorning:
		return opts.MaxStartTime * 60, true
	case domain.SlotAfternoon:
		return 14 * 60, true
	case domain.SlotEvening:
		return 18 * 60, true
	default:
		return 0, false
	}
}

// removeGaps sweeps each (day, group) timeline, packing non-locked units
// back-to-back with minBreak between them (spec §4.4 step 4).
func removeGaps(mobile, locked []*unit.Unit, a *acceptor, minBreak int) {
	buckets := make(map[loadBucket][]int)
	for i, u := range mobile {
		if u.Locked() {
			continue
		}
		b := loadBucket{day: u.Day(), group: u.Groupe()}
		buckets[b] = append(buckets[b], i)
	}

	keys := make([]loadBucket, 0, len(buckets))
	for b := range buckets {
		keys = append(keys, b)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].group < keys[j].group
	})

	for _, key := range keys {
		indices := buckets[key]
		sort.SliceStable(indices, func(i, j int) bool {
			return mobile[indices[i]].Start() < mobile[indices[j]].Start()
		})
		cursor := mobile[indices[0]].Start()
		for _, i := range indices {
			u := mobile[i]
			if a.tryMove(u, u.Day(), cursor, othersFor(mobile, locked, i)) {
				cursor = u.End() + minBreak
				continue
			}
			cursor = u.End() + minBreak
		}
	}
}

type slotBucket struct {
	day  domain.Weekday
	slot domain.HalfDaySlot
}

// balanceSlotDistribution evens out how many units land in each half-day
// slot per day, leaving TP units (whose slot is already pinned by
// preferredTimeSlots) untouched (spec §4.4 step 5).
func balanceSlotDistribution(mobile, locked []*unit.Unit, a *acceptor) {
	counts := make(map[slotBucket]int)
	days := make(map[domain.Weekday]bool)
	allUnits := append(append([]*unit.Unit{}, locked...), mobile...)
	for _, u := range allUnits {
		counts[slotBucket{day: u.Day(), slot: domain.SlotFor(u.Start())}]++
		days[u.Day()] = true
	}
	if len(days) == 0 {
		return
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	target := int(math.Round(float64(total) / float64(len(days))))
	if target < 1 {
		target = 1
	}

	for i, u := range mobile {
		if u.Locked() || u.Type() == domain.SessionTP {
			continue
		}
		cell := slotBucket{day: u.Day(), slot: domain.SlotFor(u.Start())}
		if counts[cell] <= target {
			continue
		}
		for _, slot := range []domain.HalfDaySlot{domain.Morning, domain.Afternoon, domain.Evening} {
			if slot == cell.slot {
				continue
			}
			under := slotBucket{day: u.Day(), slot: slot}
			if counts[under] >= target {
				continue
			}
			start, ok := slotStart(slot, u.Duration())
			if !ok {
				continue
			}
			if a.tryMove(u, u.Day(), start, othersFor(mobile, locked, i)) {
				counts[cell]--
				counts[under]++
				break
			}
		}
	}
}

func slotStart(slot domain.HalfDaySlot, duration int) (int, bool) {
	switch slot {
	case domain.Morning:
		return 8 * 60, true
	case domain.Afternoon:
		return 14 * 60, true
	case domain.Evening:
		return 18 * 60, true
	default:
		return 0, false
	}
}

// runPipeline applies the five heuristics in the fixed order of spec §4.4
// against one (mobile, locked) partition.
func runPipeline(mobile, locked []*unit.Unit, a *acceptor, opts domain.Options) {
	if opts.GroupSubjects {
		groupBySubject(mobile, locked, a)
	}
	if opts.BalanceLoad {
		balanceDailyLoad(mobile, locked, a, opts.LoadTolerance)
	}
	if opts.PreferredSlots {
		preferredTimeSlots(mobile, locked, a, opts)
	}
	if opts.RemoveGaps {
		removeGaps(mobile, locked, a, opts.MinBreak)
	}
	if opts.BalanceSlotDistribution {
		balanceSlotDistribution(mobile, locked, a)
	}
}
