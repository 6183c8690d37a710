package exam

import (
	"sort"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

// Strategy names recorded on AllocationResult, for the
// exam_allocation_strategy_total metric (internal/report).
const (
	strategyBestFit  = "single_best_fit"
	strategyDP       = "subset_sum_dp"
	strategyRefined  = "greedy_refined"
	strategyFallback = "bitmask_fallback"
	strategyGreedy   = "greedy"
)

// selectRooms picks a room subset able to seat `needed` students out of
// pool, escalating through strategies of increasing cost (spec §4.5 step
// 4). Returns ok=false only when the pool's total capacity cannot reach
// needed at all — at that point no strategy could possibly succeed.
func selectRooms(pool []domain.RoomConfig, needed int) ([]domain.RoomConfig, string, bool) {
	if needed <= 0 {
		return []domain.RoomConfig{}, strategyBestFit, true
	}

	sorted := append([]domain.RoomConfig(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Capacity > sorted[j].Capacity })

	if room, ok := singleBestFit(sorted, needed); ok {
		return []domain.RoomConfig{room}, strategyBestFit, true
	}

	total := 0
	for _, r := range sorted {
		total += r.Capacity
	}
	if total < needed {
		return nil, "", false
	}

	n := len(sorted)
	smallEnoughForDP := n <= dpMaxRooms && total <= dpMaxTotalCapacity
	if smallEnoughForDP {
		if subset, ok := subsetSumDP(sorted, needed); ok {
			return subset, strategyDP, true
		}
	}

	greedySet, greedySum := greedyAccumulate(sorted, needed)
	if refined, ok := refineWithBitmask(sorted, needed, greedySum, min(greedyRefinementK, n)); ok {
		return refined, strategyRefined, true
	}

	if !smallEnoughForDP {
		if fallback, ok := bitmaskFallback(sorted, needed); ok {
			return fallback, strategyFallback, true
		}
	}

	return greedySet, strategyGreedy, true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// singleBestFit returns the smallest room whose capacity alone covers
// needed.
func singleBestFit(sorted []domain.RoomConfig, needed int) (domain.RoomConfig, bool) {
	var best domain.RoomConfig
	found := false
	for _, r := range sorted {
		if r.Capacity < needed {
			continue
		}
		if !found || r.Capacity < best.Capacity {
			best, found = r, true
		}
	}
	return best, found
}

// greedyAccumulate takes rooms largest-first until the running sum meets
// needed.
func greedyAccumulate(sorted []domain.RoomConfig, needed int) ([]domain.RoomConfig, int) {
	var set []domain.RoomConfig
	sum := 0
	for _, r := range sorted {
		if sum >= needed {
			break
		}
		set = append(set, r)
		sum += r.Capacity
	}
	return set, sum
}

// refineWithBitmask searches the top k rooms (by capacity) for a subset
// strictly better than greedySum.
func refineWithBitmask(sorted []domain.RoomConfig, needed, greedySum, k int) ([]domain.RoomConfig, bool) {
	if k <= 0 || k > len(sorted) {
		k = len(sorted)
	}
	top := sorted[:k]
	bestSum := greedySum
	var bestSubset []domain.RoomConfig

	for mask := 1; mask < (1 << uint(k)); mask++ {
		sum := 0
		for i := 0; i < k; i++ {
			if mask&(1<<uint(i)) != 0 {
				sum += top[i].Capacity
			}
		}
		if sum < needed || sum >= bestSum {
			continue
		}
		bestSum = sum
		subset := make([]domain.RoomConfig, 0, k)
		for i := 0; i < k; i++ {
			if mask&(1<<uint(i)) != 0 {
				subset = append(subset, top[i])
			}
		}
		bestSubset = subset
	}
	return bestSubset, bestSubset != nil
}

// bitmaskFallback enumerates every subset of the top 15 rooms by capacity,
// used when the problem is too large for exact DP, and picks the minimum
// sum meeting needed. It only reports success when such a subset exists
// within those 15 rooms; the caller already holds a greedy solution over
// the full pool to fall back to otherwise, so there is no case here where
// settling for an under-capacity "best effort" subset would help.
func bitmaskFallback(sorted []domain.RoomConfig, needed int) ([]domain.RoomConfig, bool) {
	k := bitmaskFallbackN
	if k > len(sorted) {
		k = len(sorted)
	}
	top := sorted[:k]

	bestSum := -1
	var bestSubset []domain.RoomConfig

	for mask := 1; mask < (1 << uint(k)); mask++ {
		sum := 0
		subset := make([]domain.RoomConfig, 0, k)
		for i := 0; i < k; i++ {
			if mask&(1<<uint(i)) != 0 {
				sum += top[i].Capacity
				subset = append(subset, top[i])
			}
		}
		if sum >= needed && (bestSum == -1 || sum < bestSum) {
			bestSum, bestSubset = sum, subset
		}
	}
	return bestSubset, bestSubset != nil
}

// subsetSumDP finds the smallest achievable sum >= needed via 0/1
// knapsack-style dynamic programming over room capacities, reconstructing
// the chosen subset from the DP table (spec §4.5 step 4, bullet 3).
func subsetSumDP(sorted []domain.RoomConfig, needed int) ([]domain.RoomConfig, bool) {
	total := 0
	for _, r := range sorted {
		total += r.Capacity
	}
	if total < needed {
		return nil, false
	}

	n := len(sorted)
	dp := make([][]bool, n+1)
	for i := range dp {
		dp[i] = make([]bool, total+1)
	}
	dp[0][0] = true
	for i := 1; i <= n; i++ {
		capacity := sorted[i-1].Capacity
		for s := 0; s <= total; s++ {
			dp[i][s] = dp[i-1][s]
			if !dp[i][s] && s >= capacity && dp[i-1][s-capacity] {
				dp[i][s] = true
			}
		}
	}

	best := -1
	for s := needed; s <= total; s++ {
		if dp[n][s] {
			best = s
			break
		}
	}
	if best == -1 {
		return nil, false
	}

	var subset []domain.RoomConfig
	s := best
	for i := n; i >= 1; i-- {
		if !dp[i-1][s] {
			subset = append(subset, sorted[i-1])
			s -= sorted[i-1].Capacity
		}
	}
	for l, r := 0, len(subset)-1; l < r; l, r = l+1, r-1 {
		subset[l], subset[r] = subset[r], subset[l]
	}
	return subset, true
}
