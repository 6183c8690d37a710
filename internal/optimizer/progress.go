package optimizer

// ProgressFunc receives a {current, total, message} progress notification
// at each stage boundary of Optimize (spec §4.6, §6 "emitted signals").
// The optimizer never assumes a transport — callers wire this into
// whatever sink they use (log line, websocket frame, channel).
type ProgressFunc func(current, total int, message string)

// totalPhases is the number of stage-boundary advances Optimize performs,
// used as the denominator for progress notifications (Snapshotting through
// Result).
const totalPhases = 6

func emit(fn ProgressFunc, current int, message string) {
	if fn == nil {
		return
	}
	fn(current, totalPhases, message)
}
