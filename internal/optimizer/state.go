// Package optimizer implements the Timetable Optimizer (spec §4.4): a
// pipeline of composable heuristics running over atomic placement units,
// an optional per-filière processing order, a conflict-resolution
// relocator, and the state machine governing a single optimization run.
package optimizer

// Phase is one state in the optimizer's run state machine (spec §4.4:
// "Idle -> Snapshotting -> Analyzing -> Preparing -> Optimizing ->
// Validating -> Result" plus terminal "Applied" after explicit commit).
type Phase string

const (
	PhaseIdle         Phase = "Idle"
	PhaseSnapshotting Phase = "Snapshotting"
	PhaseAnalyzing    Phase = "Analyzing"
	PhasePreparing    Phase = "Preparing"
	PhaseOptimizing   Phase = "Optimizing"
	PhaseValidating   Phase = "Validating"
	PhaseResult       Phase = "Result"
	PhaseApplied      Phase = "Applied"
)

// transitions enumerates the only allowed phase-to-phase moves. Any
// exception encountered mid-run routes directly to PhaseResult regardless
// of the current phase (spec: "transitions on exception route to Result").
var transitions = map[Phase]Phase{
	PhaseIdle:         PhaseSnapshotting,
	PhaseSnapshotting: PhaseAnalyzing,
	PhaseAnalyzing:    PhasePreparing,
	PhasePreparing:    PhaseOptimizing,
	PhaseOptimizing:   PhaseValidating,
	PhaseValidating:   PhaseResult,
	PhaseResult:       PhaseApplied,
}

// Run tracks the live state of one optimizer invocation. It is not safe
// for concurrent use by multiple goroutines; callers run one optimization
// at a time, as the teacher's proposalStore assumes for a single proposal.
type Run struct {
	phase   Phase
	history []Phase
}

// NewRun starts a run in PhaseIdle.
func NewRun() *Run {
	return &Run{phase: PhaseIdle, history: []Phase{PhaseIdle}}
}

// Phase returns the run's current phase.
func (r *Run) Phase() Phase {
	return r.phase
}

// History returns the ordered sequence of phases the run has passed
// through, for diagnostics and progress reporting.
func (r *Run) History() []Phase {
	return append([]Phase(nil), r.history...)
}

// advance moves the run to its next phase along the canonical sequence.
// It panics on a phase with no forward transition (PhaseApplied), which
// indicates a caller bug rather than a runtime condition.
func (r *Run) advance() {
	next, ok := transitions[r.phase]
	if !ok {
		panic("optimizer: no transition from phase " + string(r.phase))
	}
	r.phase = next
	r.history = append(r.history, next)
}

// fail routes the run directly to PhaseResult from wherever it is.
func (r *Run) fail() {
	if r.phase == PhaseResult || r.phase == PhaseApplied {
		return
	}
	r.phase = PhaseResult
	r.history = append(r.history, PhaseResult)
}

// Apply transitions a run sitting in PhaseResult to PhaseApplied, the
// explicit commit operation of spec §4.4. It is a no-op error for any
// other starting phase.
func (r *Run) Apply() error {
	if r.phase != PhaseResult {
		return errNotInResult
	}
	r.phase = PhaseApplied
	r.history = append(r.history, PhaseApplied)
	return nil
}
