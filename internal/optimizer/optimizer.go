package optimizer

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lectioshed/scheduler-core/internal/conflict"
	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/unit"
	appErrors "github.com/lectioshed/scheduler-core/pkg/errors"
)

// Result is the terminal record of one optimization run: the optimized
// sessions, before/after conflict counts, and anything the run could not
// resolve (spec §4.4 Validation).
type Result struct {
	Phase               Phase
	Success             bool
	Error               error
	Sessions            []domain.Session
	ConflictsBefore     int
	ConflictsAfter      int
	RelocationFailures  []string
	RepairedPairs       []string
	CoupledInvariantsOK bool
	CountPreserved      bool
	LockedUnchanged     bool
	DryRun              bool

	run *Run
}

// Apply is the explicit commit operation of spec §4.4: it transitions the
// run from Result to Applied. It does not itself persist anything — the
// caller is expected to write result.Sessions through a state.StateStore
// only after Apply succeeds, keeping the commit atomic from the caller's
// point of view.
func (r *Result) Apply() error {
	if err := r.run.Apply(); err != nil {
		return err
	}
	r.Phase = r.run.Phase()
	return nil
}

// Optimizer rearranges a timetable's sessions according to domain.Options,
// running the heuristic pipeline (optionally per-filière) followed by a
// conflict-resolution pass and a final validation (spec §4.4).
type Optimizer struct {
	exclusions domain.ExclusionSet
	teachers   map[string]*domain.TeacherConstraints
	detector   *conflict.Detector
	logger     *zap.Logger
	validate   *validator.Validate
}

// New builds an Optimizer. teachers may be nil; a nil logger is replaced
// with a no-op logger, matching the teacher repo's constructor convention
// of never requiring a caller to pass one.
func New(exclusions domain.ExclusionSet, tpPerSubjectPerSlot int, teachers map[string]*domain.TeacherConstraints, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if teachers == nil {
		teachers = map[string]*domain.TeacherConstraints{}
	}
	return &Optimizer{
		exclusions: exclusions,
		teachers:   teachers,
		detector:   conflict.New(exclusions, tpPerSubjectPerSlot),
		logger:     logger,
		validate:   validator.New(),
	}
}

// failResult builds a failed Result carrying err and routes run straight to
// PhaseResult, the same short-circuit (*Run).fail applies when a panic is
// recovered mid-pipeline.
func failResult(run *Run, err error) *Result {
	run.fail()
	return &Result{Phase: run.Phase(), Success: false, Error: err, run: run}
}

// Optimize runs the full pipeline over sessions and returns a Result. It
// never mutates the input slice; sessions are deep-copied at the
// Snapshotting phase. An optional ProgressFunc receives a notification at
// each stage boundary (spec §4.6).
func (o *Optimizer) Optimize(sessions []domain.Session, opts domain.Options, progress ...ProgressFunc) (result *Result) {
	var onProgress ProgressFunc
	if len(progress) > 0 {
		onProgress = progress[0]
	}

	run := NewRun()

	if len(sessions) == 0 {
		return failResult(run, appErrors.ErrNoSessions)
	}

	opts = opts.Defaulted()
	if err := o.validate.Struct(opts); err != nil {
		return failResult(run, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid options"))
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("optimizer: recovered: %v", r)
			o.logger.Error("optimization panicked", zap.Error(err))
			result = failResult(run, err)
		}
	}()

	run.advance() // Snapshotting
	emit(onProgress, 1, "snapshotting sessions")
	snap := newSnapshot(sessions)

	run.advance() // Analyzing
	emit(onProgress, 2, "analyzing conflicts")
	before := o.detector.CheckAll(unit.ToSessions(snap.AllUnits())).Total()

	run.advance() // Preparing
	emit(onProgress, 3, "preparing heuristic pipeline")
	order := filiereOrder(snap, opts)
	a := &acceptor{detector: o.detector, teachers: o.teachers, opts: opts}

	run.advance() // Optimizing
	emit(onProgress, 4, "optimizing placements")
	if opts.ProcessByFiliere && len(order) > 0 {
		placed := append([]*unit.Unit{}, snap.Locked...)
		for _, filiere := range order {
			mobile := snap.ByFiliere[filiere]
			runPipeline(mobile, placed, a, opts)
			placed = append(placed, mobile...)
		}
	} else {
		runPipeline(snap.Mobile, snap.Locked, a, opts)
	}

	allUnits := snap.AllUnits()
	failures := resolveConflicts(allUnits, a)

	run.advance() // Validating
	emit(onProgress, 5, "validating result")
	repaired := unit.Repair(allUnits)
	finalSessions := unit.ToSessions(allUnits)
	after := o.detector.CheckAll(finalSessions)

	result = &Result{
		Sessions:            finalSessions,
		ConflictsBefore:     before,
		ConflictsAfter:      after.Total(),
		RelocationFailures:  failures,
		RepairedPairs:       repaired,
		CoupledInvariantsOK: len(repaired) == 0,
		CountPreserved:      len(finalSessions) == len(snap.Original),
		LockedUnchanged:     lockedUnchanged(snap),
		DryRun:              opts.DryRun,
		run:                 run,
	}
	result.Success = after.Total() == 0 && len(failures) == 0 &&
		result.CountPreserved && result.LockedUnchanged

	run.advance() // Result
	result.Phase = run.Phase()
	emit(onProgress, 6, "optimization complete")
	o.logger.Debug("optimization complete",
		zap.Int("conflictsBefore", result.ConflictsBefore),
		zap.Int("conflictsAfter", result.ConflictsAfter),
		zap.Int("relocationFailures", len(result.RelocationFailures)),
		zap.Bool("success", result.Success),
	)
	return result
}
