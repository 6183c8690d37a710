// Command lectioshedctl is a demonstration driver for the scheduling
// core: it loads configuration, assembles a StateStore, runs one
// optimization pass (and, when exams are present, one allocation pass),
// and prints the resulting report. It exists so the core's packages have
// a concrete caller — production callers are expected to embed the same
// packages behind their own transport.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lectioshed/scheduler-core/internal/conflict"
	"github.com/lectioshed/scheduler-core/internal/domain"
	"github.com/lectioshed/scheduler-core/internal/exam"
	"github.com/lectioshed/scheduler-core/internal/optimizer"
	"github.com/lectioshed/scheduler-core/internal/report"
	"github.com/lectioshed/scheduler-core/internal/state"
	"github.com/lectioshed/scheduler-core/pkg/cache"
	"github.com/lectioshed/scheduler-core/pkg/config"
	"github.com/lectioshed/scheduler-core/pkg/database"
	"github.com/lectioshed/scheduler-core/pkg/export"
	"github.com/lectioshed/scheduler-core/pkg/logger"
)

func main() {
	seedPath := flag.String("seed", "", "path to a JSON file seeding sessions, room configs and filière exclusions (stdin-free demo data otherwise)")
	usePostgres := flag.Bool("postgres", false, "back the StateStore with Postgres instead of an in-memory store")
	useRedis := flag.Bool("redis", false, "back undo snapshots with Redis instead of the StateStore's in-process history")
	dryRun := flag.Bool("dry-run", false, "stage the optimization result in a ProposalStore instead of committing it")
	reportCSVPath := flag.String("report-csv", "", "write the before/after improvement report as CSV to this path")
	reportPDFPath := flag.String("report-pdf", "", "write the before/after improvement report as PDF to this path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	seed, err := loadSeed(*seedPath)
	if err != nil {
		logr.Sugar().Fatalw("failed to load seed data", "error", err)
	}

	store, closeStore := buildStore(cfg, *usePostgres, seed, logr)
	defer closeStore()

	snapshots, closeSnapshots := buildSnapshotCache(cfg, *useRedis, logr)
	defer closeSnapshots()

	ctx := context.Background()
	if err := store.SetSessions(ctx, seed.Sessions); err != nil {
		logr.Sugar().Fatalw("failed to seed sessions", "error", err)
	}

	metrics := report.NewMetrics()
	proposals := optimizer.NewProposalStore(cfg.Scheduler.ProposalTTL)
	runOptimizer(ctx, store, snapshots, proposals, seed, cfg, logr, metrics, runOptions{
		dryRun:        *dryRun,
		reportCSVPath: *reportCSVPath,
		reportPDFPath: *reportPDFPath,
	})

	if len(seed.Exams) > 0 {
		runAllocator(ctx, store, seed, logr, metrics)
	}
}

// buildSnapshotCache wires an optional Redis-backed undo history behind
// the -redis flag; without it, PushUndoSnapshot's in-process history on
// the StateStore itself is the only rollback path.
func buildSnapshotCache(cfg *config.Config, useRedis bool, logr *zap.Logger) (*state.SnapshotCache, func()) {
	if !useRedis {
		return nil, func() {}
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	return state.NewSnapshotCache(client, cfg.Scheduler.SnapshotTTL), func() { _ = client.Close() }
}

// seedData is the JSON shape accepted by -seed; the demo ships with an
// empty-but-valid default so the binary runs standalone.
type seedData struct {
	Sessions   []domain.Session         `json:"sessions"`
	Exams      []domain.Exam            `json:"exams"`
	Rooms      []domain.RoomConfig      `json:"rooms"`
	Exclusions domain.ExclusionSet      `json:"exclusions"`
	Groupes    map[string][]string      `json:"matiereGroupes"`
	Teachers   map[string]*domain.TeacherConstraints `json:"teacherConstraints"`
}

func loadSeed(path string) (seedData, error) {
	if path == "" {
		return seedData{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedData{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedData
	if err := json.Unmarshal(raw, &seed); err != nil {
		return seedData{}, fmt.Errorf("parse seed file: %w", err)
	}
	return seed, nil
}

func buildStore(cfg *config.Config, usePostgres bool, seed seedData, logr *zap.Logger) (state.StateStore, func()) {
	if !usePostgres {
		return state.NewInMemoryStore(seed.Rooms, seed.Exclusions, seed.Groupes), func() {}
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	return state.NewPostgresStore(db), func() { _ = db.Close() }
}

// runOptions carries the optimize-pass flags that don't otherwise fit the
// config-derived domain.Options.
type runOptions struct {
	dryRun        bool
	reportCSVPath string
	reportPDFPath string
}

func runOptimizer(ctx context.Context, store state.StateStore, snapshots *state.SnapshotCache, proposals *optimizer.ProposalStore, seed seedData, cfg *config.Config, logr *zap.Logger, metrics *report.Metrics, run runOptions) {
	sessions, err := store.GetSessions(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to load sessions", "error", err)
	}

	exclusions, err := store.GetFiliereExclusions(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to load filière exclusions", "error", err)
	}

	detector := conflict.New(exclusions, cfg.Scheduler.TPPerSubjectPerSlot)
	before := report.ComputeStats(sessions, detector)

	opt := optimizer.New(exclusions, cfg.Scheduler.TPPerSubjectPerSlot, seed.Teachers, logr)
	opts := domain.Options{
		RemoveGaps:    true,
		BalanceLoad:   true,
		GroupSubjects: true,
		LoadTolerance: cfg.Scheduler.LoadTolerance,
		MinBreak:      cfg.Scheduler.MinBreakMinutes,
		MaxStartTime:  cfg.Scheduler.MaxStartHour,
		MaxEndTime:    cfg.Scheduler.MaxEndHour,

		ProcessByFiliere: cfg.Scheduler.ProcessByFiliere,
		FiliereOrder:     cfg.Scheduler.FiliereOrder,
		DryRun:           run.dryRun,
	}

	stageStart := time.Now()
	result := opt.Optimize(sessions, opts, func(current, total int, message string) {
		metrics.ObserveStage(message, time.Since(stageStart))
		stageStart = time.Now()
		logr.Sugar().Infow("optimization progress", "stage", current, "total", total, "message", message)
	})

	if !result.Success {
		logr.Sugar().Warnw("optimization did not reach a clean result", "error", result.Error)
	}

	after := report.ComputeStats(result.Sessions, detector)
	improvement := report.Compare(before, after)
	metrics.ObserveImprovement(improvement)

	if run.dryRun {
		proposal := optimizer.Stage(result)
		proposals.Save(proposal)
		logr.Sugar().Infow("optimization staged as a dry-run proposal", "proposalId", proposal.ID)
	} else {
		if snapshots != nil {
			if err := snapshots.Push(ctx, "pre-optimize", sessions); err != nil {
				logr.Sugar().Warnw("failed to push redis undo snapshot", "error", err)
			}
		} else if err := store.PushUndoSnapshot(ctx, "pre-optimize"); err != nil {
			logr.Sugar().Warnw("failed to push undo snapshot", "error", err)
		}
		if err := store.SetSessions(ctx, result.Sessions); err != nil {
			logr.Sugar().Fatalw("failed to persist optimized sessions", "error", err)
		}
	}

	printImprovement(improvement)

	builder := report.NewBuilder(export.NewCSVExporter(), export.NewPDFExporter())
	if run.reportCSVPath != "" {
		csv, err := builder.RenderCSV(improvement)
		if err != nil {
			logr.Sugar().Warnw("failed to render CSV report", "error", err)
		} else if err := os.WriteFile(run.reportCSVPath, csv, 0o644); err != nil {
			logr.Sugar().Warnw("failed to write CSV report", "path", run.reportCSVPath, "error", err)
		}
	}
	if run.reportPDFPath != "" {
		pdf, err := builder.RenderPDF(improvement)
		if err != nil {
			logr.Sugar().Warnw("failed to render PDF report", "error", err)
		} else if err := os.WriteFile(run.reportPDFPath, pdf, 0o644); err != nil {
			logr.Sugar().Warnw("failed to write PDF report", "path", run.reportPDFPath, "error", err)
		}
	}
}

func runAllocator(ctx context.Context, store state.StateStore, seed seedData, logr *zap.Logger, metrics *report.Metrics) {
	rooms, err := store.GetRoomConfigs(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to load room configs", "error", err)
	}

	allocator := exam.New(rooms)
	for i, target := range seed.Exams {
		others := append(append([]domain.Exam(nil), seed.Exams[:i]...), seed.Exams[i+1:]...)
		result, err := allocator.Allocate(target, others)
		if err != nil {
			metrics.ObserveAllocation("rejected", "")
			logr.Sugar().Warnw("exam allocation rejected", "exam", target.ID, "error", err)
			continue
		}
		metrics.ObserveAllocation("success", result.Strategy)
		logr.Sugar().Infow("exam allocated", "exam", target.ID, "strategy", result.Strategy,
			"assigned", result.TotalAssigned, "remaining", result.Remaining, "rooms", result.UsedRooms)
	}
}

func printImprovement(i report.Improvement) {
	fmt.Printf("conflicts: %d -> %d (%+d)\n", i.Before.Conflicts, i.After.Conflicts, i.ConflictsDelta)
	fmt.Printf("gaps:      %d -> %d (%+d)\n", i.Before.Gaps, i.After.Gaps, i.GapsDelta)
	fmt.Printf("variance:  %.2f -> %.2f (%+.2f)\n", i.Before.Variance, i.After.Variance, i.VarianceDelta)
	fmt.Printf("cluster:   %.2f -> %.2f (%+.2f)\n", i.Before.Clustering, i.After.Clustering, i.ClusteringDelta)
	fmt.Printf("score:     %.1f -> %.1f (%+.1f)\n", i.Before.Score, i.After.Score, i.ScoreDelta)
}
