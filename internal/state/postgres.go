package state

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

// PostgresStore is a StateStore backed by Postgres, adapted from the
// teacher's repository idiom (context-scoped sqlx queries, $N
// placeholders, wrapped errors naming the operation).
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an already-connected *sqlx.DB.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	ID          string        `db:"id"`
	Jour        int           `db:"jour"`
	HeureDebut  int           `db:"heure_debut"`
	HeureFin    int           `db:"heure_fin"`
	Salle       string        `db:"salle"`
	Professeur  string        `db:"professeur"`
	Enseignants pq.StringArray `db:"enseignants"`
	Matiere     string        `db:"matiere"`
	Type        string        `db:"type"`
	Groupe      string        `db:"groupe"`
	Filiere     string        `db:"filiere"`
	Locked      bool          `db:"locked"`
	Fixed       bool          `db:"fixed"`
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		ID: r.ID, Jour: domain.Weekday(r.Jour),
		HeureDebut: r.HeureDebut, HeureFin: r.HeureFin,
		Salle: r.Salle, Professeur: r.Professeur, Enseignants: []string(r.Enseignants),
		Matiere: r.Matiere, Type: domain.SessionType(r.Type),
		Groupe: r.Groupe, Filiere: r.Filiere,
		Locked: r.Locked, Fixed: r.Fixed,
	}
}

func fromDomainSession(s domain.Session) sessionRow {
	return sessionRow{
		ID: s.ID, Jour: int(s.Jour), HeureDebut: s.HeureDebut, HeureFin: s.HeureFin,
		Salle: s.Salle, Professeur: s.Professeur, Enseignants: pq.StringArray(s.Enseignants),
		Matiere: s.Matiere, Type: string(s.Type), Groupe: s.Groupe, Filiere: s.Filiere,
		Locked: s.Locked, Fixed: s.Fixed,
	}
}

// GetSessions loads every row of the sessions table.
func (p *PostgresStore) GetSessions(ctx context.Context) ([]domain.Session, error) {
	const query = `SELECT id, jour, heure_debut, heure_fin, salle, professeur, enseignants, matiere, type, groupe, filiere, locked, fixed FROM sessions`
	var rows []sessionRow
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}
	out := make([]domain.Session, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// SetSessions atomically replaces the sessions table contents inside one
// transaction (spec §6: "setSessions(sequence) -> void, atomic").
func (p *PostgresStore) SetSessions(ctx context.Context, sessions []domain.Session) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set sessions: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("set sessions: clear: %w", err)
	}

	const insert = `INSERT INTO sessions (id, jour, heure_debut, heure_fin, salle, professeur, enseignants, matiere, type, groupe, filiere, locked, fixed)
		VALUES (:id, :jour, :heure_debut, :heure_fin, :salle, :professeur, :enseignants, :matiere, :type, :groupe, :filiere, :locked, :fixed)`
	for _, s := range sessions {
		if _, err := tx.NamedExecContext(ctx, insert, fromDomainSession(s)); err != nil {
			return fmt.Errorf("set sessions: insert %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set sessions: commit: %w", err)
	}
	return nil
}

// GetExams loads every row of the exams table. Room allocations and
// subjects are persisted in separate tables, per the teacher's
// one-table-per-relation convention, and are joined by the caller if
// needed; the core itself treats Allocations/Subjects as ingestion-time
// fields (see internal/domain.Exam, whose db:"-" tags sqlx already skips).
func (p *PostgresStore) GetExams(ctx context.Context) ([]domain.Exam, error) {
	const query = `SELECT id, date, start_time, end_time, students_count, filiere FROM exams`
	var exams []domain.Exam
	if err := p.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("get exams: %w", err)
	}
	return exams, nil
}

// SetExams atomically replaces the exams table contents.
func (p *PostgresStore) SetExams(ctx context.Context, exams []domain.Exam) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set exams: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM exams`); err != nil {
		return fmt.Errorf("set exams: clear: %w", err)
	}

	const insert = `INSERT INTO exams (id, date, start_time, end_time, students_count, filiere) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, e := range exams {
		if _, err := tx.ExecContext(ctx, insert, e.ID, e.Date, e.StartTime, e.EndTime, e.StudentsCount, e.Filiere); err != nil {
			return fmt.Errorf("set exams: insert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set exams: commit: %w", err)
	}
	return nil
}

// GetRoomConfigs loads the room catalogue.
func (p *PostgresStore) GetRoomConfigs(ctx context.Context) ([]domain.RoomConfig, error) {
	const query = `SELECT room, capacity, supervisors FROM room_configs`
	var rooms []domain.RoomConfig
	if err := p.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("get room configs: %w", err)
	}
	return rooms, nil
}

// GetFiliereExclusions loads the configured exclusion pairs.
func (p *PostgresStore) GetFiliereExclusions(ctx context.Context) (domain.ExclusionSet, error) {
	const query = `SELECT filiere_a, filiere_b FROM filiere_exclusions`
	var exclusions domain.ExclusionSet
	if err := p.db.SelectContext(ctx, &exclusions, query); err != nil {
		return nil, fmt.Errorf("get filiere exclusions: %w", err)
	}
	return exclusions, nil
}

type matiereGroupeRow struct {
	Matiere string `db:"matiere"`
	Filiere string `db:"filiere"`
}

// GetMatiereGroupes loads the subject -> filières mapping.
func (p *PostgresStore) GetMatiereGroupes(ctx context.Context) (map[string][]string, error) {
	const query = `SELECT matiere, filiere FROM matiere_groupes`
	var rows []matiereGroupeRow
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("get matiere groupes: %w", err)
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.Matiere] = append(out[r.Matiere], r.Filiere)
	}
	return out, nil
}

// SaveState is a no-op for Postgres: every mutation above already commits
// within its own transaction, matching spec §6's "synchronous ... boolean
// success" without a separate flush step.
func (p *PostgresStore) SaveState(_ context.Context) (bool, error) {
	return true, nil
}

// PushUndoSnapshot copies the current sessions table into
// session_undo_snapshots under label, for later restoration.
func (p *PostgresStore) PushUndoSnapshot(ctx context.Context, label string) error {
	const query = `INSERT INTO session_undo_snapshots (label, payload, created_at)
		SELECT $1, COALESCE(json_agg(s), '[]'), now() FROM sessions s`
	if _, err := p.db.ExecContext(ctx, query, label); err != nil {
		return fmt.Errorf("push undo snapshot: %w", err)
	}
	return nil
}
