package state

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

func newPostgresMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresStoreGetSessions(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	rows := sqlmock.NewRows([]string{"id", "jour", "heure_debut", "heure_fin", "salle", "professeur", "enseignants", "matiere", "type", "groupe", "filiere", "locked", "fixed"}).
		AddRow("s1", int(domain.Monday), 480, 570, "A1", "Dr. Alami", "{}", "Math", "CM", "G1", "F1", false, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, jour, heure_debut, heure_fin, salle, professeur, enseignants, matiere, type, groupe, filiere, locked, fixed FROM sessions")).
		WillReturnRows(rows)

	sessions, err := store.GetSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, domain.Monday, sessions[0].Jour)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetSessionsIsTransactional(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.SetSessions(context.Background(), []domain.Session{
		{ID: "s1", Jour: domain.Monday, HeureDebut: 480, HeureFin: 570, Salle: "A1", Matiere: "Math", Type: domain.SessionCM, Groupe: "G1", Filiere: "F1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetSessionsRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sessions").WillReturnError(assertErr{})
	mock.ExpectRollback()

	err := store.SetSessions(context.Background(), []domain.Session{{ID: "s1"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetRoomConfigs(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	rows := sqlmock.NewRows([]string{"room", "capacity", "supervisors"}).AddRow("A1", 100, 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT room, capacity, supervisors FROM room_configs")).WillReturnRows(rows)

	rooms, err := store.GetRoomConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 100, rooms[0].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetFiliereExclusions(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	rows := sqlmock.NewRows([]string{"filiere_a", "filiere_b"}).AddRow("F1", "F2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT filiere_a, filiere_b FROM filiere_exclusions")).WillReturnRows(rows)

	exclusions, err := store.GetFiliereExclusions(context.Background())
	require.NoError(t, err)
	assert.True(t, exclusions.Excluded("F1", "F2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetMatiereGroupesAggregatesByMatiere(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	rows := sqlmock.NewRows([]string{"matiere", "filiere"}).
		AddRow("Math", "F1").
		AddRow("Math", "F2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT matiere, filiere FROM matiere_groupes")).WillReturnRows(rows)

	groupes, err := store.GetMatiereGroupes(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"F1", "F2"}, groupes["Math"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSaveStateAlwaysSucceeds(t *testing.T) {
	db, _, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	ok, err := store.SaveState(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresStorePushUndoSnapshot(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectExec("INSERT INTO session_undo_snapshots").
		WithArgs("before-optimize").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.PushUndoSnapshot(context.Background(), "before-optimize")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// assertErr is a trivial error used to exercise rollback paths without
// depending on a specific driver error type.
type assertErr struct{}

func (assertErr) Error() string { return "boom" }
