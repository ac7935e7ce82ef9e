package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

func newTestCredentialRepo(db *fakeCredentialDB) *PostgresCredentialRepo {
	return &PostgresCredentialRepo{pool: db, preferPrimary: true, logger: zap.NewNop()}
}

func newFakeCredentialDB(users ...string) *fakeCredentialDB {
	db := &fakeCredentialDB{users: map[string]*userColumns{}}
	for _, u := range users {
		db.users[u] = &userColumns{}
	}
	return db
}

func TestCredentialSaveViaDocumentRole(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	repo := newTestCredentialRepo(db)

	require.NoError(t, repo.Save(context.Background(), "user@example.com", "refresh-1"))
	require.Equal(t, 0, db.directWrites)

	token, err := repo.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", token)

	status, err := repo.Status(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, domaingoogle.StatusConnected, status)
}

func TestCredentialSaveFallsBackWhenRoleDenied(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	db.roleErr = &pgconn.PgError{Code: pgInsufficientPrivilege}
	repo := newTestCredentialRepo(db)

	require.NoError(t, repo.Save(context.Background(), "user@example.com", "refresh-1"))
	require.Equal(t, 1, db.directWrites)

	token, err := repo.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", token)
}

func TestCredentialSaveFallsBackWhenUpdateDenied(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	db.updateErr = &pgconn.PgError{Code: pgInsufficientPrivilege}
	repo := newTestCredentialRepo(db)

	require.NoError(t, repo.Save(context.Background(), "user@example.com", "refresh-1"))
	require.Equal(t, 1, db.directWrites)
}

func TestCredentialSaveFallsBackWhenRowFiltered(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	db.roleFiltered = true
	repo := newTestCredentialRepo(db)

	require.NoError(t, repo.Save(context.Background(), "user@example.com", "refresh-1"))
	require.Equal(t, 1, db.directWrites)

	token, err := repo.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", token)
}

func TestCredentialClearAfterFallbackSave(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	db.roleErr = &pgconn.PgError{Code: pgInsufficientPrivilege}
	repo := newTestCredentialRepo(db)

	require.NoError(t, repo.Save(context.Background(), "user@example.com", "refresh-1"))
	require.NoError(t, repo.Clear(context.Background(), "user@example.com"))

	token, err := repo.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Empty(t, token)

	status, err := repo.Status(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, domaingoogle.StatusNotConnected, status)
}

func TestCredentialSaveUnknownUser(t *testing.T) {
	db := newFakeCredentialDB()
	repo := newTestCredentialRepo(db)

	err := repo.Save(context.Background(), "missing@example.com", "refresh-1")
	require.Error(t, err)
	require.Equal(t, 1, db.directWrites)
}

func TestCredentialSaveOtherErrorDoesNotFallBack(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	db.updateErr = errors.New("connection reset")
	repo := newTestCredentialRepo(db)

	err := repo.Save(context.Background(), "user@example.com", "refresh-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, domaingoogle.ErrPermissionDenied)
	require.Equal(t, 0, db.directWrites)
}

func TestCredentialGetFallsBackToLegacyColumn(t *testing.T) {
	db := newFakeCredentialDB("user@example.com")
	db.users["user@example.com"].legacyToken = "legacy-refresh"
	repo := newTestCredentialRepo(db)

	token, err := repo.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "legacy-refresh", token)
}

func TestCredentialGetUnknownUser(t *testing.T) {
	repo := newTestCredentialRepo(newFakeCredentialDB())

	token, err := repo.Get(context.Background(), "missing@example.com")
	require.NoError(t, err)
	require.Empty(t, token)
}

// userColumns mirrors the token and status columns on a users row.
type userColumns struct {
	primaryToken  string
	primaryStatus string
	legacyToken   string
	legacyStatus  string
}

// fakeCredentialDB is an in-memory credentialDB. It reproduces the queries
// the repo issues with preferPrimary set, including the restricted-role
// transaction, and can be told to fail the document path the way row-level
// security does.
type fakeCredentialDB struct {
	users map[string]*userColumns

	roleErr      error
	updateErr    error
	roleFiltered bool

	directWrites int
}

var _ credentialDB = (*fakeCredentialDB)(nil)

func (f *fakeCredentialDB) Begin(context.Context) (pgx.Tx, error) {
	return &fakeCredentialTx{db: f}, nil
}

func (f *fakeCredentialDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "google_workspace_refresh_token = ''") {
		row, ok := f.users[args[1].(string)]
		if !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		row.primaryToken = ""
		row.legacyToken = ""
		row.primaryStatus = args[0].(string)
		row.legacyStatus = args[0].(string)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}

	f.directWrites++
	row, ok := f.users[args[2].(string)]
	if !ok {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	row.primaryToken = args[0].(string)
	row.primaryStatus = args[1].(string)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeCredentialDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	row, ok := f.users[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	if strings.Count(sql, "COALESCE") == 2 {
		return fakeRow{vals: []string{row.primaryToken, row.legacyToken}}
	}
	return fakeRow{vals: []string{row.primaryStatus}}
}

type fakeCredentialTx struct {
	db *fakeCredentialDB
}

var _ pgx.Tx = (*fakeCredentialTx)(nil)

func (t *fakeCredentialTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.HasPrefix(sql, "SET LOCAL ROLE") {
		return pgconn.CommandTag{}, t.db.roleErr
	}
	if t.db.updateErr != nil {
		return pgconn.CommandTag{}, t.db.updateErr
	}
	row, ok := t.db.users[args[2].(string)]
	if !ok || t.db.roleFiltered {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	row.primaryToken = args[0].(string)
	row.primaryStatus = args[1].(string)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (t *fakeCredentialTx) Commit(context.Context) error   { return nil }
func (t *fakeCredentialTx) Rollback(context.Context) error { return nil }

func (t *fakeCredentialTx) Begin(context.Context) (pgx.Tx, error) {
	panic("not implemented")
}

func (t *fakeCredentialTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (t *fakeCredentialTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (t *fakeCredentialTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (t *fakeCredentialTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (t *fakeCredentialTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (t *fakeCredentialTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (t *fakeCredentialTx) Conn() *pgx.Conn { return nil }

type fakeRow struct {
	vals []string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*string)) = r.vals[i]
	}
	return nil
}
