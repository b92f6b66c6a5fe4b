package sqlcipher_test

import (
	"database/sql/driver"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/jakoblorz/sqlcipher"
	"github.com/jakoblorz/sqlcipher/internal/testutil"
	_ "github.com/jakoblorz/sqlcipher/lib/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, opts ...sqlcipher.Option) *sqlcipher.Connection {
	t.Helper()
	opts = append([]sqlcipher.Option{sqlcipher.WithLogger(testutil.NewTestLogger(t))}, opts...)
	conn, err := sqlcipher.Connect(testutil.TempDatabase(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func requireKind(t *testing.T, err error, kind sqlcipher.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := sqlcipher.KindOf(err)
	require.True(t, ok, "error %v carries no kind", err)
	require.Equal(t, kind, got, "error: %v", err)
}

func TestConnectUnknownEngine(t *testing.T) {
	_, err := sqlcipher.Connect(":memory:", sqlcipher.WithEngine("postgres"))
	requireKind(t, err, sqlcipher.KindInterface)
	assert.Contains(t, err.Error(), `unknown engine "postgres"`)
}

func TestConnectDefaults(t *testing.T) {
	conn := openTest(t)
	assert.NotEmpty(t, conn.ID())
	assert.False(t, conn.Closed())

	cfg := conn.Config()
	assert.Equal(t, 5*time.Second, cfg.BusyTimeout)
	assert.True(t, cfg.ForeignKeys)
	assert.False(t, cfg.Autocommit)
	assert.NotContains(t, sqlcipher.Config{Path: "x.db", Key: "secret"}.String(), "secret")

	cur, err := conn.Execute("PRAGMA foreign_keys")
	require.NoError(t, err)
	row, ok, err := cur.FetchOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), row.Values[0])
}

func TestConnectWithKey(t *testing.T) {
	// without SQLCipher linked in, PRAGMA key is accepted and ignored
	conn := openTest(t, sqlcipher.WithKey("it's a secret"))
	_, err := conn.Execute("CREATE TABLE t (a)")
	require.NoError(t, err)
}

func TestTransactions(t *testing.T) {
	conn := openTest(t)
	cur := conn.Cursor()
	require.NoError(t, cur.Execute("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)"))

	active, err := conn.InTransaction()
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, cur.Execute("INSERT INTO t (v) VALUES (?)", "a"))
	active, err = conn.InTransaction()
	require.NoError(t, err)
	assert.True(t, active, "data modifying statements open a transaction")

	rolledBack, err := conn.Rollback()
	require.NoError(t, err)
	assert.True(t, rolledBack)

	rolledBack, err = conn.Rollback()
	require.NoError(t, err)
	assert.False(t, rolledBack)

	require.NoError(t, cur.Execute("SELECT count(*) FROM t"))
	row, _, err := cur.FetchOne()
	require.NoError(t, err)
	assert.Equal(t, int64(0), row.Values[0])

	require.NoError(t, cur.Execute("INSERT INTO t (v) VALUES (?)", "b"))
	require.NoError(t, conn.Commit())
	require.NoError(t, conn.Commit(), "commit without a transaction is a no-op")

	active, err = conn.InTransaction()
	require.NoError(t, err)
	assert.False(t, active)
}

func TestAutocommit(t *testing.T) {
	conn := openTest(t, sqlcipher.WithAutocommit(true))
	cur := conn.Cursor()
	require.NoError(t, cur.Execute("CREATE TABLE t (a)"))
	require.NoError(t, cur.Execute("INSERT INTO t VALUES (1)"))

	active, err := conn.InTransaction()
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, cur.Execute("BEGIN"))
	active, err = conn.InTransaction()
	require.NoError(t, err)
	assert.True(t, active)
	require.NoError(t, conn.Commit())
}

func TestCloseRollsBack(t *testing.T) {
	path := testutil.TempDatabase(t)

	conn, err := sqlcipher.Connect(path)
	require.NoError(t, err)
	_, err = conn.Execute("CREATE TABLE t (a)")
	require.NoError(t, err)
	_, err = conn.Execute("INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "closing twice is a no-op")
	assert.True(t, conn.Closed())

	conn, err = sqlcipher.Connect(path)
	require.NoError(t, err)
	defer conn.Close()
	cur, err := conn.Execute("SELECT count(*) FROM t")
	require.NoError(t, err)
	row, _, err := cur.FetchOne()
	require.NoError(t, err)
	assert.Equal(t, int64(0), row.Values[0])
}

func TestClosedConnection(t *testing.T) {
	conn := openTest(t)
	cur := conn.Cursor()
	require.NoError(t, cur.Execute("SELECT 1 AS one"))
	require.NoError(t, conn.Close())

	for name, err := range map[string]error{
		"execute": cur.Execute("SELECT 2"),
		"commit":  conn.Commit(),
		"fetch": func() error {
			_, err := cur.FetchAll()
			return err
		}(),
		"tables": func() error {
			_, err := conn.Tables()
			return err
		}(),
	} {
		requireKind(t, err, sqlcipher.KindInterface)
		assert.Equal(t, "connection is closed", err.Error(), name)
	}

	_, err := conn.Rollback()
	requireKind(t, err, sqlcipher.KindInterface)
	assert.Equal(t, "one", cur.Description()[0].Name, "failed calls leave the cursor untouched")
}

type valuerFunc func() (driver.Value, error)

func (f valuerFunc) Value() (driver.Value, error) { return f() }

func TestReentrantCalls(t *testing.T) {
	conn := openTest(t)
	cur := conn.Cursor()

	var closeErr, execErr error
	param := valuerFunc(func() (driver.Value, error) {
		closeErr = conn.Close()
		execErr = conn.Cursor().Execute("SELECT 1")
		return int64(1), nil
	})
	require.NoError(t, cur.Execute("SELECT ?", param))

	requireKind(t, closeErr, sqlcipher.KindOperational)
	assert.Equal(t, "failure while closing connection: a statement is in progress", closeErr.Error())
	requireKind(t, execErr, sqlcipher.KindInterface)
	assert.Equal(t, "could not access connection object", execErr.Error())
	assert.False(t, conn.Closed())
}

func cursorOnDroppedConnection(t *testing.T) *sqlcipher.Cursor {
	conn, err := sqlcipher.Connect(":memory:")
	require.NoError(t, err)
	cur := conn.Cursor()
	require.NoError(t, cur.Execute("SELECT 1"))
	return cur
}

func TestDroppedConnection(t *testing.T) {
	cur := cursorOnDroppedConnection(t)

	var err error
	for i := 0; i < 100; i++ {
		runtime.GC()
		if _, err = cur.FetchAll(); err != nil && err.Error() == "could not access connection object" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	requireKind(t, err, sqlcipher.KindInterface)
	assert.Equal(t, "could not access connection object", err.Error())

	err = cur.Execute("SELECT 1")
	requireKind(t, err, sqlcipher.KindInterface)
	assert.True(t, errors.Is(err, sqlcipher.KindError))
}

func TestCatalog(t *testing.T) {
	conn := openTest(t)
	cur := conn.Cursor()
	require.NoError(t, cur.ExecuteScript(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT 'anon', avatar BLOB);
		CREATE TABLE audit (at TIMESTAMP);
	`))

	tables, err := conn.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "users"}, tables)

	cols, err := conn.TableInfo("users")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, int64(1), cols[0].PrimaryKey)
	assert.True(t, cols[1].NotNull)
	assert.Equal(t, "'anon'", cols[1].Default.String)
	assert.True(t, sqlcipher.BINARY.Matches(cols[2].Column()))
	assert.True(t, sqlcipher.STRING.Matches(cols[1].Column()))

	schema, err := conn.Schema("audit")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE audit (at TIMESTAMP)", schema)

	_, err = conn.TableInfo("missing")
	requireKind(t, err, sqlcipher.KindProgramming)
	_, err = conn.Schema("missing")
	requireKind(t, err, sqlcipher.KindProgramming)
}

func TestModuleAttributes(t *testing.T) {
	assert.Equal(t, "2.0", sqlcipher.APILevel)
	assert.Equal(t, 0, sqlcipher.ThreadSafety)
	assert.Equal(t, "qmark", sqlcipher.ParamStyle)
	assert.Contains(t, sqlcipher.Engines(), "sqlite3")
}
