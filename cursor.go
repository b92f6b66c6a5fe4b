package sqlcipher

import (
	"context"
	"database/sql"
	"sync/atomic"
	"weak"

	"github.com/jakoblorz/sqlcipher/x/util"
	"github.com/jmoiron/sqlx"
)

var cursorSeq atomic.Uint64

// Cursor executes statements on a Connection and buffers their results. It
// only holds a weak reference to the connection, which is resolved again on
// every call.
type Cursor struct {
	sess   weak.Pointer[session]
	id     uint64
	asDict bool
	closed bool

	description []Column
	rowcount    uint64
	lastrowid   int64
	rows        []Row
	pos         int

	// ArraySize is the number of rows FetchMany returns by default.
	ArraySize int
}

func newCursor(s *session) *Cursor {
	return &Cursor{
		sess:      weak.Make(s),
		id:        cursorSeq.Add(1),
		ArraySize: 1,
	}
}

// Description describes the columns of the last result, or is nil when the
// last statement produced no columns.
func (c *Cursor) Description() []Column { return c.description }

// RowCount is the number of rows the last statement produced or modified.
// Statements that do neither leave it unchanged.
func (c *Cursor) RowCount() uint64 { return c.rowcount }

// LastRowID is the rowid of the row most recently inserted through the
// cursor.
func (c *Cursor) LastRowID() int64 { return c.lastrowid }

func (c *Cursor) Closed() bool { return c.closed }

func (c *Cursor) AsDict() bool { return c.asDict }

// Close closes the cursor. The connection is left untouched.
func (c *Cursor) Close() {
	c.closed = true
	c.rows = nil
	c.pos = 0
}

func (c *Cursor) acquire() (*session, error) {
	if c.closed {
		return nil, interfaceError(errCursorClosed)
	}
	return resolve(c.sess)
}

// check validates the cursor and its connection without borrowing the
// session.
func (c *Cursor) check() error {
	if c.closed {
		return interfaceError(errCursorClosed)
	}
	s := c.sess.Value()
	if s == nil {
		return interfaceError(errConnectionAccess)
	}
	if s.closed.Load() {
		return interfaceError(errConnectionClosed)
	}
	return nil
}

type result struct {
	description []Column
	rows        []Row
	rowcount    uint64
	hasRowcount bool
	lastrowid   int64
	hasLastrow  bool
}

// Execute prepares query, binds params to its ? placeholders in order and
// runs it. Rows the statement produces are buffered for the Fetch methods.
// On failure the cursor keeps the state of the previous statement.
func (c *Cursor) Execute(query string, params ...interface{}) error {
	s, err := c.acquire()
	if err != nil {
		return err
	}
	defer s.release()

	ctx := context.Background()
	st, err := prepare(ctx, s, query)
	if err != nil {
		return err
	}
	defer st.Close()

	args, err := bindValues(params)
	if err != nil {
		return err
	}
	if err := s.beginImplicit(ctx, st.kind); err != nil {
		return err
	}

	s.logger.Debug("executing query", "cursor", c.id, "query", query, "params", len(args))
	rows, err := st.queryx(ctx, args)
	if err != nil {
		return err
	}
	res, err := c.collect(st, rows)
	if err != nil {
		return err
	}

	if st.kind == stmtDML {
		n, id, err := s.changes(ctx)
		if err != nil {
			return err
		}
		res.rowcount, res.hasRowcount = n, true
		res.lastrowid, res.hasLastrow = id, true
	}
	c.apply(res)
	return nil
}

// collect buffers the rows of a statement and describes its columns.
func (c *Cursor) collect(st *stmt, rows *sqlx.Rows) (*result, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, st.failure(err)
	}

	res := &result{}
	var keys []string
	if len(types) > 0 {
		res.description = make([]Column, len(types))
		for i, ct := range types {
			res.description[i] = describe(ct)
		}
	}
	if c.asDict && len(types) > 0 {
		keys = make([]string, len(types))
		seen := make(map[string]bool, len(types))
		for i, col := range res.description {
			if seen[col.Name] {
				rows.Close()
				return nil, newError(KindProgramming, "column name %q appears more than once, rows cannot be keyed by name", col.Name)
			}
			seen[col.Name] = true
			keys[i] = col.Name
		}
	}

	values, err := util.DrainRows(rows)
	if err != nil {
		return nil, st.failure(err)
	}
	if len(types) > 0 {
		res.rows = newRows(keys, values)
		if st.kind != stmtDML {
			res.rowcount, res.hasRowcount = uint64(len(values)), true
		}
	}
	return res, nil
}

func describe(ct *sql.ColumnType) Column {
	col := Column{Name: ct.Name(), TypeCode: ct.DatabaseTypeName()}
	if n, ok := ct.Length(); ok {
		col.InternalSize = &n
	}
	if p, sc, ok := ct.DecimalSize(); ok {
		col.Precision, col.Scale = &p, &sc
	}
	if null, ok := ct.Nullable(); ok {
		col.NullOK = &null
	}
	return col
}

func (c *Cursor) apply(res *result) {
	c.description = res.description
	c.rows = res.rows
	c.pos = 0
	if res.hasRowcount {
		c.rowcount = res.rowcount
	}
	if res.hasLastrow {
		c.lastrowid = res.lastrowid
	}
}

// ExecuteMany runs query once per parameter set. RowCount becomes the total
// number of modified rows. Statements that return rows are rejected.
func (c *Cursor) ExecuteMany(query string, seq [][]interface{}) error {
	s, err := c.acquire()
	if err != nil {
		return err
	}
	defer s.release()

	ctx := context.Background()
	st, err := prepare(ctx, s, query)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.kind == stmtSelect {
		return newError(KindProgramming, "executemany can only run data modifying statements")
	}

	dml := st.kind == stmtDML
	res := &result{hasRowcount: dml}
	for i, params := range seq {
		args, err := bindValues(params)
		if err != nil {
			return err
		}
		if err := s.beginImplicit(ctx, st.kind); err != nil {
			return err
		}
		s.logger.Debug("executing query", "cursor", c.id, "query", query, "set", i)
		r, err := st.exec(ctx, args)
		if err != nil {
			return err
		}
		if !dml {
			continue
		}
		n, err := r.RowsAffected()
		if err != nil {
			return st.failure(err)
		}
		id, err := r.LastInsertId()
		if err != nil {
			return st.failure(err)
		}
		res.rowcount += uint64(n)
		res.lastrowid, res.hasLastrow = id, true
	}
	c.apply(res)
	return nil
}

// ExecuteScript runs a script of semicolon separated statements without
// parameters. A transaction opened implicitly is committed first.
func (c *Cursor) ExecuteScript(script string) error {
	s, err := c.acquire()
	if err != nil {
		return err
	}
	defer s.release()

	ctx := context.Background()
	if !s.autocommit {
		active, err := s.inTransaction()
		if err != nil {
			return err
		}
		if active {
			if err := s.exec(ctx, "COMMIT", "committing"); err != nil {
				return err
			}
		}
	}

	s.logger.Debug("executing script", "cursor", c.id)
	if _, err := s.conn.ExecContext(ctx, script); err != nil {
		return EngineFailure(s.eng, err, KindDatabase, "executing script")
	}
	c.apply(&result{})
	return nil
}

// FetchOne returns the next buffered row. It reports false once the rows are
// exhausted.
func (c *Cursor) FetchOne() (Row, bool, error) {
	if err := c.check(); err != nil {
		return Row{}, false, err
	}
	if c.pos >= len(c.rows) {
		return Row{}, false, nil
	}
	row := c.rows[c.pos]
	c.pos++
	return row, true, nil
}

// FetchMany returns up to size rows, ArraySize rows when size is not
// positive.
func (c *Cursor) FetchMany(size int) ([]Row, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = c.ArraySize
	}
	end := c.pos + size
	if end > len(c.rows) {
		end = len(c.rows)
	}
	// capped so appending to the result cannot overwrite unread rows
	rows := c.rows[c.pos:end:end]
	c.pos = end
	return rows, nil
}

// FetchAll returns every remaining row.
func (c *Cursor) FetchAll() ([]Row, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	rows := c.rows[c.pos:len(c.rows):len(c.rows)]
	c.pos = len(c.rows)
	return rows, nil
}

// CallProc always fails: SQLite has no stored procedures.
func (c *Cursor) CallProc(name string, params ...interface{}) error {
	if err := c.check(); err != nil {
		return err
	}
	return newError(KindNotSupported, "stored procedure %q cannot be called: not supported by the engine", name)
}

// SetInputSizes does nothing.
func (c *Cursor) SetInputSizes(sizes ...int) {}

// SetOutputSize does nothing.
func (c *Cursor) SetOutputSize(size int, column ...int) {}
