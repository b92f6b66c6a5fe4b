package sqlcipher

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"
	"weak"

	"github.com/jmoiron/sqlx"
	uuid "github.com/satori/go.uuid"
)

// session is the interior state of a Connection. The Connection holds the
// only strong reference; cursors reach it through a weak pointer.
type session struct {
	id         string
	eng        Engine
	db         *sqlx.DB
	conn       *sqlx.Conn
	autocommit bool
	logger     *slog.Logger

	closed atomic.Bool
	busy   atomic.Bool
}

func (s *session) borrow() bool { return s.busy.CompareAndSwap(false, true) }

func (s *session) release() { s.busy.Store(false) }

// inTransaction asks the engine for the transaction state of the session, or
// probes it with a deferred BEGIN for engines that cannot tell.
func (s *session) inTransaction() (bool, error) {
	ctx := context.Background()
	if tr, ok := s.eng.(TxReporter); ok {
		active, err := tr.InTransaction(s.conn.Conn)
		if err != nil {
			return false, EngineFailure(s.eng, err, KindDatabase, "checking transaction state")
		}
		return active, nil
	}

	// a deferred BEGIN takes no locks until the first read or write
	_, err := s.conn.ExecContext(ctx, "BEGIN")
	if err == nil {
		if _, err := s.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
			return false, EngineFailure(s.eng, err, KindDatabase, "checking transaction state")
		}
		return false, nil
	}
	if strings.Contains(err.Error(), "within a transaction") {
		return true, nil
	}
	return false, EngineFailure(s.eng, err, KindDatabase, "checking transaction state")
}

func (s *session) exec(ctx context.Context, query string, op string) error {
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		return EngineFailure(s.eng, err, KindDatabase, op)
	}
	return nil
}

// beginImplicit opens a transaction before a data modifying statement unless
// the session is in autocommit mode or a transaction is already open.
func (s *session) beginImplicit(ctx context.Context, kind stmtKind) error {
	if s.autocommit || kind != stmtDML {
		return nil
	}
	active, err := s.inTransaction()
	if err != nil || active {
		return err
	}
	s.logger.Debug("opening implicit transaction")
	return s.exec(ctx, "BEGIN", "beginning transaction")
}

// changes reports the rows modified by the last statement and the rowid of
// the last insert.
func (s *session) changes(ctx context.Context) (uint64, int64, error) {
	var n, id int64
	if err := s.conn.QueryRowxContext(ctx, "SELECT changes(), last_insert_rowid()").Scan(&n, &id); err != nil {
		return 0, 0, EngineFailure(s.eng, err, KindDatabase, "executing query")
	}
	return uint64(n), id, nil
}

func (s *session) shutdown() error {
	s.closed.Store(true)
	err := s.conn.Close()
	if dbErr := s.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

// Connection owns one engine session. It is not safe for concurrent use.
type Connection struct {
	cfg  Config
	sess *session
}

func open(eng Engine, cfg Config, logger *slog.Logger) (*Connection, error) {
	ctx := context.Background()

	id, err := uuid.NewV4()
	if err != nil {
		return nil, &Error{Kind: KindError, Op: "connecting", Msg: "failure while connecting: " + err.Error(), Err: err}
	}
	logger = logger.With("conn_id", id.String())

	db, err := sqlx.Open(eng.DriverName(), eng.DSN(cfg))
	if err != nil {
		return nil, EngineFailure(eng, err, KindDatabase, "connecting")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Connx(ctx)
	if err != nil {
		db.Close()
		return nil, EngineFailure(eng, err, KindDatabase, "connecting")
	}

	s := &session{
		id:         id.String(),
		eng:        eng,
		db:         db,
		conn:       conn,
		autocommit: cfg.Autocommit,
		logger:     logger,
	}
	if cfg.Key != "" {
		if err := s.applyKey(ctx, cfg.Key); err != nil {
			s.shutdown()
			return nil, err
		}
	}

	c := &Connection{cfg: cfg, sess: s}
	runtime.AddCleanup(c, func(s *session) {
		if s.closed.Load() || !s.borrow() {
			return
		}
		defer s.release()
		s.logger.Debug("closing unreachable connection")
		s.shutdown()
	}, s)

	logger.Debug("connected", "path", cfg.Path, "engine", eng.DriverName())
	return c, nil
}

// applyKey issues PRAGMA key and reads the schema version, which fails when
// the key does not decrypt the database.
func (s *session) applyKey(ctx context.Context, key string) error {
	pragma := "PRAGMA key = '" + strings.ReplaceAll(key, "'", "''") + "'"
	if _, err := s.conn.ExecContext(ctx, pragma); err != nil {
		return EngineFailure(s.eng, err, KindDatabase, "applying key")
	}
	var version int64
	if err := s.conn.QueryRowxContext(ctx, "PRAGMA schema_version").Scan(&version); err != nil {
		return EngineFailure(s.eng, err, KindDatabase, "verifying key")
	}
	return nil
}

// ID identifies the connection in log records.
func (c *Connection) ID() string { return c.sess.id }

func (c *Connection) Closed() bool { return c.sess.closed.Load() }

// Config returns the settings the connection was opened with.
func (c *Connection) Config() Config { return c.cfg }

// acquire borrows the session for one call.
func (c *Connection) acquire() (*session, error) {
	s := c.sess
	if s.closed.Load() {
		return nil, interfaceError(errConnectionClosed)
	}
	if !s.borrow() {
		return nil, interfaceError(errConnectionAccess)
	}
	return s, nil
}

// CursorOption configures a new Cursor.
type CursorOption func(*Cursor)

// WithDict makes the cursor produce rows keyed by column name.
func WithDict() CursorOption {
	return func(cur *Cursor) { cur.asDict = true }
}

// Cursor returns a new cursor on the connection.
func (c *Connection) Cursor(opts ...CursorOption) *Cursor {
	cur := newCursor(c.sess)
	for _, opt := range opts {
		opt(cur)
	}
	return cur
}

// Execute runs query on a new cursor and returns it.
func (c *Connection) Execute(query string, params ...interface{}) (*Cursor, error) {
	cur := c.Cursor()
	if err := cur.Execute(query, params...); err != nil {
		return nil, err
	}
	return cur, nil
}

// InTransaction reports whether a transaction is open on the connection.
func (c *Connection) InTransaction() (bool, error) {
	s, err := c.acquire()
	if err != nil {
		return false, err
	}
	defer s.release()
	return s.inTransaction()
}

// Commit commits the open transaction. It does nothing when no transaction
// is open.
func (c *Connection) Commit() error {
	s, err := c.acquire()
	if err != nil {
		return err
	}
	defer s.release()

	ctx := context.Background()
	active, err := s.inTransaction()
	if err != nil || !active {
		return err
	}
	s.logger.Debug("committing")
	return s.exec(ctx, "COMMIT", "committing")
}

// Rollback rolls back the open transaction and reports whether there was
// one.
func (c *Connection) Rollback() (bool, error) {
	s, err := c.acquire()
	if err != nil {
		return false, err
	}
	defer s.release()

	ctx := context.Background()
	active, err := s.inTransaction()
	if err != nil || !active {
		return false, err
	}
	s.logger.Debug("rolling back")
	if err := s.exec(ctx, "ROLLBACK", "rolling back"); err != nil {
		return false, err
	}
	return true, nil
}

// Close rolls back an open transaction and closes the session. Closing a
// closed connection is a no-op. It fails with OperationalError while a
// statement is in progress.
func (c *Connection) Close() error {
	s := c.sess
	if s.closed.Load() {
		return nil
	}
	if !s.borrow() {
		return &Error{
			Kind: KindOperational,
			Op:   "closing connection",
			Msg:  "failure while closing connection: a statement is in progress",
		}
	}
	defer s.release()

	ctx := context.Background()
	var rbErr error
	if active, err := s.inTransaction(); err != nil {
		rbErr = err
	} else if active {
		rbErr = s.exec(ctx, "ROLLBACK", "closing connection")
	}
	if err := s.shutdown(); err != nil {
		return EngineFailure(s.eng, err, KindDatabase, "closing connection")
	}
	s.logger.Debug("closed")
	return rbErr
}

// resolve turns a cursor's weak pointer back into its session. The session
// is borrowed on success and must be released.
func resolve(p weak.Pointer[session]) (*session, error) {
	s := p.Value()
	if s == nil {
		return nil, interfaceError(errConnectionAccess)
	}
	if !s.borrow() {
		return nil, interfaceError(errConnectionAccess)
	}
	if s.closed.Load() {
		s.release()
		return nil, interfaceError(errConnectionClosed)
	}
	return s, nil
}
