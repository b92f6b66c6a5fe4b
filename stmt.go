package sqlcipher

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
)

// stmt is a statement prepared on a session. Failures of every step are
// folded into the error taxonomy.
type stmt struct {
	s     *sqlx.Stmt
	eng   Engine
	query string
	kind  stmtKind
}

// prepare compiles query, which must hold a single statement. Everything
// after the first statement would otherwise be ignored.
func prepare(ctx context.Context, s *session, query string) (*stmt, error) {
	if len(splitStatements(query)) > 1 {
		return nil, newError(KindProgramming, "you can only execute one statement at a time, use ExecuteScript for several")
	}
	ps, err := s.conn.PreparexContext(ctx, query)
	if err != nil {
		return nil, EngineFailure(s.eng, err, KindDatabase, "preparing query")
	}
	return &stmt{s: ps, eng: s.eng, query: query, kind: classify(query)}, nil
}

func (st *stmt) Close() error {
	return st.s.Close()
}

func (st *stmt) queryx(ctx context.Context, args []interface{}) (*sqlx.Rows, error) {
	rows, err := st.s.QueryxContext(ctx, args...)
	if err != nil {
		return nil, st.failure(err)
	}
	return rows, nil
}

func (st *stmt) exec(ctx context.Context, args []interface{}) (sql.Result, error) {
	res, err := st.s.ExecContext(ctx, args...)
	if err != nil {
		return nil, st.failure(err)
	}
	return res, nil
}

func (st *stmt) failure(err error) *Error {
	e := EngineFailure(st.eng, err, KindDatabase, "executing query")
	if !e.HasCode && isArityError(err) {
		e.Kind = KindProgramming
	}
	return e
}

// isArityError recognizes database/sql's check of the placeholder count,
// which carries no engine code.
func isArityError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "sql: expected ") && strings.Contains(msg, " arguments, got ")
}
