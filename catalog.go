package sqlcipher

import (
	"context"
	"database/sql"
	"errors"
)

const selectTableNamesSQL = `SELECT name FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name`

const selectTableSchemaSQL = `SELECT sql FROM sqlite_master
	WHERE type IN ('table', 'view') AND name = ?`

const selectTableColumnsSQL = `SELECT cid, name, type, "notnull", dflt_value, pk
	FROM pragma_table_info(?)
	ORDER BY cid`

// ColumnInfo is one column of a table as reported by PRAGMA table_info.
type ColumnInfo struct {
	CID        int64          `db:"cid"`
	Name       string         `db:"name"`
	Type       string         `db:"type"`
	NotNull    bool           `db:"notnull"`
	Default    sql.NullString `db:"dflt_value"`
	PrimaryKey int64          `db:"pk"`
}

// Column returns the description the column would have in a result set.
func (ci ColumnInfo) Column() Column {
	nullOK := !ci.NotNull
	return Column{Name: ci.Name, TypeCode: ci.Type, NullOK: &nullOK}
}

// Tables lists the user tables of the main database.
func (c *Connection) Tables() ([]string, error) {
	s, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer s.release()

	names := []string{}
	if err := s.conn.SelectContext(context.Background(), &names, selectTableNamesSQL); err != nil {
		return nil, EngineFailure(s.eng, err, KindDatabase, "listing tables")
	}
	return names, nil
}

// TableInfo lists the columns of table. An unknown table is a
// ProgrammingError.
func (c *Connection) TableInfo(table string) ([]ColumnInfo, error) {
	s, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer s.release()

	columns := []ColumnInfo{}
	if err := s.conn.SelectContext(context.Background(), &columns, selectTableColumnsSQL, table); err != nil {
		return nil, EngineFailure(s.eng, err, KindDatabase, "reading table info")
	}
	if len(columns) == 0 {
		return nil, newError(KindProgramming, "no such table: %s", table)
	}
	return columns, nil
}

// Schema returns the CREATE statement of a table or view.
func (c *Connection) Schema(table string) (string, error) {
	s, err := c.acquire()
	if err != nil {
		return "", err
	}
	defer s.release()

	var stmt sql.NullString
	err = s.conn.QueryRowxContext(context.Background(), selectTableSchemaSQL, table).Scan(&stmt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", newError(KindProgramming, "no such table: %s", table)
	}
	if err != nil {
		return "", EngineFailure(s.eng, err, KindDatabase, "reading schema")
	}
	return stmt.String, nil
}
