// Package sqlite3 registers the cgo engine built on github.com/mattn/go-sqlite3.
// Link it against SQLCipher (build tag libsqlite3 with the SQLCipher
// library installed) to have PRAGMA key encrypt the database.
package sqlite3

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jakoblorz/sqlcipher"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Name is the engine name used with sqlcipher.WithEngine.
const Name = "sqlite3"

func init() {
	sqlcipher.RegisterEngine(Name, Engine{})
}

type Engine struct{}

var (
	_ sqlcipher.Engine     = Engine{}
	_ sqlcipher.TxReporter = Engine{}
)

func (Engine) DriverName() string { return "sqlite3" }

func (Engine) DSN(cfg sqlcipher.Config) string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10))
	if cfg.ForeignKeys {
		q.Set("_foreign_keys", "1")
	} else {
		q.Set("_foreign_keys", "0")
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

func (Engine) ErrorCode(err error) (int, string, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return 0, "", false
	}
	code := int(se.ExtendedCode)
	if code == 0 {
		code = int(se.Code)
	}
	return code, se.Error(), true
}

// InTransaction asks the session whether it left autocommit mode.
func (Engine) InTransaction(conn *sql.Conn) (bool, error) {
	var active bool
	err := conn.Raw(func(dc interface{}) error {
		c, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", dc)
		}
		active = !c.AutoCommit()
		return nil
	})
	return active, err
}
