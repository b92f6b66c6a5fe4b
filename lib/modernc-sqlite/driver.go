// Package sqlite registers the pure Go engine built on modernc.org/sqlite.
// It has no SQLCipher support: PRAGMA key is accepted and ignored.
package sqlite

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jakoblorz/sqlcipher"
	"modernc.org/sqlite"
)

// Name is the engine name used with sqlcipher.WithEngine.
const Name = "sqlite"

func init() {
	sqlcipher.RegisterEngine(Name, Engine{})
}

type Engine struct{}

var _ sqlcipher.Engine = Engine{}

func (Engine) DriverName() string { return "sqlite" }

func (Engine) DSN(cfg sqlcipher.Config) string {
	fk := 0
	if cfg.ForeignKeys {
		fk = 1
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", fmt.Sprintf("foreign_keys(%d)", fk))

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

func (Engine) ErrorCode(err error) (int, string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, "", false
	}
	return se.Code(), se.Error(), true
}
