package sqlcipher

import (
	"strings"
	"time"
)

// TypeCategory tags a family of column types. The categories carry no data
// and only serve to compare against a result column.
type TypeCategory uint8

const (
	STRING TypeCategory = iota + 1
	BINARY
	NUMBER
	DATETIME
	ROWID
)

var categoryNames = map[TypeCategory]string{
	STRING:   "STRING",
	BINARY:   "BINARY",
	NUMBER:   "NUMBER",
	DATETIME: "DATETIME",
	ROWID:    "ROWID",
}

func (c TypeCategory) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// Column describes one result column. Name and TypeCode are always set
// (TypeCode is empty for expressions without a declared type); the remaining
// fields are nil unless the engine reports them.
type Column struct {
	Name         string
	TypeCode     string
	DisplaySize  *int64
	InternalSize *int64
	Precision    *int64
	Scale        *int64
	NullOK       *bool
}

// Matches reports whether col belongs to the category c. The declared type is
// classified with SQLite's column affinity rules, date and time names being
// split out of NUMERIC into DATETIME.
func (c TypeCategory) Matches(col Column) bool {
	if c == ROWID {
		switch strings.ToLower(col.Name) {
		case "rowid", "oid", "_rowid_":
			return true
		}
		return false
	}
	decl := strings.ToUpper(col.TypeCode)
	if decl == "" {
		return false
	}
	return categoryOfDecl(decl) == c
}

func categoryOfDecl(decl string) TypeCategory {
	switch {
	case strings.Contains(decl, "INT"):
		return NUMBER
	case strings.Contains(decl, "CHAR"), strings.Contains(decl, "CLOB"), strings.Contains(decl, "TEXT"):
		return STRING
	case strings.Contains(decl, "BLOB"):
		return BINARY
	case strings.Contains(decl, "DATE"), strings.Contains(decl, "TIME"):
		return DATETIME
	}
	return NUMBER
}

// CategoryOf classifies a scanned value. It reports false for NULL and for
// values of unknown shape.
func CategoryOf(v interface{}) (TypeCategory, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64, bool:
		return NUMBER, true
	case string:
		return STRING, true
	case []byte:
		return BINARY, true
	case time.Time:
		return DATETIME, true
	}
	return 0, false
}
