package sqlcipher

import (
	"database/sql"
	"strings"
	"unicode"
)

// Engine binds the driver to a database/sql driver for SQLite or SQLCipher.
type Engine interface {
	// DriverName is the name the database/sql driver is registered under.
	DriverName() string
	// DSN renders the data source name for cfg.
	DSN(cfg Config) string
	// ErrorCode extracts the extended result code and message from a native
	// engine error. ok is false when err did not come from the engine.
	ErrorCode(err error) (code int, msg string, ok bool)
}

// TxReporter is implemented by engines that can ask a session directly
// whether a transaction is open. Without it the session is probed with a
// deferred BEGIN.
type TxReporter interface {
	InTransaction(conn *sql.Conn) (bool, error)
}

type stmtKind uint8

const (
	stmtOther stmtKind = iota
	stmtSelect
	stmtDML
	stmtBegin
	stmtCommit
	stmtRollback
)

// classify sniffs the leading keyword of query, skipping whitespace and
// comments.
func classify(query string) stmtKind {
	words := leadingWords(query, 2)
	if len(words) == 0 {
		return stmtOther
	}
	switch words[0] {
	case "SELECT", "VALUES":
		return stmtSelect
	case "WITH":
		return withTarget(query)
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		return stmtDML
	case "BEGIN":
		return stmtBegin
	case "COMMIT", "END":
		return stmtCommit
	case "ROLLBACK":
		// ROLLBACK TO only unwinds a savepoint
		if len(words) > 1 && words[1] == "TO" {
			return stmtOther
		}
		return stmtRollback
	}
	return stmtOther
}

// withTarget classifies the statement a WITH clause prefixes by the first
// SELECT, VALUES or data modifying keyword outside parentheses. Common table
// expressions and their column lists are all parenthesized. A CTE named
// after one of those keywords without quoting is misread.
func withTarget(query string) stmtKind {
	depth := 0
	for i := 0; i < len(query); {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`' || ch == '[':
			end := ch
			if ch == '[' {
				end = ']'
			}
			j := strings.IndexByte(query[i+1:], end)
			if j < 0 {
				return stmtOther
			}
			i += j + 2
		case strings.HasPrefix(query[i:], "--"):
			j := strings.IndexByte(query[i:], '\n')
			if j < 0 {
				return stmtOther
			}
			i += j + 1
		case strings.HasPrefix(query[i:], "/*"):
			j := strings.Index(query[i+2:], "*/")
			if j < 0 {
				return stmtOther
			}
			i += j + 4
		case ch == '(':
			depth++
			i++
		case ch == ')':
			depth--
			i++
		case isWordByte(ch):
			j := i
			for j < len(query) && isWordByte(query[j]) {
				j++
			}
			if depth == 0 {
				switch strings.ToUpper(query[i:j]) {
				case "SELECT", "VALUES":
					return stmtSelect
				case "INSERT", "UPDATE", "DELETE", "REPLACE":
					return stmtDML
				}
			}
			i = j
		default:
			i++
		}
	}
	return stmtOther
}

func isWordByte(ch byte) bool {
	return ch == '_' || ch >= 0x80 ||
		('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}

func leadingWords(query string, n int) []string {
	var words []string
	s := query
	for len(words) < n {
		s = skipSpaceAndComments(s)
		if s == "" {
			break
		}
		end := strings.IndexFunc(s, func(r rune) bool {
			return !(unicode.IsLetter(r) || r == '_')
		})
		if end == 0 {
			break
		}
		if end < 0 {
			end = len(s)
		}
		words = append(words, strings.ToUpper(s[:end]))
		s = s[end:]
	}
	return words
}

func skipSpaceAndComments(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			s = s[i+4:]
		default:
			return s
		}
	}
}

// splitStatements cuts a script at semicolons outside of quotes and
// comments. Empty statements are dropped.
func splitStatements(script string) []string {
	var (
		stmts []string
		start int
		quote byte
	)
	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`' || ch == '[':
			quote = ch
			if ch == '[' {
				quote = ']'
			}
		case ch == '-' && strings.HasPrefix(script[i:], "--"):
			if j := strings.IndexByte(script[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(script)
			}
		case ch == '/' && strings.HasPrefix(script[i:], "/*"):
			if j := strings.Index(script[i+2:], "*/"); j >= 0 {
				i += j + 3
			} else {
				i = len(script)
			}
		case ch == ';':
			if q := strings.TrimSpace(script[start:i]); q != "" {
				stmts = append(stmts, q)
			}
			start = i + 1
		}
	}
	if start < len(script) {
		if q := strings.TrimSpace(script[start:]); q != "" && skipSpaceAndComments(q) != "" {
			stmts = append(stmts, q)
		}
	}
	return stmts
}
