package sqlcipher

import (
	"errors"
	"fmt"
)

// Kind classifies an error within the DB-API exception tree.
//
//	Warning
//	Error
//	├── InterfaceError
//	└── DatabaseError
//	    ├── DataError
//	    ├── OperationalError
//	    ├── IntegrityError
//	    ├── ProgrammingError
//	    └── NotSupportedError
//
// A Kind is itself an error so it can be used as the target of errors.Is:
//
//	if errors.Is(err, sqlcipher.KindDatabase) { ... }
type Kind uint8

const (
	KindWarning Kind = iota
	KindError
	KindInterface
	KindDatabase
	KindData
	KindOperational
	KindIntegrity
	KindProgramming
	KindNotSupported
)

var kindNames = [...]string{
	KindWarning:      "Warning",
	KindError:        "Error",
	KindInterface:    "InterfaceError",
	KindDatabase:     "DatabaseError",
	KindData:         "DataError",
	KindOperational:  "OperationalError",
	KindIntegrity:    "IntegrityError",
	KindProgramming:  "ProgrammingError",
	KindNotSupported: "NotSupportedError",
}

var kindParents = map[Kind]Kind{
	KindInterface:    KindError,
	KindDatabase:     KindError,
	KindData:         KindDatabase,
	KindOperational:  KindDatabase,
	KindIntegrity:    KindDatabase,
	KindProgramming:  KindDatabase,
	KindNotSupported: KindDatabase,
}

// Kinds lists every member of the taxonomy.
func Kinds() []Kind {
	return []Kind{
		KindWarning, KindError, KindInterface, KindDatabase, KindData,
		KindOperational, KindIntegrity, KindProgramming, KindNotSupported,
	}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Error() string { return k.String() }

// Parent returns the direct parent of k. Warning and Error are roots.
func (k Kind) Parent() (Kind, bool) {
	p, ok := kindParents[k]
	return p, ok
}

// IsA reports whether k is ancestor or descends from it.
func (k Kind) IsA(ancestor Kind) bool {
	for cur := k; ; {
		if cur == ancestor {
			return true
		}
		p, ok := cur.Parent()
		if !ok {
			return false
		}
		cur = p
	}
}

// Error is the single structured error returned by connections, cursors and
// the type adapters.
type Error struct {
	Kind    Kind
	Code    int  // engine extended result code, valid when HasCode is set
	HasCode bool // false for failures that did not come with an engine code
	Op      string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a Kind target against the taxonomy so that an IntegrityError
// also satisfies errors.Is(err, KindDatabase) and errors.Is(err, KindError).
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind.IsA(k)
	}
	return false
}

// KindOf returns the taxonomy kind of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func interfaceError(format string, args ...interface{}) *Error {
	return newError(KindInterface, format, args...)
}

func dataError(err error, format string, args ...interface{}) *Error {
	e := newError(KindData, format, args...)
	e.Err = err
	return e
}

const (
	errCursorClosed     = "cursor is closed"
	errConnectionClosed = "connection is closed"
	errConnectionAccess = "could not access connection object"
)

// Primary SQLite result codes used by the code table. Extended codes carry the
// primary code in their low byte.
const (
	sqliteError      = 1
	sqlitePerm       = 3
	sqliteAbort      = 4
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteNoMem      = 7
	sqliteReadOnly   = 8
	sqliteInterrupt  = 9
	sqliteIOErr      = 10
	sqliteCorrupt    = 11
	sqliteFull       = 13
	sqliteCantOpen   = 14
	sqliteProtocol   = 15
	sqliteSchema     = 17
	sqliteTooBig     = 18
	sqliteConstraint = 19
	sqliteMismatch   = 20
	sqliteMisuse     = 21
	sqliteNoLFS      = 22
	sqliteRange      = 25
	sqliteNotADB     = 26
)

var codeKinds = map[int]Kind{
	sqliteConstraint: KindIntegrity,
	sqliteMismatch:   KindIntegrity,

	sqlitePerm:      KindOperational,
	sqliteAbort:     KindOperational,
	sqliteBusy:      KindOperational,
	sqliteLocked:    KindOperational,
	sqliteNoMem:     KindOperational,
	sqliteReadOnly:  KindOperational,
	sqliteInterrupt: KindOperational,
	sqliteIOErr:     KindOperational,
	sqliteFull:      KindOperational,
	sqliteCantOpen:  KindOperational,
	sqliteProtocol:  KindOperational,
	sqliteSchema:    KindOperational,

	sqliteError:  KindProgramming,
	sqliteMisuse: KindProgramming,
	sqliteRange:  KindProgramming,

	sqliteTooBig: KindData,
	sqliteNoLFS:  KindNotSupported,
}

// KindForCode maps an engine result code (primary or extended) to its kind.
// Codes without a specific entry, such as SQLITE_CORRUPT or SQLITE_NOTADB,
// are DatabaseError.
func KindForCode(code int) Kind {
	if k, ok := codeKinds[code&0xff]; ok {
		return k
	}
	return KindDatabase
}

// EngineFailure folds a native engine error into the taxonomy. When the
// engine cannot produce a result code for err the call site's default kind
// is used.
func EngineFailure(eng Engine, err error, def Kind, op string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if eng != nil {
		if code, msg, ok := eng.ErrorCode(err); ok {
			return codedError(code, msg, op, err)
		}
	}
	return &Error{
		Kind: def,
		Op:   op,
		Msg:  fmt.Sprintf("failure while %s: %v", op, err),
		Err:  err,
	}
}

func codedError(code int, msg, op string, cause error) *Error {
	e := &Error{
		Kind:    KindForCode(code),
		Code:    code,
		HasCode: true,
		Op:      op,
		Err:     cause,
	}
	if msg != "" {
		e.Msg = fmt.Sprintf("encountered error code %d while %s: %s", code, op, msg)
	} else {
		e.Msg = fmt.Sprintf("encountered error code %d while %s", code, op)
	}
	return e
}
