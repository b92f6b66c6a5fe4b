package sqlcipher

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Module level attributes of the DB-API.
const (
	APILevel     = "2.0"
	ThreadSafety = 0
	ParamStyle   = "qmark"
)

// DefaultEngine is used when a Config names no engine and more than one
// engine is registered.
const DefaultEngine = "sqlite3"

const defaultBusyTimeout = 5 * time.Second

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// RegisterEngine makes an engine available under name. It is meant to be
// called from the init function of an engine package and panics if name is
// taken or e is nil.
func RegisterEngine(name string, e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if e == nil {
		panic("sqlcipher: RegisterEngine engine is nil")
	}
	if _, dup := engines[name]; dup {
		panic("sqlcipher: RegisterEngine called twice for engine " + name)
	}
	engines[name] = e
}

// Engines returns the sorted names of the registered engines.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupEngine(name string) (Engine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	if name == "" {
		if len(engines) == 1 {
			for _, e := range engines {
				return e, nil
			}
		}
		name = DefaultEngine
	}
	e, ok := engines[name]
	if !ok {
		available := make([]string, 0, len(engines))
		for n := range engines {
			available = append(available, n)
		}
		sort.Strings(available)
		return nil, interfaceError("unknown engine %q, available engines: %v", name, available)
	}
	return e, nil
}

// Config describes a database to connect to.
type Config struct {
	Path        string        `koanf:"database"`
	Engine      string        `koanf:"engine"`
	Key         string        `koanf:"key"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
	ForeignKeys bool          `koanf:"foreign_keys"`
	Autocommit  bool          `koanf:"autocommit"`
}

// DefaultConfig returns the settings Connect starts from.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: defaultBusyTimeout,
		ForeignKeys: true,
	}
}

type options struct {
	cfg    Config
	logger *slog.Logger
}

// Option adjusts how a Connection is opened.
type Option func(*options)

// WithKey sets the SQLCipher key issued right after the session is opened.
func WithKey(key string) Option {
	return func(o *options) { o.cfg.Key = key }
}

// WithEngine selects a registered engine by name.
func WithEngine(name string) Option {
	return func(o *options) { o.cfg.Engine = name }
}

func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.BusyTimeout = d }
}

func WithForeignKeys(on bool) Option {
	return func(o *options) { o.cfg.ForeignKeys = on }
}

// WithAutocommit disables the implicit BEGIN before data modifying
// statements.
func WithAutocommit(on bool) Option {
	return func(o *options) { o.cfg.Autocommit = on }
}

// WithLogger routes the connection's debug records to logger. Records are
// discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Connect opens the database at path.
func Connect(path string, opts ...Option) (*Connection, error) {
	return ConnectConfig(DefaultConfig(path), opts...)
}

// ConnectConfig opens the database described by cfg. Options are applied on
// top of cfg.
func ConnectConfig(cfg Config, opts ...Option) (*Connection, error) {
	o := &options{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	eng, err := lookupEngine(o.cfg.Engine)
	if err != nil {
		return nil, err
	}
	return open(eng, o.cfg, o.logger)
}

func (c Config) String() string {
	key := ""
	if c.Key != "" {
		key = " key=<redacted>"
	}
	return fmt.Sprintf("%s (engine=%s busy_timeout=%s foreign_keys=%t autocommit=%t%s)",
		c.Path, c.Engine, c.BusyTimeout, c.ForeignKeys, c.Autocommit, key)
}
