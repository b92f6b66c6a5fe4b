// Package cli provides the command-line interface of sqlcipher.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jakoblorz/sqlcipher/internal/config"
	"github.com/spf13/cobra"

	// engines register themselves in init
	_ "github.com/jakoblorz/sqlcipher/lib/go-sqlite3"
	_ "github.com/jakoblorz/sqlcipher/lib/modernc-sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	cfgFile   string
	keyPrompt bool
	cfg       *config.Config
	logger    *slog.Logger

	// stdin is read by the shell and the key prompt
	stdin io.Reader
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	a := &app{stdin: os.Stdin}

	rootCmd := &cobra.Command{
		Use:   "sqlcipher",
		Short: "Query SQLite and SQLCipher databases",
		Long: `sqlcipher runs statements against SQLite and SQLCipher databases
through a DB-API style connection and cursor layer.

Settings are read from sqlcipher.yaml, SQLCIPHER_* environment variables
and flags, in increasing order of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				a.logger.Debug("using config file", "path", cfg.File)
			}
			if cmd.InOrStdin() != os.Stdin {
				a.stdin = cmd.InOrStdin()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./sqlcipher.yaml)")
	pf.StringP("database", "d", "", "Path to the database file (default :memory:)")
	pf.StringP("engine", "e", "", "Engine to use (see 'sqlcipher engines')")
	pf.String("key", "", "SQLCipher key")
	pf.BoolVar(&a.keyPrompt, "key-prompt", false, "Read the SQLCipher key from the terminal")
	pf.Duration("busy-timeout", 0, "How long to wait for a locked database")
	pf.Bool("foreign-keys", true, "Enforce foreign key constraints")
	pf.Bool("autocommit", false, "Do not open transactions implicitly")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("format", "f", "", "Output format (table|json|csv)")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newExecCommand(a))
	rootCmd.AddCommand(newShellCommand(a))
	rootCmd.AddCommand(newTablesCommand(a))
	rootCmd.AddCommand(newSchemaCommand(a))
	rootCmd.AddCommand(newEnginesCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
