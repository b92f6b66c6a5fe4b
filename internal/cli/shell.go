package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jakoblorz/sqlcipher"
	"github.com/spf13/cobra"
)

const (
	shellPrompt     = "sqlcipher> "
	shellContPrompt = "     ...> "
)

// lineReader is the part of *readline.Instance the shell uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

func newShellCommand(a *app) *cobra.Command {
	var asDict bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		Long: `Start an interactive shell on the database.

Statements end with a semicolon and may span several lines. Data
modifying statements open a transaction that stays open until .commit
or .rollback, unless --autocommit is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.connect(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			home, _ := os.UserHomeDir()
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          shellPrompt,
				HistoryFile:     filepath.Join(home, ".sqlcipher_history"),
				AutoComplete:    newCompleter(conn),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				Stdin:           io.NopCloser(a.stdin),
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize shell: %w", err)
			}
			defer func() { _ = rl.Close() }()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlcipher %s (database: %s)\n", Version, a.cfg.Database)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")

			sh := &shell{
				conn:   conn,
				out:    cmd.OutOrStdout(),
				errOut: cmd.ErrOrStderr(),
				format: a.cfg.Format,
				asDict: asDict,
			}
			return sh.run(rl)
		},
	}
	cmd.Flags().BoolVar(&asDict, "dict", false, "Key result rows by column name")
	return cmd
}

type shell struct {
	conn   *sqlcipher.Connection
	out    io.Writer
	errOut io.Writer
	format string
	asDict bool
}

func (sh *shell) run(lr lineReader) error {
	var buf strings.Builder
	for {
		line, err := lr.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			lr.SetPrompt(shellPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := sh.dotCommand(line); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			lr.SetPrompt(shellContPrompt)
			continue
		}
		lr.SetPrompt(shellPrompt)

		query := buf.String()
		buf.Reset()
		if err := sh.execute(query); err != nil {
			_, _ = fmt.Fprintf(sh.errOut, "Error: %v\n", err)
		}
	}
}

func (sh *shell) execute(query string) error {
	var opts []sqlcipher.CursorOption
	if sh.asDict {
		opts = append(opts, sqlcipher.WithDict())
	}
	cur := sh.conn.Cursor(opts...)
	defer cur.Close()
	if err := cur.Execute(query); err != nil {
		return err
	}
	return renderCursor(sh.out, cur, sh.format)
}

// dotCommand runs a shell command and reports whether the shell should exit.
func (sh *shell) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printShellHelp(sh.out)
	case ".tables":
		sh.report(listTables(sh.out, sh.conn))
	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(sh.errOut, "Usage: .schema <table>")
			break
		}
		sh.report(showSchema(sh.out, sh.conn, parts[1]))
	case ".commit":
		sh.report(sh.conn.Commit())
	case ".rollback":
		active, err := sh.conn.Rollback()
		if err == nil && !active {
			_, _ = fmt.Fprintln(sh.out, "no transaction is active")
		}
		sh.report(err)
	default:
		_, _ = fmt.Fprintf(sh.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func (sh *shell) report(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(sh.errOut, "Error: %v\n", err)
	}
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List all tables
  .schema <name>  Show the columns and CREATE statement of a table
  .commit         Commit the open transaction
  .rollback       Roll back the open transaction
  .quit / .exit   Exit the shell

Statements end with a semicolon (;).
`
	_, _ = fmt.Fprintln(w, help)
}

// newCompleter completes dot commands and the table names known at start.
func newCompleter(conn *sqlcipher.Connection) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	if names, err := conn.Tables(); err == nil {
		for _, name := range names {
			items = append(items, readline.PcItem(name))
		}
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".commit"),
		readline.PcItem(".rollback"),
		readline.PcItem(".quit"),
	)
	return readline.NewPrefixCompleter(items...)
}
