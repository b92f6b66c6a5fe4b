package cli

import (
	"fmt"

	"github.com/jakoblorz/sqlcipher"
	"github.com/spf13/cobra"
)

func newExecCommand(a *app) *cobra.Command {
	var (
		asDict bool
		script bool
	)
	cmd := &cobra.Command{
		Use:   "exec SQL [ARGS...]",
		Short: "Execute one statement",
		Long: `Execute one statement and print its result.

ARGS are bound as text to the ? placeholders of SQL, in order. The
statement is committed when it succeeds. With --script SQL may hold
several statements and ARGS are not allowed.`,
		Example: `  sqlcipher exec -d app.db "CREATE TABLE t(id INTEGER PRIMARY KEY, d TEXT)"
  sqlcipher exec -d app.db "INSERT INTO t(d) VALUES(?)" 2024-01-05
  sqlcipher exec -d app.db --format json "SELECT * FROM t"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if script && len(args) > 1 {
				return fmt.Errorf("--script does not take parameters")
			}
			conn, err := a.connect(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			var opts []sqlcipher.CursorOption
			if asDict {
				opts = append(opts, sqlcipher.WithDict())
			}
			cur := conn.Cursor(opts...)
			defer cur.Close()

			if script {
				if err := cur.ExecuteScript(args[0]); err != nil {
					return err
				}
			} else {
				params := make([]interface{}, len(args)-1)
				for i, p := range args[1:] {
					params[i] = p
				}
				if err := cur.Execute(args[0], params...); err != nil {
					return err
				}
			}
			if err := conn.Commit(); err != nil {
				return err
			}
			return renderCursor(cmd.OutOrStdout(), cur, a.cfg.Format)
		},
	}
	cmd.Flags().BoolVar(&asDict, "dict", false, "Key result rows by column name")
	cmd.Flags().BoolVar(&script, "script", false, "Run SQL as a script of several statements")
	return cmd
}
