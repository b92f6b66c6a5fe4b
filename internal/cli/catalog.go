package cli

import (
	"fmt"
	"io"

	"github.com/jakoblorz/sqlcipher"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.connect(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			return listTables(cmd.OutOrStdout(), conn)
		},
	}
}

func newSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema TABLE",
		Short: "Show the columns and CREATE statement of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.connect(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			return showSchema(cmd.OutOrStdout(), conn, args[0])
		},
	}
}

func listTables(w io.Writer, conn *sqlcipher.Connection) error {
	names, err := conn.Tables()
	if err != nil {
		return err
	}
	for _, name := range names {
		_, _ = fmt.Fprintln(w, name)
	}
	return nil
}

func showSchema(w io.Writer, conn *sqlcipher.Connection, name string) error {
	columns, err := conn.TableInfo(name)
	if err != nil {
		return err
	}
	create, err := conn.Schema(name)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "name", "type", "category", "not null", "default", "pk"})
	for _, c := range columns {
		def := ""
		if c.Default.Valid {
			def = c.Default.String
		}
		t.AppendRow(table.Row{c.CID, c.Name, c.Type, category(c.Column()), c.NotNull, def, c.PrimaryKey})
	}
	t.Render()
	_, _ = fmt.Fprintln(w, create+";")
	return nil
}

func category(col sqlcipher.Column) string {
	for _, cat := range []sqlcipher.TypeCategory{sqlcipher.STRING, sqlcipher.BINARY, sqlcipher.NUMBER, sqlcipher.DATETIME} {
		if cat.Matches(col) {
			return cat.String()
		}
	}
	return ""
}
