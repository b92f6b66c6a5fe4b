package cli

import (
	"fmt"
	"strings"

	"github.com/jakoblorz/sqlcipher"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlcipher v%s (%s)\n", Version, GitCommit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "apilevel %s, threadsafety %d, paramstyle %s\n",
				sqlcipher.APILevel, sqlcipher.ThreadSafety, sqlcipher.ParamStyle)
		},
	}
}

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the available engines",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(sqlcipher.Engines(), "\n"))
		},
	}
}
