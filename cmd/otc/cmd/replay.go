package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/editscript"
)

var replayCmd = &cobra.Command{
	Use:   "replay <board_file> <script_file>",
	Short: "Run an edit script against a board",
	Long: `Loads a board, builds its connectivity and runs an edit script
against it, printing one transcript line per command.

The script stops at the first failing command or expectation.`,
	Args: cobra.ExactArgs(2),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	parser, err := editscript.NewParser()
	if err != nil {
		return err
	}
	script, err := parser.ParseFile(args[1])
	if err != nil {
		return err
	}

	b, store, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := editscript.Run(cmd.Context(), script, &editscript.Env{
		Board: b,
		Store: store,
		Out:   out,
		Log:   commandLogger(cmd),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	fmt.Fprintf(out, "\n%d commands, %d unconnected\n", res.Commands, res.Unconnected)
	return nil
}
