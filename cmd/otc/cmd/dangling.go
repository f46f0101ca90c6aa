package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
)

var danglingCmd = &cobra.Command{
	Use:   "dangling <board_file>",
	Short: "List unconnected track and via ends",
	Args:  cobra.ExactArgs(1),
	RunE:  runDangling,
}

func init() {
	rootCmd.AddCommand(danglingCmd)
}

func runDangling(cmd *cobra.Command, args []string) error {
	b, store, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	count := 0
	for _, kind := range []board.Kind{board.KindTrack, board.KindArc, board.KindVia} {
		for _, it := range b.ItemsOfKind(kind) {
			pt, ok := store.TestTrackEndpointDangling(it)
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%-16s %-12s (%.3f, %.3f)\n", describe(b, it.Handle()), netName(b, it.Net()), pt.X, pt.Y)
			count++
		}
	}
	fmt.Fprintf(out, "\n%d dangling endpoints\n", count)
	return nil
}
