package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ratsnestCmd = &cobra.Command{
	Use:   "ratsnest <board_file> [net]",
	Short: "Show clusters and ratsnest edges",
	Long: `Shows the copper clusters and ratsnest edges of every net, or of a
single net given by code or name.

Missing edges are connections still to be routed. Hidden edges are
satisfied by copper added since the last full build.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRatsnest,
}

func init() {
	rootCmd.AddCommand(ratsnestCmd)
}

func runRatsnest(cmd *cobra.Command, args []string) error {
	b, store, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}

	nets := store.NetCodes()
	if len(args) > 1 {
		code, err := resolveNet(b, args[1])
		if err != nil {
			return err
		}
		nets = []int{code}
	}

	out := cmd.OutOrStdout()
	for _, code := range nets {
		if code == 0 {
			continue
		}
		clusters := store.Clusters(code)
		fmt.Fprintf(out, "Net %s (%d): %d clusters, %d unconnected\n",
			netName(b, code), code, len(clusters), unconnected(store, code))

		for i, c := range clusters {
			note := ""
			switch {
			case c.Orphaned:
				note = ", orphaned"
			case !c.OriginPad.IsZero():
				note = ", origin " + describe(b, c.OriginPad)
			}
			fmt.Fprintf(out, "  cluster %d: %d items%s\n", i, len(c.Items), note)
		}
		for _, e := range store.RatsnestEdges(code) {
			state := "missing"
			if !e.Visible {
				state = "hidden"
			}
			fmt.Fprintf(out, "  %-7s %s (%.3f, %.3f) -> %s (%.3f, %.3f)  %.3f mm\n", state,
				describe(b, e.Source.Handle), e.Source.Pos.X, e.Source.Pos.Y,
				describe(b, e.Target.Handle), e.Target.Pos.X, e.Target.Pos.Y,
				e.Length)
		}
	}
	fmt.Fprintf(out, "\nTotal unconnected: %d\n", store.GetUnconnectedCount())
	return nil
}
