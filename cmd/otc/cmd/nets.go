package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/connectivity"
)

var netsCmd = &cobra.Command{
	Use:   "nets <board_file>",
	Short: "List nets with connectivity counts",
	Long: `Builds the connectivity of a board and lists every net with its
item count, copper cluster count and number of missing connections.`,
	Args: cobra.ExactArgs(1),
	RunE: runNets,
}

func init() {
	rootCmd.AddCommand(netsCmd)
}

func runNets(cmd *cobra.Command, args []string) error {
	b, store, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-24s %6s %6s %8s %11s\n", "Net", "Code", "Items", "Clusters", "Unconnected")
	fmt.Fprintln(out, strings.Repeat("─", 59))
	for _, code := range b.NetCodes() {
		if code == 0 {
			continue
		}
		fmt.Fprintf(out, "%-24s %6d %6d %8d %11d\n",
			netName(b, code), code,
			len(store.GetNetItems(code, board.AllKinds)),
			len(store.Clusters(code)),
			unconnected(store, code))
	}
	fmt.Fprintf(out, "\nTotal unconnected: %d\n", store.GetUnconnectedCount())
	return nil
}

func netName(b *board.Board, code int) string {
	if name := b.NetName(code); name != "" {
		return name
	}
	return "<unnamed>"
}

// resolveNet accepts a net code or a net name
func resolveNet(b *board.Board, arg string) (int, error) {
	if code, err := strconv.Atoi(arg); err == nil {
		return code, nil
	}
	for _, code := range b.NetCodes() {
		if b.NetName(code) == arg {
			return code, nil
		}
	}
	return 0, fmt.Errorf("net %q not found", arg)
}

func unconnected(store *connectivity.Store, net int) int {
	n := 0
	for _, e := range store.RatsnestEdges(net) {
		if e.Visible {
			n++
		}
	}
	return n
}

// describe names the item behind h: "R1.2" for footprint pads, kind and
// handle otherwise
func describe(b *board.Board, h board.Handle) string {
	it := b.Get(h)
	if it == nil {
		return h.String()
	}
	if p, ok := it.(*board.Pad); ok {
		if fp, ok := b.Get(p.Footprint).(*board.Footprint); ok {
			return fp.Reference + "." + p.Number
		}
	}
	return it.Kind().String() + " " + h.String()
}
