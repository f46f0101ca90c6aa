package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

var (
	dragDX float64
	dragDY float64
)

var dragCmd = &cobra.Command{
	Use:   "drag <board_file> <reference>...",
	Short: "Preview ratsnest lines while moving footprints",
	Long: `Computes the preview ratsnest shown while the given footprints are
dragged by (--dx, --dy). The board itself is not modified.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDrag,
}

func init() {
	rootCmd.AddCommand(dragCmd)
	dragCmd.Flags().Float64Var(&dragDX, "dx", 0, "x offset in mm")
	dragCmd.Flags().Float64Var(&dragDY, "dy", 0, "y offset in mm")
}

func runDrag(cmd *cobra.Command, args []string) error {
	b, store, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}

	var moving []board.Item
	for _, ref := range args[1:] {
		fp := b.Footprint(ref)
		if fp == nil {
			return fmt.Errorf("footprint %q not found", ref)
		}
		moving = append(moving, fp)
	}

	ov, err := connectivity.NewOverlay(cmd.Context(), store, moving, nil)
	if err != nil {
		return fmt.Errorf("failed to build preview: %w", err)
	}

	out := cmd.OutOrStdout()
	lines := ov.Lines(geom.Point{X: dragDX, Y: dragDY})
	for _, l := range lines {
		fmt.Fprintf(out, "%-12s (%.3f, %.3f) -> (%.3f, %.3f)\n", netName(b, l.Net), l.A.X, l.A.Y, l.B.X, l.B.Y)
	}
	fmt.Fprintf(out, "\n%d lines\n", len(lines))
	return nil
}
