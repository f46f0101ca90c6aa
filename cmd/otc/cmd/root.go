package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/pcb"
)

var (
	// Global flags
	verbose    bool
	configFile string
	workers    int
)

var rootCmd = &cobra.Command{
	Use:   "otc",
	Short: "OpenTraceConn - PCB connectivity and ratsnest tools",
	Long: `OpenTraceConn (otc) computes copper connectivity and the ratsnest of
missing connections for KiCad boards.

Examples:
  otc nets board.kicad_pcb                  # Nets with cluster counts
  otc ratsnest board.kicad_pcb GND          # Clusters and ratsnest of one net
  otc dangling board.kicad_pcb              # Unconnected track ends
  otc replay board.kicad_pcb edits.otc      # Run an edit script
  otc drag board.kicad_pcb R1 --dx 2         # Preview lines while moving R1`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML connectivity config file")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel net workers (overrides config)")
}

// newLogger creates a logger that writes timestamped messages to w
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func commandLogger(cmd *cobra.Command) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return newLogger(cmd.ErrOrStderr(), level)
}

// loadBoard parses a KiCad board file into the item arena
func loadBoard(logger *log.Logger, filename string) (*board.Board, error) {
	pb, err := pcb.ParseFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error parsing board: %w", err)
	}
	bbox := pb.GetBoundingBox()
	logger.Debug("loaded board",
		"file", filename,
		"version", pb.Version,
		"generator", pb.Generator,
		"copper", len(pb.CopperLayers()),
		"footprints", len(pb.Footprints),
		"tracks", len(pb.Tracks)+len(pb.Arcs),
		"vias", len(pb.Vias),
		"zones", len(pb.Zones),
		"size", fmt.Sprintf("%.2fx%.2f mm", bbox.Max.X-bbox.Min.X, bbox.Max.Y-bbox.Min.Y))

	b, err := board.FromPCB(pb)
	if err != nil {
		return nil, fmt.Errorf("failed to convert board: %w", err)
	}
	return b, nil
}

// openBoard loads filename and builds its connectivity
func openBoard(cmd *cobra.Command, filename string) (*board.Board, *connectivity.Store, error) {
	logger := commandLogger(cmd)

	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	b, err := loadBoard(logger, filename)
	if err != nil {
		return nil, nil, err
	}
	store, err := connectivity.New(cfg, connectivity.WithLogger(logger), connectivity.WithLiveness(b))
	if err != nil {
		return nil, nil, err
	}

	p := newProgress(logger)
	if err := store.Build(cmd.Context(), b, p); err != nil {
		return nil, nil, err
	}
	p.done(fmt.Sprintf("Built connectivity for %s: %d items, %d nets", filename, store.ItemCount(), len(store.NetCodes())))
	return b, store, nil
}
