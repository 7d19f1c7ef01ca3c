package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/kgc/config"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/pkg/export"
	"github.com/kilianp07/kgc/render"
	"github.com/kilianp07/kgc/source"
)

var (
	scheduleTitle  string
	exportPath     string
	exportFormat   string
	scheduleFields []string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Fetch and render the skins schedule once",
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the schedule as a text table",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, vis, err := fetchSnapshot(cmd)
		if err != nil {
			return err
		}
		return render.RenderText(cmd.OutOrStdout(), scheduleTitle, render.FromSnapshot(snap, vis))
	},
}

var scheduleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the schedule to an XLSX, CSV or JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, vis, err := fetchSnapshot(cmd)
		if err != nil {
			return err
		}
		write, err := exportWriter(exportFormat, exportPath)
		if err != nil {
			return err
		}
		f, err := os.Create(exportPath)
		if err != nil {
			return err
		}
		if err := write(f, snap, vis); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(snap.Merged), exportPath)
		return nil
	},
}

var scheduleStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print league run statistics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, _, err := fetchSnapshot(cmd)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(schedule.ComputeStats(snap.Merged))
	},
}

func init() {
	scheduleCmd.PersistentFlags().StringSliceVar(&scheduleFields, "columns", nil, "visible column keys, overriding the configuration")
	scheduleShowCmd.Flags().StringVar(&scheduleTitle, "title", "KGC Skins Schedule", "table title")
	scheduleExportCmd.Flags().StringVarP(&exportPath, "output", "o", "schedule.xlsx", "output file")
	scheduleExportCmd.Flags().StringVar(&exportFormat, "format", "", "xlsx, csv or json; inferred from the output extension when empty")
	scheduleCmd.AddCommand(scheduleShowCmd, scheduleExportCmd, scheduleStatsCmd)
	rootCmd.AddCommand(scheduleCmd)
}

type exportFunc func(io.Writer, *schedule.Snapshot, *schedule.Visibility) error

func exportWriter(format, path string) (exportFunc, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "xlsx", "":
		return func(w io.Writer, snap *schedule.Snapshot, vis *schedule.Visibility) error {
			return render.WriteXLSX(w, render.FromSnapshot(snap, vis))
		}, nil
	case "csv":
		return func(w io.Writer, snap *schedule.Snapshot, vis *schedule.Visibility) error {
			return export.WriteCSV(w, render.FromSnapshot(snap, vis))
		}, nil
	case "json":
		return func(w io.Writer, snap *schedule.Snapshot, _ *schedule.Visibility) error {
			return export.WriteJSON(w, snap.Records)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func fetchSnapshot(cmd *cobra.Command) (*schedule.Snapshot, *schedule.Visibility, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return loadOnce(cmd.Context(), cfg, scheduleFields)
}

// loadOnce performs a single load and builds the column state, preferring
// fields over the configured visible list when given.
func loadOnce(ctx context.Context, cfg *config.Config, fields []string) (*schedule.Snapshot, *schedule.Visibility, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cols := cfg.Columns
	if len(fields) > 0 {
		cols.Visible = fields
	}
	vis, err := cols.Visibility()
	if err != nil {
		return nil, nil, err
	}
	loader, err := source.NewLoader(cfg.Source)
	if err != nil {
		return nil, nil, err
	}
	records, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return schedule.NewSnapshot(records, time.Now()), vis, nil
}
