package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/screenflux/internal/chart"
	"github.com/jgoulah/screenflux/internal/export"
	"github.com/jgoulah/screenflux/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	plotGranularity string
	plotDevice      string
	plotWorkers     int
	plotExport      bool
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render usage timeline charts",
	Long: `Renders one PNG chart per device for every calendar bucket that has activity.
Each chart has one row per app and a bar for every session overlapping the bucket.

Granularities: day, week, month, year`,
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&plotGranularity, "granularity", "", "Bucket size: day, week, month or year (default from config, then week)")
	plotCmd.Flags().StringVar(&plotDevice, "device", "", "Only plot this device model")
	plotCmd.Flags().IntVar(&plotWorkers, "workers", 0, "Render this many devices in parallel (default from config, then 1)")
	plotCmd.Flags().BoolVar(&plotExport, "export", false, "Also write a snapshot of the records to the export directory")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Plot started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	records, err := loadRecords(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No usage data found")
		return nil
	}

	if plotExport {
		paths, err := export.Write(cfg.GetExportDir(), records, time.Now())
		if err != nil {
			return fmt.Errorf("exporting snapshot: %w", err)
		}
		fmt.Printf("✓ Exported %d snapshot(s) to %s\n", len(paths), cfg.GetExportDir())
	}

	granularity := plotGranularity
	if granularity == "" {
		granularity = cfg.GetGranularity()
	}
	workers := plotWorkers
	if workers <= 0 {
		workers = cfg.GetWorkers()
	}

	summary, err := pipeline.Run(cmd.Context(), records, pipeline.Options{
		Granularity: granularity,
		PlotDir:     cfg.GetPlotDir(),
		Device:      plotDevice,
		Workers:     workers,
		Renderer: chart.NewPNGRenderer(chart.PNGOptions{
			Width:     cfg.Chart.GetWidth(),
			RowHeight: cfg.Chart.GetRowHeight(),
		}),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("plotting (%d charts written before failure): %w", summary.Charts, err)
	}

	if summary.Devices == 0 {
		fmt.Printf("No data found for device %s\n", plotDevice)
		return nil
	}

	fmt.Printf("✓ Wrote %d %s charts for %d device(s) to %s\n", summary.Charts, summary.Granularity, summary.Devices, cfg.GetPlotDir())
	return nil
}
