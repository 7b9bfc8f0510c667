package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/screenflux/internal/export"
	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save a snapshot of the usage records",
	Long: `Writes the normalized usage records to one zstd-compressed JSON file per device
model. The export directory must already exist.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Export directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	records, err := loadRecords(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	dir := exportDir
	if dir == "" {
		dir = cfg.GetExportDir()
	}

	paths, err := export.Write(dir, records, time.Now())
	if err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}

	for _, path := range paths {
		fmt.Printf("✓ %s\n", path)
	}
	fmt.Printf("Exported %d records across %d device(s)\n", len(records), len(paths))
	return nil
}
