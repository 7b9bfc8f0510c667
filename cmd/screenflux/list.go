package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var listDevice string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List app usage per device",
	Long:  `Displays every device found in the knowledge store with per-app session counts and total foreground time.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listDevice, "device", "", "Filter by device model")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	records, err := loadRecords(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	summaries := usage.Summarize(records)
	if listDevice != "" {
		summaries = lo.Filter(summaries, func(s usage.AppSummary, _ int) bool {
			return s.Device == listDevice
		})
	}

	if len(summaries) == 0 {
		fmt.Println("No usage data found")
		return nil
	}

	current := ""
	var deviceTotal time.Duration
	var deviceSessions int
	flush := func() {
		if current == "" {
			return
		}
		fmt.Println("------------------------------------------------------------------------")
		fmt.Printf("Total: %s (%s sessions)\n", formatDuration(deviceTotal), humanize.Comma(int64(deviceSessions)))
	}

	for _, s := range summaries {
		if s.Device != current {
			flush()
			current = s.Device
			deviceTotal, deviceSessions = 0, 0

			fmt.Printf("\n%s Usage:\n", s.Device)
			fmt.Println("------------------------------------------------------------------------")
			fmt.Printf("%-36s  %8s  %10s  %s\n", "App", "Sessions", "Total", "Last seen")
			fmt.Println("------------------------------------------------------------------------")
		}

		fmt.Printf("%-36s  %8s  %10s  %s\n", s.App, humanize.Comma(int64(s.Sessions)), formatDuration(s.Total), humanize.Time(s.LastSeen))
		deviceTotal += s.Total
		deviceSessions += s.Sessions
	}
	flush()

	return nil
}

// formatDuration renders d as hours and minutes, e.g. "12h05m"
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
