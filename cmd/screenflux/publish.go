package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/screenflux/internal/chart"
	"github.com/jgoulah/screenflux/internal/pipeline"
	"github.com/jgoulah/screenflux/internal/publisher"
	"github.com/spf13/cobra"
)

var (
	publishGranularity string
	publishDevice      string
	publishLast        int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish per-bucket app totals over MQTT",
	Long: `Plans buckets the same way as plot and publishes, for every app, the time spent
inside each bucket as a retained MQTT message on
<topic_prefix>/<device>/<granularity>/<app>.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishGranularity, "granularity", "", "Bucket size: day, week, month or year (default from config, then week)")
	publishCmd.Flags().StringVar(&publishDevice, "device", "", "Only publish this device model")
	publishCmd.Flags().IntVar(&publishLast, "last", 1, "Publish only the most recent N buckets per device (0 = all)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	records, err := loadRecords(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	granularity := publishGranularity
	if granularity == "" {
		granularity = cfg.GetGranularity()
	}
	g, plans := pipeline.BuildPlans(records, granularity, publishDevice, logger)
	if len(plans) == 0 {
		fmt.Println("No usage data found")
		return nil
	}

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	totalSent := 0
	for _, plan := range plans {
		buckets := plan.Buckets
		if publishLast > 0 && len(buckets) > publishLast {
			buckets = buckets[len(buckets)-publishLast:]
		}

		fmt.Printf("Publishing %d %s bucket(s) for %s...\n", len(buckets), g, plan.Device)
		for i, bucket := range buckets {
			c := chart.Layout(plan.Device, g, plan.Apps, bucket)
			fmt.Printf("[%d/%d] %s... ", i+1, len(buckets), bucket.Start.Format("2006-01-02"))

			sent, err := pub.Publish(c)
			totalSent += sent
			if err != nil {
				fmt.Printf("FAILED: %v\n", err)
				continue
			}
			fmt.Printf("✓ %d apps\n", sent)
		}
	}

	fmt.Printf("\nTotal messages published: %d\n", totalSent)
	return nil
}
