package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/jgoulah/screenflux/internal/chart"
	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options configures a plotting run
type Options struct {
	Granularity string
	PlotDir     string
	Device      string // only plot this device model when set
	Workers     int
	Renderer    chart.Renderer
	Logger      zerolog.Logger
	// OnChart is called after each chart is written. It may be called from
	// several goroutines when Workers > 1.
	OnChart func(path string, c chart.Chart)
}

// Summary describes what a run produced
type Summary struct {
	Granularity usage.Granularity
	Devices     int
	Charts      int
	Bars        int
}

// Plan is the bucket plan for one device
type Plan struct {
	Device  string
	Apps    map[string][]models.Interval
	Buckets []usage.Bucket
	Records []models.UsageRecord
}

// BuildPlans aggregates records and plans buckets for every device. The
// returned plans are sorted by device model.
func BuildPlans(records []models.UsageRecord, token string, device string, logger zerolog.Logger) (usage.Granularity, []Plan) {
	set := usage.Aggregate(records)
	byDevice := usage.ByDevice(records)

	g := usage.NewPlanner(logger).Resolve(token)

	var plans []Plan
	for _, d := range usage.Devices(set) {
		if device != "" && d != device {
			continue
		}
		plans = append(plans, Plan{
			Device:  d,
			Apps:    set[d],
			Buckets: usage.PlanBuckets(byDevice[d], g),
			Records: byDevice[d],
		})
	}

	return g, plans
}

// Run renders one chart per device per bucket into opts.PlotDir. The first
// render failure aborts the run and is returned.
func Run(ctx context.Context, records []models.UsageRecord, opts Options) (Summary, error) {
	g, plans := BuildPlans(records, opts.Granularity, opts.Device, opts.Logger)

	var charts, bars atomic.Int64
	renderDevice := func(ctx context.Context, plan Plan) error {
		log := opts.Logger.With().Str("device", plan.Device).Logger()
		log.Debug().Int("buckets", len(plan.Buckets)).Int("records", len(plan.Records)).Msg("Rendering device")

		for _, bucket := range plan.Buckets {
			if err := ctx.Err(); err != nil {
				return err
			}

			c := chart.Layout(plan.Device, g, plan.Apps, bucket)
			name := chart.FileName(plan.Device, g, bucket.Start)
			path := filepath.Join(opts.PlotDir, name)

			if err := opts.Renderer.Render(path, c); err != nil {
				return fmt.Errorf("rendering %s for %s: %w", name, plan.Device, err)
			}

			charts.Add(1)
			bars.Add(int64(c.BarCount()))
			log.Debug().Str("file", name).Int("bars", c.BarCount()).Msg("Chart written")
			if opts.OnChart != nil {
				opts.OnChart(path, c)
			}
		}
		return nil
	}

	var err error
	if opts.Workers <= 1 {
		for _, plan := range plans {
			if err = renderDevice(ctx, plan); err != nil {
				break
			}
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		for _, plan := range plans {
			plan := plan
			eg.Go(func() error {
				return renderDevice(egCtx, plan)
			})
		}
		err = eg.Wait()
	}

	summary := Summary{
		Granularity: g,
		Devices:     len(plans),
		Charts:      int(charts.Load()),
		Bars:        int(bars.Load()),
	}
	return summary, err
}
