package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/samber/lo"
)

// Chart is one device's timeline for one bucket
type Chart struct {
	Device      string
	Granularity usage.Granularity
	Bucket      usage.Bucket
	Rows        []Row
}

// Row is one app lane; Bars holds every interval overlapping the bucket
type Row struct {
	App  string
	Bars []models.Interval
}

// Renderer draws a chart to path
type Renderer interface {
	Render(path string, c Chart) error
}

// Layout builds the chart for bucket. Every app gets a row, even when none of
// its intervals overlap the bucket. Bars are not clipped.
func Layout(device string, g usage.Granularity, apps map[string][]models.Interval, bucket usage.Bucket) Chart {
	rows := lo.Map(usage.Apps(apps), func(app string, _ int) Row {
		return Row{
			App:  app,
			Bars: lo.Filter(apps[app], func(iv models.Interval, _ int) bool { return bucket.Overlaps(iv) }),
		}
	})

	return Chart{
		Device:      device,
		Granularity: g,
		Bucket:      bucket,
		Rows:        rows,
	}
}

// BarCount returns the total number of bars across all rows
func (c Chart) BarCount() int {
	return lo.SumBy(c.Rows, func(r Row) int { return len(r.Bars) })
}

// RowFor returns the row for app, if present
func (c Chart) RowFor(app string) (Row, bool) {
	return lo.Find(c.Rows, func(r Row) bool { return r.App == app })
}

var fileNameReplacer = strings.NewReplacer("/", "-", "\\", "-", string(rune(0)), "")

// FileName returns the artifact name for a device, granularity and bucket start
func FileName(device string, g usage.Granularity, bucketStart time.Time) string {
	return fmt.Sprintf("%s_%s_%s.png", fileNameReplacer.Replace(device), g, bucketStart.Format("2006-01-02"))
}
