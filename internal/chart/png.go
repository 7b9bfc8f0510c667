package chart

import (
	"fmt"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/samber/lo"
)

// tab10 palette
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

const (
	marginTop    = 36.0
	marginBottom = 44.0
	marginRight  = 24.0
	labelPad     = 12.0
)

// PNGOptions configures PNGRenderer
type PNGOptions struct {
	Width     int
	RowHeight int
}

// PNGRenderer draws charts as PNG images. Each Render call uses its own
// drawing surface, so a PNGRenderer is safe for concurrent use.
type PNGRenderer struct {
	width     int
	rowHeight int
}

// NewPNGRenderer creates a renderer, applying defaults for zero options
func NewPNGRenderer(opts PNGOptions) *PNGRenderer {
	if opts.Width <= 0 {
		opts.Width = 1600
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = 28
	}
	return &PNGRenderer{width: opts.Width, rowHeight: opts.RowHeight}
}

// Render draws c and writes it to path
func (r *PNGRenderer) Render(path string, c Chart) error {
	dc := r.draw(c)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("writing chart %s: %w", path, err)
	}
	return nil
}

func (r *PNGRenderer) draw(c Chart) *gg.Context {
	lanes := max(len(c.Rows), 1)
	height := int(marginTop+marginBottom) + lanes*r.rowHeight

	dc := gg.NewContext(r.width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	labelWidth := 0.0
	for _, row := range c.Rows {
		w, _ := dc.MeasureString(row.App)
		labelWidth = math.Max(labelWidth, w)
	}
	left := labelWidth + 2*labelPad
	right := float64(r.width) - marginRight
	bottom := marginTop + float64(lanes*r.rowHeight)

	axisLo, axisHi := c.Bucket.AxisRange()
	span := axisHi.Sub(axisLo).Seconds()
	x := func(t time.Time) float64 {
		frac := t.Sub(axisLo).Seconds() / span
		frac = math.Min(math.Max(frac, 0), 1)
		return left + frac*(right-left)
	}

	// title
	dc.SetHexColor("#000000")
	title := fmt.Sprintf("%s  %s of %s", c.Device, c.Granularity, c.Bucket.Start.Format("2006-01-02"))
	dc.DrawStringAnchored(title, left, marginTop/2, 0, 0.5)

	drawTicks(dc, c, x, marginTop, bottom)

	// bucket boundaries
	dc.SetHexColor("#555555")
	dc.SetLineWidth(1.5)
	for _, t := range []time.Time{c.Bucket.Start, c.Bucket.End} {
		dc.DrawLine(x(t), marginTop, x(t), bottom)
		dc.Stroke()
	}

	barHeight := float64(r.rowHeight) * 0.5
	for i, row := range c.Rows {
		center := marginTop + (float64(i)+0.5)*float64(r.rowHeight)

		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(row.App, left-labelPad, center, 1, 0.5)

		dc.SetHexColor(palette[i%len(palette)])
		for _, bar := range row.Bars {
			x0, x1 := x(bar.Start), x(bar.End)
			dc.DrawRectangle(x0, center-barHeight/2, math.Max(x1-x0, 1), barHeight)
			dc.Fill()
		}
	}

	// frame
	dc.SetHexColor("#000000")
	dc.SetLineWidth(1)
	dc.DrawRectangle(left, marginTop, right-left, bottom-marginTop)
	dc.Stroke()

	return dc
}

// drawTicks draws vertical grid lines and labels for the subdivisions of the
// chart's granularity that fall inside the axis.
func drawTicks(dc *gg.Context, c Chart, x func(time.Time) float64, top, bottom float64) {
	axisLo, axisHi := c.Bucket.AxisRange()
	step, layout, every := tickSpec(c.Granularity)

	for i, t := range ticks(axisLo, axisHi, c.Granularity, step) {
		dc.SetHexColor("#e0e0e0")
		dc.SetLineWidth(1)
		dc.DrawLine(x(t), top, x(t), bottom)
		dc.Stroke()

		if i%every == 0 {
			dc.SetHexColor("#333333")
			dc.DrawStringAnchored(t.Format(layout), x(t), bottom+labelPad, 0.5, 1)
		}
	}
}

// tickSpec returns the tick step, label layout and label frequency for g
func tickSpec(g usage.Granularity) (func(time.Time) time.Time, string, int) {
	switch g {
	case usage.GranularityDay:
		return func(t time.Time) time.Time { return t.Add(time.Hour) }, "15:04", 3
	case usage.GranularityWeek:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, "Mon 01-02", 1
	case usage.GranularityMonth:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, "01-02", 5
	default:
		return func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, "Jan", 1
	}
}

// ticks returns calendar-aligned tick positions in [from, to]. Padding is
// always shorter than one period, so stepping from the period containing
// from covers the whole axis.
func ticks(from, to time.Time, g usage.Granularity, step func(time.Time) time.Time) []time.Time {
	var out []time.Time
	for t := g.Truncate(from); !t.After(to); t = step(t) {
		if !t.Before(from) {
			out = append(out, t)
		}
	}
	return lo.UniqBy(out, func(t time.Time) int64 { return t.UnixNano() })
}
