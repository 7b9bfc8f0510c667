package chart

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func iv(start, end string) models.Interval {
	return models.Interval{Start: at(start), End: at(end)}
}

func TestLayoutFiltersByOverlap(t *testing.T) {
	apps := map[string][]models.Interval{
		"Mail": {
			iv("2024-01-01T09:00", "2024-01-01T09:30"),
			iv("2024-01-03T10:00", "2024-01-03T10:10"),
		},
		"Maps": {
			iv("2024-01-08T08:00", "2024-01-08T08:05"),
		},
		"Safari": {
			// ends exactly at the first bucket's start
			iv("2023-12-31T23:00", "2024-01-01T00:00"),
			// straddles the boundary between the two weeks
			iv("2024-01-07T23:30", "2024-01-08T00:30"),
		},
	}

	week1 := usage.GranularityWeek.BucketFor(at("2024-01-01T12:00"))
	c := Layout("iPhone", usage.GranularityWeek, apps, week1)

	assert.Equal(t, "iPhone", c.Device)
	require.Len(t, c.Rows, 3)
	assert.Equal(t, "Mail", c.Rows[0].App)
	assert.Equal(t, "Maps", c.Rows[1].App)
	assert.Equal(t, "Safari", c.Rows[2].App)

	assert.Len(t, c.Rows[0].Bars, 2)
	assert.Empty(t, c.Rows[1].Bars)
	require.Len(t, c.Rows[2].Bars, 1)
	// straddling bars keep their real extent
	assert.Equal(t, at("2024-01-08T00:30"), c.Rows[2].Bars[0].End)
	assert.Equal(t, 3, c.BarCount())

	week2 := usage.GranularityWeek.BucketFor(at("2024-01-08T12:00"))
	c = Layout("iPhone", usage.GranularityWeek, apps, week2)

	mail, ok := c.RowFor("Mail")
	require.True(t, ok)
	assert.Empty(t, mail.Bars)

	maps, ok := c.RowFor("Maps")
	require.True(t, ok)
	assert.Len(t, maps.Bars, 1)

	safari, _ := c.RowFor("Safari")
	assert.Len(t, safari.Bars, 1)

	_, ok = c.RowFor("Xcode")
	assert.False(t, ok)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		device string
		g      usage.Granularity
		start  time.Time
		want   string
	}{
		{"iPhone", usage.GranularityWeek, at("2024-01-01T00:00"), "iPhone_week_2024-01-01.png"},
		{"MacBookPro18,3", usage.GranularityMonth, at("2024-02-01T00:00"), "MacBookPro18,3_month_2024-02-01.png"},
		{"a/b\\c", usage.GranularityDay, at("2024-03-09T00:00"), "a-b-c_day_2024-03-09.png"},
		{models.UnknownDevice, usage.GranularityYear, at("2023-01-01T00:00"), "Unknown_year_2023-01-01.png"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.device, tt.g, tt.start))
		})
	}
}

func TestPNGRendererWritesImage(t *testing.T) {
	apps := map[string][]models.Interval{
		"com.apple.mail":   {iv("2024-01-01T09:00", "2024-01-01T09:30")},
		"com.apple.Safari": {iv("2024-01-01T10:00", "2024-01-01T10:00")},
	}

	for _, g := range usage.ValidGranularities {
		t.Run(string(g), func(t *testing.T) {
			bucket := g.BucketFor(at("2024-01-01T09:00"))
			c := Layout("Mac", g, apps, bucket)

			path := filepath.Join(t.TempDir(), FileName("Mac", g, bucket.Start))
			r := NewPNGRenderer(PNGOptions{Width: 800, RowHeight: 20})
			require.NoError(t, r.Render(path, c))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, 800, img.Bounds().Dx())
			assert.Equal(t, int(marginTop+marginBottom)+2*20, img.Bounds().Dy())
		})
	}
}

func TestPNGRendererNoRows(t *testing.T) {
	bucket := usage.GranularityDay.BucketFor(at("2024-01-01T09:00"))
	c := Layout("Mac", usage.GranularityDay, nil, bucket)

	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, NewPNGRenderer(PNGOptions{}).Render(path, c))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPNGRendererMissingDir(t *testing.T) {
	bucket := usage.GranularityDay.BucketFor(at("2024-01-01T09:00"))
	c := Layout("Mac", usage.GranularityDay, nil, bucket)

	err := NewPNGRenderer(PNGOptions{}).Render(filepath.Join(t.TempDir(), "missing", "x.png"), c)
	assert.Error(t, err)
}

func TestTicks(t *testing.T) {
	tests := []struct {
		g     usage.Granularity
		at    string
		count int
		first time.Time
	}{
		// 23:00 previous day .. 01:00 next day, hourly
		{usage.GranularityDay, "2024-01-01T09:00", 27, at("2023-12-31T23:00")},
		// Sunday 12:00 .. next Monday 12:00, daily from Monday
		{usage.GranularityWeek, "2024-01-03T09:00", 8, at("2024-01-01T00:00")},
		// Jan 2024 with 8h padding, daily
		{usage.GranularityMonth, "2024-01-15T09:00", 32, at("2024-01-01T00:00")},
		// 2024 with 5 days padding, monthly
		{usage.GranularityYear, "2024-06-15T09:00", 13, at("2024-01-01T00:00")},
	}
	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			b := tt.g.BucketFor(at(tt.at))
			from, to := b.AxisRange()
			step, _, _ := tickSpec(tt.g)

			got := ticks(from, to, tt.g, step)
			require.Len(t, got, tt.count)
			assert.Equal(t, tt.first, got[0])
			for _, tk := range got {
				assert.False(t, tk.Before(from))
				assert.False(t, tk.After(to))
			}
		})
	}
}
