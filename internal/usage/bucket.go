package usage

import (
	"sort"
	"strings"
	"time"

	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Granularity is the calendar period used to bucket charts
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// FallbackGranularity is used for unrecognized tokens
const FallbackGranularity = GranularityYear

var ValidGranularities = []Granularity{
	GranularityDay,
	GranularityWeek,
	GranularityMonth,
	GranularityYear,
}

// ParseGranularity maps a user token to a Granularity. The second return is
// false when the token is not recognized, in which case FallbackGranularity
// is returned.
func ParseGranularity(token string) (Granularity, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	for _, g := range ValidGranularities {
		if string(g) == s {
			return g, true
		}
	}
	return FallbackGranularity, false
}

// Truncate returns the start of the calendar period containing t, in t's location
func (g Granularity) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()

	switch g {
	case GranularityDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case GranularityWeek:
		// Monday = 0
		back := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-back, 0, 0, 0, 0, loc)
	case GranularityMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
}

// Next returns the start of the period following the one beginning at start
func (g Granularity) Next(start time.Time) time.Time {
	y, m, d := start.Date()
	loc := start.Location()

	switch g {
	case GranularityDay:
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	case GranularityWeek:
		return time.Date(y, m, d+7, 0, 0, 0, 0, loc)
	case GranularityMonth:
		// time.Date normalizes month 13 to January of the next year
		return time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y+1, time.January, 1, 0, 0, 0, 0, loc)
	}
}

// Padding is the visual margin added on both sides of a bucket's axis
func (g Granularity) Padding() time.Duration {
	switch g {
	case GranularityDay:
		return time.Hour
	case GranularityWeek:
		return 12 * time.Hour
	case GranularityMonth:
		return 8 * time.Hour
	default:
		return 5 * 24 * time.Hour
	}
}

// Bucket is a half-open calendar range [Start, End) with a rendering margin
type Bucket struct {
	Start   time.Time
	End     time.Time
	Padding time.Duration
}

// Contains reports whether t falls in [Start, End)
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// Overlaps reports whether iv shares any time with the bucket. Intervals that
// only touch a boundary are excluded.
func (b Bucket) Overlaps(iv models.Interval) bool {
	return iv.Start.Before(b.End) && iv.End.After(b.Start)
}

// AxisRange returns the visible time axis for the bucket
func (b Bucket) AxisRange() (time.Time, time.Time) {
	return b.Start.Add(-b.Padding), b.End.Add(b.Padding)
}

// BucketFor returns the bucket of granularity g containing t
func (g Granularity) BucketFor(t time.Time) Bucket {
	start := g.Truncate(t)
	return Bucket{Start: start, End: g.Next(start), Padding: g.Padding()}
}

// Planner computes the buckets a device needs
type Planner struct {
	Logger zerolog.Logger
}

// NewPlanner returns a Planner that reports diagnostics to logger
func NewPlanner(logger zerolog.Logger) *Planner {
	return &Planner{Logger: logger}
}

// Resolve parses token, logging a warning and returning FallbackGranularity
// when it is not recognized
func (p *Planner) Resolve(token string) Granularity {
	g, ok := ParseGranularity(token)
	if !ok {
		p.Logger.Warn().
			Str("granularity", token).
			Str("fallback", string(g)).
			Msg("Use a valid granularity of 'day', 'week', 'month', or 'year'")
	}
	return g
}

// Plan resolves token and returns one bucket per distinct period touched by a
// record's start time, sorted ascending
func (p *Planner) Plan(records []models.UsageRecord, token string) (Granularity, []Bucket) {
	g := p.Resolve(token)
	return g, PlanBuckets(records, g)
}

// PlanBuckets returns the sorted, duplicate-free buckets for g
func PlanBuckets(records []models.UsageRecord, g Granularity) []Bucket {
	starts := lo.UniqBy(
		lo.Map(records, func(r models.UsageRecord, _ int) time.Time { return g.Truncate(r.StartTime) }),
		func(t time.Time) int64 { return t.UnixNano() },
	)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	return lo.Map(starts, func(start time.Time, _ int) Bucket {
		return Bucket{Start: start, End: g.Next(start), Padding: g.Padding()}
	})
}
