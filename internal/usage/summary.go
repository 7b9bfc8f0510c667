package usage

import (
	"sort"
	"time"

	"github.com/jgoulah/screenflux/pkg/models"
)

// AppSummary totals one app's sessions on one device
type AppSummary struct {
	Device    string
	App       string
	Sessions  int
	Total     time.Duration
	FirstSeen time.Time
	LastSeen  time.Time
}

// Summarize totals each (device, app) pair. Results are sorted by device,
// then by descending total time. Inverted intervals count as zero time.
func Summarize(records []models.UsageRecord) []AppSummary {
	type key struct{ device, app string }
	byKey := make(map[key]*AppSummary)

	for _, r := range records {
		k := key{r.DeviceModel, r.App}
		s, ok := byKey[k]
		if !ok {
			s = &AppSummary{Device: r.DeviceModel, App: r.App, FirstSeen: r.StartTime, LastSeen: r.EndTime}
			byKey[k] = s
		}
		s.Sessions++
		if d := r.EndTime.Sub(r.StartTime); d > 0 {
			s.Total += d
		}
		if r.StartTime.Before(s.FirstSeen) {
			s.FirstSeen = r.StartTime
		}
		if r.EndTime.After(s.LastSeen) {
			s.LastSeen = r.EndTime
		}
	}

	out := make([]AppSummary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Device != out[j].Device {
			return out[i].Device < out[j].Device
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].App < out[j].App
	})
	return out
}
