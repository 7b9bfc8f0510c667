package usage

import (
	"sort"

	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/samber/lo"
)

// Aggregate groups records by device model and then by app. Each app's
// intervals are stably sorted by start; overlapping intervals are kept as-is
// so concurrent sessions remain visible.
func Aggregate(records []models.UsageRecord) models.IntervalSet {
	set := make(models.IntervalSet)

	for device, deviceRecords := range ByDevice(records) {
		set[device] = AppIntervals(deviceRecords)
	}

	return set
}

// AppIntervals groups one device's records by app
func AppIntervals(records []models.UsageRecord) map[string][]models.Interval {
	apps := make(map[string][]models.Interval)

	byApp := lo.GroupBy(records, func(r models.UsageRecord) string { return r.App })
	for app, appRecords := range byApp {
		intervals := lo.Map(appRecords, func(r models.UsageRecord, _ int) models.Interval {
			return models.Interval{Start: r.StartTime, End: r.EndTime}
		})
		sort.SliceStable(intervals, func(i, j int) bool {
			return intervals[i].Start.Before(intervals[j].Start)
		})
		apps[app] = intervals
	}

	return apps
}

// Devices returns the device models in set, sorted
func Devices(set models.IntervalSet) []string {
	devices := lo.Keys(set)
	sort.Strings(devices)
	return devices
}

// Apps returns the app names of one device, sorted
func Apps(apps map[string][]models.Interval) []string {
	names := lo.Keys(apps)
	sort.Strings(names)
	return names
}

// ByDevice partitions records by device model, preserving input order
func ByDevice(records []models.UsageRecord) map[string][]models.UsageRecord {
	return lo.GroupBy(records, func(r models.UsageRecord) string { return r.DeviceModel })
}
