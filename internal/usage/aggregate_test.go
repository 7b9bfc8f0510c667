package usage

import (
	"fmt"
	"testing"
	"time"

	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(device, app string, start, end time.Time) models.UsageRecord {
	return models.UsageRecord{
		App:          app,
		UsageSeconds: end.Sub(start).Seconds(),
		StartTime:    start,
		EndTime:      end,
		DeviceID:     device + "-id",
		DeviceModel:  device,
	}
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAggregateGroupsAndSorts(t *testing.T) {
	records := []models.UsageRecord{
		rec("iPhone", "Mail", at("2024-01-03T10:00"), at("2024-01-03T10:10")),
		rec("iPhone", "Maps", at("2024-01-08T08:00"), at("2024-01-08T08:05")),
		rec("Mac", "Mail", at("2024-01-02T12:00"), at("2024-01-02T12:30")),
		rec("iPhone", "Mail", at("2024-01-01T09:00"), at("2024-01-01T09:30")),
	}

	set := Aggregate(records)

	assert.Equal(t, []string{"Mac", "iPhone"}, Devices(set))
	assert.Equal(t, []string{"Mail", "Maps"}, Apps(set["iPhone"]))

	mail := set["iPhone"]["Mail"]
	require.Len(t, mail, 2)
	assert.Equal(t, at("2024-01-01T09:00"), mail[0].Start)
	assert.Equal(t, at("2024-01-03T10:00"), mail[1].Start)

	require.Len(t, set["Mac"]["Mail"], 1)
	assert.Equal(t, 30*time.Minute, set["Mac"]["Mail"][0].Duration())
}

func TestAggregateKeepsOverlappingIntervals(t *testing.T) {
	records := []models.UsageRecord{
		rec("iPad", "Notes", at("2024-05-01T10:00"), at("2024-05-01T11:00")),
		rec("iPad", "Notes", at("2024-05-01T10:00"), at("2024-05-01T11:00")),
		rec("iPad", "Notes", at("2024-05-01T10:30"), at("2024-05-01T10:45")),
	}

	set := Aggregate(records)
	assert.Len(t, set["iPad"]["Notes"], 3)
}

func TestAggregateIsPartition(t *testing.T) {
	devices := []string{"iPhone", "Mac", models.UnknownDevice}
	apps := []string{"Mail", "Maps", "Safari", "Xcode"}
	base := at("2024-01-01T00:00")

	var records []models.UsageRecord
	for i := 0; i < 97; i++ {
		start := base.Add(time.Duration(i*37) * time.Minute)
		records = append(records, rec(devices[i%len(devices)], apps[i%len(apps)], start, start.Add(time.Duration(i)*time.Minute)))
	}

	set := Aggregate(records)

	seen := make(map[string]int)
	total := 0
	for device, byApp := range set {
		for app, intervals := range byApp {
			for _, iv := range intervals {
				seen[fmt.Sprintf("%s|%s|%d|%d", device, app, iv.Start.UnixNano(), iv.End.UnixNano())]++
				total++
			}
		}
	}

	assert.Equal(t, len(records), total)
	for _, r := range records {
		key := fmt.Sprintf("%s|%s|%d|%d", r.DeviceModel, r.App, r.StartTime.UnixNano(), r.EndTime.UnixNano())
		assert.Equal(t, 1, seen[key], key)
	}
}

func TestAggregateEmpty(t *testing.T) {
	set := Aggregate(nil)
	assert.Empty(t, set)
	assert.Empty(t, Devices(set))
}
