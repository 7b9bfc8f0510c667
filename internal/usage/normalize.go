package usage

import (
	"math"
	"time"

	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/samber/lo"
)

// Normalize converts one raw knowledge row into a UsageRecord. Missing device
// fields become models.UnknownDevice; nothing else is validated.
func Normalize(row models.RawRow, loc *time.Location) models.UsageRecord {
	if loc == nil {
		loc = time.Local
	}

	return models.UsageRecord{
		App:          row.App,
		UsageSeconds: row.Usage,
		StartTime:    epochToTime(row.StartEpoch, loc),
		EndTime:      epochToTime(row.EndEpoch, loc),
		DeviceID:     orUnknown(row.DeviceID),
		DeviceModel:  orUnknown(row.DeviceModel),
	}
}

// NormalizeAll normalizes every row, preserving order
func NormalizeAll(rows []models.RawRow, loc *time.Location) []models.UsageRecord {
	return lo.Map(rows, func(row models.RawRow, _ int) models.UsageRecord {
		return Normalize(row, loc)
	})
}

func orUnknown(s *string) string {
	if s == nil {
		return models.UnknownDevice
	}
	return *s
}

func epochToTime(epoch float64, loc *time.Location) time.Time {
	sec := math.Floor(epoch)
	nsec := math.Round((epoch - sec) * 1e9)
	return time.Unix(int64(sec), int64(nsec)).In(loc)
}
