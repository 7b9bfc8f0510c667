package models

import "time"

// UnknownDevice is substituted for missing device identifiers and models
const UnknownDevice = "Unknown"

// RawRow is one row of the /app/usage stream as returned by the knowledge store.
// Epoch values are Unix seconds (the Cocoa epoch correction is applied in SQL).
type RawRow struct {
	App         string
	Usage       float64
	StartEpoch  float64
	EndEpoch    float64
	CreatedAt   float64
	TZOffset    int64
	DeviceID    *string
	DeviceModel *string
}

// UsageRecord represents a single app foreground session
type UsageRecord struct {
	App          string    `json:"app"`
	UsageSeconds float64   `json:"usage_seconds"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DeviceID     string    `json:"device_id"`
	DeviceModel  string    `json:"device_model"`
}

// Interval is a single (start, end) pair taken from one UsageRecord
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IntervalSet maps device model -> app -> intervals sorted by start
type IntervalSet map[string]map[string][]Interval
