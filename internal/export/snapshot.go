package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/klauspost/compress/zstd"
)

// FileName returns the snapshot name for device generated at now
func FileName(device string, now time.Time) string {
	safe := strings.NewReplacer("/", "-", "\\", "-").Replace(device)
	return fmt.Sprintf("screentime_export_%s_%s.json.zst", safe, now.Format("20060102150405"))
}

// Write saves one compressed snapshot per device model into dir and returns
// the written paths. dir must already exist.
func Write(dir string, records []models.UsageRecord, now time.Time) ([]string, error) {
	byDevice := usage.ByDevice(records)

	devices := make([]string, 0, len(byDevice))
	for device := range byDevice {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	paths := make([]string, 0, len(devices))
	for _, device := range devices {
		path := filepath.Join(dir, FileName(device, now))
		if err := writeFile(path, byDevice[device]); err != nil {
			return paths, fmt.Errorf("exporting %s: %w", device, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, records []models.UsageRecord) error {
	data, err := sonic.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("creating compressor: %w", err)
	}

	if _, err := enc.Write(data); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	return f.Close()
}

// Read loads a snapshot written by Write
func Read(path string) ([]models.UsageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer dec.Close()

	var records []models.UsageRecord
	if err := sonic.ConfigDefault.NewDecoder(dec).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	return records, nil
}
