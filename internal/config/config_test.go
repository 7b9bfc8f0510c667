package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Library/Application Support/Knowledge/knowledgeC.db"), cfg.GetKnowledgeDB())
	assert.Equal(t, filepath.Join(home, "Nextcloud/coding/screentime/plots"), cfg.GetPlotDir())
	assert.Equal(t, filepath.Join(home, "Nextcloud/coding/screentime/data_bkp"), cfg.GetExportDir())
	assert.Equal(t, "week", cfg.GetGranularity())
	assert.Equal(t, 1, cfg.GetWorkers())
	assert.Equal(t, 1600, cfg.Chart.GetWidth())
	assert.Equal(t, 28, cfg.Chart.GetRowHeight())
	assert.Equal(t, "screentime", cfg.MQTT.GetTopicPrefix())

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
knowledge_db: /tmp/knowledgeC.db
plot_dir: /tmp/plots
granularity: month
timezone: UTC
workers: 4
chart:
  width: 1200
logging:
  level: debug
  format: text
mqtt:
  enabled: true
  broker: localhost:1883
  topic_prefix: home/screentime/
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/knowledgeC.db", cfg.GetKnowledgeDB())
	assert.Equal(t, "/tmp/plots", cfg.GetPlotDir())
	assert.Equal(t, "month", cfg.GetGranularity())
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, 1200, cfg.Chart.GetWidth())
	assert.Equal(t, 28, cfg.Chart.GetRowHeight())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "home/screentime", cfg.MQTT.GetTopicPrefix())

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &Config{Granularity: "day", Workers: 2}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "day", out.GetGranularity())
	assert.Equal(t, 2, out.GetWorkers())
}

func TestGetLocationInvalid(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	_, err := cfg.GetLocation()
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/plots", filepath.Join(home, "plots")},
		{"/abs/path", "/abs/path"},
		{"rel/~/path", "rel/~/path"},
		{"~other/path", "~other/path"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandHome(tt.in))
		})
	}
}
