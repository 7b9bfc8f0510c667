package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/screenflux/internal/chart"
	"github.com/jgoulah/screenflux/internal/config"
)

// Publisher sends per-bucket app totals to an MQTT broker
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// AppTotal is the usage of one app inside one bucket
type AppTotal struct {
	App      string        `json:"-"`
	Start    time.Time     `json:"bucket_start"`
	End      time.Time     `json:"bucket_end"`
	Duration time.Duration `json:"-"`
	Seconds  float64       `json:"seconds"`
	Sessions int           `json:"sessions"`
}

// New connects to the configured broker
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("screenflux-" + uuid.NewString())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.GetTopicPrefix(),
	}, nil
}

// Totals sums each row's bars clipped to the chart's bucket. Apps with no
// bars are reported with zero usage.
func Totals(c chart.Chart) []AppTotal {
	totals := make([]AppTotal, 0, len(c.Rows))
	for _, row := range c.Rows {
		var d time.Duration
		for _, bar := range row.Bars {
			start, end := bar.Start, bar.End
			if start.Before(c.Bucket.Start) {
				start = c.Bucket.Start
			}
			if end.After(c.Bucket.End) {
				end = c.Bucket.End
			}
			if end.After(start) {
				d += end.Sub(start)
			}
		}
		totals = append(totals, AppTotal{
			App:      row.App,
			Start:    c.Bucket.Start,
			End:      c.Bucket.End,
			Duration: d,
			Seconds:  d.Seconds(),
			Sessions: len(row.Bars),
		})
	}
	return totals
}

// Topic returns the topic for one app of one chart
func (p *Publisher) Topic(c chart.Chart, app string) string {
	return topic(p.topicPrefix, c, app)
}

func topic(prefix string, c chart.Chart, app string) string {
	clean := strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")
	return fmt.Sprintf("%s/%s/%s/%s", prefix, clean.Replace(c.Device), c.Granularity, clean.Replace(app))
}

// Publish sends one retained message per app in c and returns how many were sent
func (p *Publisher) Publish(c chart.Chart) (int, error) {
	sent := 0
	for _, total := range Totals(c) {
		body, err := json.Marshal(total)
		if err != nil {
			return sent, fmt.Errorf("encoding payload: %w", err)
		}

		token := p.client.Publish(p.Topic(c, total.App), 1, true, body)
		if !token.WaitTimeout(10 * time.Second) {
			return sent, fmt.Errorf("publishing %s: timed out", total.App)
		}
		if err := token.Error(); err != nil {
			return sent, fmt.Errorf("publishing %s: %w", total.App, err)
		}
		sent++
	}
	return sent, nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
