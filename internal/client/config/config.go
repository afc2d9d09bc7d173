package config

import "time"

// Config holds runtime settings for the moodiary CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the backend REST API.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DBPath: path of the local SQLite pending store.
//   - TextAPIURL / TextAPIKey: text sentiment inference endpoint.
//   - SpeechAPIURL: speech emotion inference endpoint (empty disables voice).
//   - FusionAPIURL: text+voice fusion gateway (empty falls back to speech-only).
//
// Units: OnlineCheckInterval is a time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointURL   string
	OnlineCheckInterval time.Duration
	DBPath              string
	TextAPIURL          string
	TextAPIKey          string
	SpeechAPIURL        string
	FusionAPIURL        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.DBPath = "moodiary.db"
	c.TextAPIURL = ""
	c.TextAPIKey = ""
	c.SpeechAPIURL = ""
	c.FusionAPIURL = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
