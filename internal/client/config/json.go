package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/nchiang/moodiary/internal/flagx"
	"github.com/nchiang/moodiary/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointURL   string         `json:"server_endpoint_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DBPath              string         `json:"db_path"`
	TextAPIURL          string         `json:"text_api_url"`
	TextAPIKey          string         `json:"text_api_key"`
	SpeechAPIURL        string         `json:"speech_api_url"`
	FusionAPIURL        string         `json:"fusion_api_url"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointURL = jc.ServerEndpointURL
	cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	cfg.DBPath = jc.DBPath
	cfg.TextAPIURL = jc.TextAPIURL
	cfg.TextAPIKey = jc.TextAPIKey
	cfg.SpeechAPIURL = jc.SpeechAPIURL
	cfg.FusionAPIURL = jc.FusionAPIURL
}
