package config

import (
	"flag"
	"os"
	"time"

	"github.com/nchiang/moodiary/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-i int      online check interval in seconds (default from Config)
//	-d string   path of the local pending database
//	-t string   text sentiment API URL
//	-s string   speech emotion API URL
//	-f string   text+voice fusion API URL
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d", "-t", "-s", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointURL, "a", cfg.ServerEndpointURL, "base URL of the backend server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the local pending database")
	fs.StringVar(&cfg.TextAPIURL, "t", cfg.TextAPIURL, "text sentiment API URL")
	fs.StringVar(&cfg.SpeechAPIURL, "s", cfg.SpeechAPIURL, "speech emotion API URL")
	fs.StringVar(&cfg.FusionAPIURL, "f", cfg.FusionAPIURL, "text+voice fusion API URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
