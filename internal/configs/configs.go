package configs

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Board     BoardConfig     `koanf:"board"`
	Archive   ArchiveConfig   `koanf:"archive"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type BoardConfig struct {
	Width      int    `koanf:"width"`
	Height     int    `koanf:"height"`
	Background string `koanf:"background"`
}

type ArchiveConfig struct {
	// Path to the sqlite file; empty disables archiving entirely.
	Path            string        `koanf:"path"`
	PruneInterval   time.Duration `koanf:"prune_interval"`
	StrokeThreshold int           `koanf:"stroke_threshold"`
	KeepRecent      int           `koanf:"keep_recent"`
}

type RateLimitConfig struct {
	MessagesPerSecond float64 `koanf:"messages_per_second"`
	Burst             int     `koanf:"burst"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Board: BoardConfig{
			Width:      1920,
			Height:     1080,
			Background: "#ffffff",
		},
		Archive: ArchiveConfig{
			Path:            "",
			PruneInterval:   5 * time.Minute,
			StrokeThreshold: 1000,
			KeepRecent:      500,
		},
		RateLimit: RateLimitConfig{
			MessagesPerSecond: 100,
			Burst:             200,
		},
	}
}

// DetermineConfigPath looks for a config file in the conventional places.
// Returns "" when none exists; the server then runs on defaults.
func DetermineConfigPath() string {
	if p := os.Getenv("INKROOM_CONFIG"); p != "" {
		return p
	}

	candidates := []string{
		"./config.yaml",
		"./config.yml",
		"/etc/inkroom/config.yaml",
		"/app/config.yaml", // common in Docker
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the yaml file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
