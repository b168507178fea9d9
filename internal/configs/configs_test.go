package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Board.Width != 1920 || cfg.Board.Height != 1080 {
		t.Errorf("Expected default 1920x1080 board, got %dx%d", cfg.Board.Width, cfg.Board.Height)
	}
	if cfg.Archive.Path != "" {
		t.Errorf("Expected archiving disabled by default, got %q", cfg.Archive.Path)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9999"
board:
  background: "#000000"
archive:
  path: "/tmp/archive.db"
  prune_interval: 1m
ratelimit:
  messages_per_second: 50
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("Write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Expected addr :9999, got %s", cfg.Server.Addr)
	}
	if cfg.Board.Background != "#000000" {
		t.Errorf("Expected background overridden, got %s", cfg.Board.Background)
	}
	if cfg.Archive.Path != "/tmp/archive.db" {
		t.Errorf("Expected archive path overridden, got %s", cfg.Archive.Path)
	}
	if cfg.Archive.PruneInterval != time.Minute {
		t.Errorf("Expected 1m prune interval, got %v", cfg.Archive.PruneInterval)
	}

	// Untouched keys keep their defaults.
	if cfg.Board.Width != 1920 {
		t.Errorf("Expected default width preserved, got %d", cfg.Board.Width)
	}
	if cfg.RateLimit.Burst != 200 {
		t.Errorf("Expected default burst preserved, got %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.MessagesPerSecond != 50 {
		t.Errorf("Expected rate overridden, got %v", cfg.RateLimit.MessagesPerSecond)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestDetermineConfigPathEnvWins(t *testing.T) {
	t.Setenv("INKROOM_CONFIG", "/some/path.yaml")
	if got := DetermineConfigPath(); got != "/some/path.yaml" {
		t.Errorf("Expected the env path, got %s", got)
	}
}
