package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Node.Master {
		t.Error("expected follower by default")
	}
	if cfg.Sync.SoftSyncMin != 0.025 || cfg.Sync.SoftSyncMax != 1.0 {
		t.Errorf("unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Sync.FrameRate != 60 {
		t.Errorf("expected 60 fps default, got %d", cfg.Sync.FrameRate)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("unexpected NATS default: %q", cfg.NATS.URL)
	}
	if cfg.Viewports.Count != 3 || cfg.Viewports.FOV != 60 {
		t.Errorf("unexpected viewport defaults: %+v", cfg.Viewports)
	}
	if cfg.Stats.SampleIntervalSec != 5 || cfg.Stats.RetentionHours != 168 {
		t.Errorf("unexpected stats defaults: %+v", cfg.Stats)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
node:
  master: true
  video_duration_sec: 120
sync:
  soft_sync_min: 0.05
  soft_sync_max: 2.0
  frame_rate: 30
nats:
  url: nats://wall-head:4222
viewports:
  count: 5
  fov: 45
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if !cfg.Node.Master {
		t.Error("expected master=true from file")
	}
	if cfg.Sync.SoftSyncMin != 0.05 || cfg.Sync.SoftSyncMax != 2.0 {
		t.Errorf("sync thresholds not read: %+v", cfg.Sync)
	}
	if cfg.NATS.URL != "nats://wall-head:4222" {
		t.Errorf("NATS url not read: %q", cfg.NATS.URL)
	}
	if cfg.Viewports.Count != 5 || cfg.Viewports.FOV != 45 {
		t.Errorf("viewports not read: %+v", cfg.Viewports)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PANOSYNC_MASTER", "true")
	t.Setenv("NATS_URL", "nats://override:4222")
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if !cfg.Node.Master {
		t.Error("expected PANOSYNC_MASTER override")
	}
	if cfg.NATS.URL != "nats://override:4222" {
		t.Errorf("expected NATS_URL override, got %q", cfg.NATS.URL)
	}
	if cfg.Gateway.Port != "9090" {
		t.Errorf("expected PORT override, got %q", cfg.Gateway.Port)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("node: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
