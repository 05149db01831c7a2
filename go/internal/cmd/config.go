package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mediawall/panosync/go/internal/clocksync"
)

type Config struct {
	Node struct {
		Master           bool    `yaml:"master"`
		VideoDurationSec float64 `yaml:"video_duration_sec"`
	} `yaml:"node"`

	Sync struct {
		SoftSyncMin float64 `yaml:"soft_sync_min"`
		SoftSyncMax float64 `yaml:"soft_sync_max"`
		FrameRate   int     `yaml:"frame_rate"`
	} `yaml:"sync"`

	NATS struct {
		URL                string `yaml:"url"`
		ClockSubject       string `yaml:"clock_subject"`
		OrientationSubject string `yaml:"orientation_subject"`
	} `yaml:"nats"`

	Viewports struct {
		Count int     `yaml:"count"`
		FOV   float64 `yaml:"fov"`
	} `yaml:"viewports"`

	Gateway struct {
		Port string `yaml:"port"`
	} `yaml:"gateway"`

	Stats struct {
		Enabled           bool `yaml:"enabled"`
		SampleIntervalSec int  `yaml:"sample_interval_sec"`
		RetentionHours    int  `yaml:"retention_hours"`
	} `yaml:"stats"`
}

func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine; env and defaults carry the config.
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)
	return &config, nil
}

func applyEnvOverrides(c *Config) {
	c.Node.Master = getEnvAsBool("PANOSYNC_MASTER", c.Node.Master)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Gateway.Port = getEnv("PORT", c.Gateway.Port)
}

func applyDefaults(c *Config) {
	if c.Node.VideoDurationSec <= 0 {
		c.Node.VideoDurationSec = 600
	}
	if c.Sync.SoftSyncMin == 0 {
		c.Sync.SoftSyncMin = clocksync.DefaultSoftSyncMin
	}
	if c.Sync.SoftSyncMax == 0 {
		c.Sync.SoftSyncMax = clocksync.DefaultSoftSyncMax
	}
	if c.Sync.FrameRate <= 0 {
		c.Sync.FrameRate = 60
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.Viewports.Count <= 0 {
		c.Viewports.Count = 3
	}
	if c.Viewports.FOV <= 0 {
		c.Viewports.FOV = 60
	}
	if c.Gateway.Port == "" {
		c.Gateway.Port = "8080"
	}
	if c.Stats.SampleIntervalSec <= 0 {
		c.Stats.SampleIntervalSec = 5
	}
	if c.Stats.RetentionHours <= 0 {
		c.Stats.RetentionHours = 168
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
