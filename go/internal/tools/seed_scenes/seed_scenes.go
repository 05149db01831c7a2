package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/mediawall/panosync/go/internal/stats"
)

// Scene is one panoramic clip entry in the scenes YAML.
type Scene struct {
	Slug          string  `yaml:"slug"`
	Title         string  `yaml:"title"`
	VideoURL      string  `yaml:"video_url"`
	DurationSec   float64 `yaml:"duration_sec"`
	ViewportCount int     `yaml:"viewport_count"`
	FOV           float64 `yaml:"fov"`
}

type sceneFile struct {
	Scenes []Scene `yaml:"scenes"`
}

func main() {
	path := "go/internal/assets/scenes.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read YAML: %v\n", err)
		os.Exit(1)
	}
	var file sceneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal YAML: %v\n", err)
		os.Exit(1)
	}

	cfg := stats.DBConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var (
		total    = len(file.Scenes)
		inserted int
		skipped  int
		errs     int
	)

	for _, s := range file.Scenes {
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO scenes (
              slug, title, video_url, duration_sec, viewport_count, fov
            ) VALUES (
              $1,$2,$3,$4,$5,$6
            )
            ON CONFLICT (slug) DO NOTHING
        `,
			s.Slug, s.Title, s.VideoURL, s.DurationSec, s.ViewportCount, s.FOV,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting scene %s: %v\n", s.Slug, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	fmt.Printf("scenes: %d total, %d inserted, %d skipped, %d errors\n", total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
