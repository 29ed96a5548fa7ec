// Package catalog loads the static configuration the server runs on:
// the level table, XP constants, achievements, roleplay scenarios, the
// content filter word list and the lesson tracks. Everything is embedded
// and can be replaced by files at startup.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kalike-app/kalike/internal/lessons"
	"github.com/kalike-app/kalike/internal/progression"
	"github.com/kalike-app/kalike/internal/simulation"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

//go:embed tracks.yaml
var embeddedTracks []byte

// Thresholds are score cut-offs shared by the lesson and simulation
// paths.
type Thresholds struct {
	LessonCompletion    int `yaml:"lesson_completion"`
	HighScoreSimulation int `yaml:"high_score_simulation"`
}

// FilterConfig configures the keyword content filter.
type FilterConfig struct {
	BlockedWords []string `yaml:"blocked_words"`
}

type file struct {
	Levels        []int                     `yaml:"levels"`
	XP            progression.XPRules       `yaml:"xp"`
	Thresholds    Thresholds                `yaml:"thresholds"`
	Achievements  []progression.Achievement `yaml:"achievements"`
	Scenarios     []simulation.Scenario     `yaml:"scenarios"`
	ContentFilter FilterConfig              `yaml:"content_filter"`
}

// Catalog is the validated, immutable configuration.
type Catalog struct {
	Engine     *progression.Engine
	Scenarios  *simulation.Catalog
	Library    *lessons.Library
	Thresholds Thresholds
	Filter     FilterConfig
}

// Load reads the catalog and tracks from the given paths. An empty path
// selects the embedded document.
func Load(catalogPath, tracksPath string) (*Catalog, error) {
	catalogData, err := readOr(catalogPath, embeddedCatalog)
	if err != nil {
		return nil, err
	}
	tracksData, err := readOr(tracksPath, embeddedTracks)
	if err != nil {
		return nil, err
	}
	return Parse(catalogData, tracksData)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog, embeddedTracks)
}

// Parse decodes and validates a catalog document and a tracks document.
func Parse(catalogData, tracksData []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(catalogData))
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	levels, err := progression.NewLevelTable(f.Levels)
	if err != nil {
		return nil, fmt.Errorf("catalog levels: %w", err)
	}
	engine, err := progression.NewEngine(levels, f.XP, f.Achievements)
	if err != nil {
		return nil, fmt.Errorf("catalog achievements: %w", err)
	}
	scenarios, err := simulation.NewCatalog(f.Scenarios)
	if err != nil {
		return nil, fmt.Errorf("catalog scenarios: %w", err)
	}
	if err := f.Thresholds.validate(); err != nil {
		return nil, err
	}

	tracks, err := lessons.ParseTracks(tracksData)
	if err != nil {
		return nil, err
	}
	lib, err := lessons.NewLibrary(tracks)
	if err != nil {
		return nil, fmt.Errorf("lesson tracks: %w", err)
	}
	for _, t := range lib.Tracks() {
		if t.Simulation == "" {
			continue
		}
		if _, ok := scenarios.Get(t.Simulation); !ok {
			return nil, fmt.Errorf("track %q links unknown scenario %q", t.ID, t.Simulation)
		}
	}

	return &Catalog{
		Engine:     engine,
		Scenarios:  scenarios,
		Library:    lib,
		Thresholds: f.Thresholds,
		Filter:     f.ContentFilter,
	}, nil
}

func (t Thresholds) validate() error {
	if t.LessonCompletion < 0 || t.LessonCompletion > 100 {
		return fmt.Errorf("lesson completion threshold %d outside 0..100", t.LessonCompletion)
	}
	if t.HighScoreSimulation < 0 || t.HighScoreSimulation > 100 {
		return fmt.Errorf("high score threshold %d outside 0..100", t.HighScoreSimulation)
	}
	return nil
}

func readOr(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
