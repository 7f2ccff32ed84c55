// Package config loads the region store configuration (regions.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir     string      `yaml:"data_dir"`
	IndexDB     string      `yaml:"index_db,omitempty"`
	MutationLog bool        `yaml:"mutation_log"`
	Worlds      []WorldSpec `yaml:"worlds"`
}

type WorldSpec struct {
	ID          string `yaml:"id"`
	RegionsFile string `yaml:"regions_file,omitempty"`
}

// Load reads the config file; an empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("regions.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("regions.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DataDir:     "./data",
		MutationLog: true,
		Worlds: []WorldSpec{
			{ID: "world"},
		},
	}
}

// Normalize fills derived fields: per-world region file paths and the
// index db path default under the data dir.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if strings.TrimSpace(c.IndexDB) == "" {
		c.IndexDB = filepath.Join(c.DataDir, "index", "regions.db")
	}
	for i := range c.Worlds {
		w := &c.Worlds[i]
		w.ID = strings.ToLower(strings.TrimSpace(w.ID))
		if strings.TrimSpace(w.RegionsFile) == "" && w.ID != "" {
			w.RegionsFile = filepath.Join(c.DataDir, "worlds", w.ID, "regions.yml")
		}
	}
	sort.Slice(c.Worlds, func(i, j int) bool { return c.Worlds[i].ID < c.Worlds[j].ID })
}

func (c *Config) Validate() error {
	if len(c.Worlds) == 0 {
		return fmt.Errorf("no worlds configured")
	}
	seen := map[string]struct{}{}
	for _, w := range c.Worlds {
		if w.ID == "" {
			return fmt.Errorf("world with empty id")
		}
		if _, ok := seen[w.ID]; ok {
			return fmt.Errorf("duplicate world id %q", w.ID)
		}
		seen[w.ID] = struct{}{}
	}
	return nil
}

// World returns the entry for a world id.
func (c *Config) World(id string) (WorldSpec, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, w := range c.Worlds {
		if w.ID == id {
			return w, true
		}
	}
	return WorldSpec{}, false
}
