package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "./data" || !cfg.MutationLog {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if len(cfg.Worlds) != 1 || cfg.Worlds[0].ID != "world" {
		t.Fatalf("worlds=%+v", cfg.Worlds)
	}
	if cfg.Worlds[0].RegionsFile != filepath.Join("data", "worlds", "world", "regions.yml") {
		t.Fatalf("regions file=%q", cfg.Worlds[0].RegionsFile)
	}
	if cfg.IndexDB == "" {
		t.Fatalf("index db path not derived")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	doc := `
data_dir: /srv/regions
mutation_log: false
worlds:
  - id: Overworld
  - id: nether
    regions_file: /srv/custom/nether.yml
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MutationLog {
		t.Fatalf("mutation_log should be off")
	}
	w, ok := cfg.World("OVERWORLD")
	if !ok || w.ID != "overworld" {
		t.Fatalf("world lookup failed: %+v/%v", w, ok)
	}
	if w.RegionsFile != filepath.Join("/srv/regions", "worlds", "overworld", "regions.yml") {
		t.Fatalf("derived path=%q", w.RegionsFile)
	}
	n, _ := cfg.World("nether")
	if n.RegionsFile != "/srv/custom/nether.yml" {
		t.Fatalf("explicit path lost: %q", n.RegionsFile)
	}
}

func TestLoad_RejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	doc := `
worlds:
  - id: world
  - id: World
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err=%v want duplicate world error", err)
	}
}
