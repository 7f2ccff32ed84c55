package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"voxelward.ai/internal/protect/domain"
	"voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
)

// IndexDB is a sqlite mirror of the region tables, written whole-world
// per transaction. It exists for offline tooling (cmd/admin); the YAML
// file stays the source of truth.
type IndexDB struct {
	db *sql.DB
}

func OpenIndexDB(path string) (*IndexDB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &IndexDB{db: db}, nil
}

func (x *IndexDB) Close() error { return x.db.Close() }

func initPragmas(db *sql.DB) error {
	// WAL suits the rewrite-whole-world workload; the mirror is a
	// secondary index so NORMAL durability is enough.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			world TEXT NOT NULL,
			name TEXT NOT NULL,
			priority INTEGER NOT NULL,
			parent TEXT,
			global INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (world, name)
		);`,
		`CREATE TABLE IF NOT EXISTS region_flags (
			world TEXT NOT NULL,
			region TEXT NOT NULL,
			flag TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (world, region, flag)
		);`,
		`CREATE TABLE IF NOT EXISTS region_players (
			world TEXT NOT NULL,
			region TEXT NOT NULL,
			domain TEXT NOT NULL,
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (world, region, domain, kind, value)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_regions_world_priority ON regions(world, priority DESC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SaveWorld replaces one world's rows with the given regions.
func (x *IndexDB) SaveWorld(world string, regions map[string]*region.Region, global *region.Region, registry *flag.Registry) error {
	tx, err := x.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"regions", "region_flags", "region_players"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE world = ?", world); err != nil {
			return err
		}
	}

	all := make([]*region.Region, 0, len(regions)+1)
	for _, r := range regions {
		all = append(all, r)
	}
	if global != nil {
		all = append(all, global)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })

	for _, r := range all {
		parent := sql.NullString{}
		if p := r.Parent(); p != nil {
			parent = sql.NullString{String: p.Name(), Valid: true}
		}
		isGlobal := 0
		if r.IsGlobal() {
			isGlobal = 1
		}
		if _, err := tx.Exec(
			"INSERT INTO regions (world, name, priority, parent, global) VALUES (?, ?, ?, ?, ?)",
			world, r.Name(), r.Priority(), parent, isGlobal,
		); err != nil {
			return err
		}

		names := r.FlagNames()
		sort.Strings(names)
		for _, flagName := range names {
			f, ok := registry.Get(flagName)
			if !ok {
				continue
			}
			v, ok := r.Flag(f)
			if !ok {
				continue
			}
			if _, err := tx.Exec(
				"INSERT INTO region_flags (world, region, flag, value) VALUES (?, ?, ?, ?)",
				world, r.Name(), flagName, fmt.Sprint(f.Marshal(v)),
			); err != nil {
				return err
			}
		}

		for _, dom := range []struct {
			name string
			d    *domain.Domain
		}{{"owners", r.Owners()}, {"members", r.Members()}} {
			for _, p := range dom.d.Players() {
				if err := insertPlayerRow(tx, world, r.Name(), dom.name, "name", p); err != nil {
					return err
				}
			}
			for _, id := range dom.d.PlayerIDs() {
				if err := insertPlayerRow(tx, world, r.Name(), dom.name, "uuid", id.String()); err != nil {
					return err
				}
			}
			for _, g := range dom.d.Groups() {
				if err := insertPlayerRow(tx, world, r.Name(), dom.name, "group", g); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

func insertPlayerRow(tx *sql.Tx, world, regionName, domainName, kind, value string) error {
	_, err := tx.Exec(
		"INSERT INTO region_players (world, region, domain, kind, value) VALUES (?, ?, ?, ?, ?)",
		world, regionName, domainName, kind, value,
	)
	return err
}

// RegionRow is one row of the offline listing surface.
type RegionRow struct {
	World    string
	Name     string
	Priority int
	Parent   string
	Global   bool
	Flags    int
}

// Worlds lists the distinct worlds present in the index.
func (x *IndexDB) Worlds() ([]string, error) {
	rows, err := x.db.Query("SELECT DISTINCT world FROM regions ORDER BY world")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListWorld returns one world's regions ordered by priority then name.
func (x *IndexDB) ListWorld(world string) ([]RegionRow, error) {
	rows, err := x.db.Query(`
		SELECT r.world, r.name, r.priority, COALESCE(r.parent, ''), r.global,
			(SELECT COUNT(*) FROM region_flags f WHERE f.world = r.world AND f.region = r.name)
		FROM regions r WHERE r.world = ?
		ORDER BY r.priority DESC, r.name`, world)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegionRow
	for rows.Next() {
		var row RegionRow
		var global int
		if err := rows.Scan(&row.World, &row.Name, &row.Priority, &row.Parent, &global, &row.Flags); err != nil {
			return nil, err
		}
		row.Global = global != 0
		out = append(out, row)
	}
	return out, rows.Err()
}

// DumpFlags returns flag name -> stored value for one region.
func (x *IndexDB) DumpFlags(world, regionName string) (map[string]string, error) {
	rows, err := x.db.Query(
		"SELECT flag, value FROM region_flags WHERE world = ? AND region = ? ORDER BY flag",
		world, regionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}
