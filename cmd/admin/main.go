// Command admin inspects the region store offline: world/region
// listings from the sqlite index, flag and membership dumps from the
// YAML files. Read-only; region edits happen in the host game.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"voxelward.ai/internal/protect/config"
	flagpkg "voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
	"voxelward.ai/internal/protect/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "region":
			regionCmd(os.Args[2:])
			return
		case "flags":
			flagsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	cfgPath := fs.String("config", "", "regions.yaml path (optional)")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	worlds := cfg.Worlds
	if *worldID != "" {
		w, ok := cfg.World(*worldID)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown world %q\n", *worldID)
			os.Exit(1)
		}
		worlds = []config.WorldSpec{w}
	}

	registry := flagpkg.DefaultRegistry()
	for _, w := range worlds {
		regions, global, err := store.NewYAMLStore(w.RegionsFile, w.ID, registry, nil).Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", w.ID, err)
			os.Exit(1)
		}
		names := make([]string, 0, len(regions))
		for name := range regions {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("%s: %d regions", w.ID, len(regions))
		if global != nil {
			fmt.Printf(" (+global)")
		}
		fmt.Println()
		for _, name := range names {
			r := regions[name]
			parent := "-"
			if p := r.Parent(); p != nil {
				parent = p.Name()
			}
			fmt.Printf("  %-24s priority=%-4d parent=%s\n", name, r.Priority(), parent)
		}
	}
}

func regionCmd(args []string) {
	fs := flag.NewFlagSet("region", flag.ExitOnError)
	cfgPath := fs.String("config", "", "regions.yaml path (optional)")
	worldID := fs.String("world", "", "world id")
	name := fs.String("name", "", "region name (or __global__)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" || strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "missing -world or -name")
		os.Exit(2)
	}

	cfg := loadConfig(*cfgPath)
	w, ok := cfg.World(*worldID)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown world %q\n", *worldID)
		os.Exit(1)
	}

	registry := flagpkg.DefaultRegistry()
	regions, global, err := store.NewYAMLStore(w.RegionsFile, w.ID, registry, nil).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}

	var r *region.Region
	if strings.EqualFold(*name, region.GlobalName) {
		r = global
	} else {
		r = regions[strings.ToLower(strings.TrimSpace(*name))]
	}
	if r == nil {
		fmt.Fprintf(os.Stderr, "region %q not found in %s\n", *name, w.ID)
		os.Exit(1)
	}

	fmt.Printf("name: %s\npriority: %d\n", r.Name(), r.Priority())
	if p := r.Parent(); p != nil {
		fmt.Printf("parent: %s\n", p.Name())
	}
	printDomain("owners", r.Owners().Players(), r.Owners().Groups(), r.Owners().Size())
	printDomain("members", r.Members().Players(), r.Members().Groups(), r.Members().Size())
	names := r.FlagNames()
	sort.Strings(names)
	for _, flagName := range names {
		f, ok := registry.Get(flagName)
		if !ok {
			continue
		}
		if v, ok := r.Flag(f); ok {
			fmt.Printf("flag %s: %v\n", flagName, f.Marshal(v))
		}
	}
}

func printDomain(label string, players, groups []string, size int) {
	if size == 0 {
		return
	}
	fmt.Printf("%s: players=%v groups=%v (%d total)\n", label, players, groups, size)
}

func flagsCmd(args []string) {
	fs := flag.NewFlagSet("flags", flag.ExitOnError)
	_ = fs.Parse(args)

	for _, f := range flagpkg.DefaultRegistry().All() {
		def := "-"
		if v, ok := f.Default(); ok {
			def = fmt.Sprint(f.Marshal(v))
		}
		group := "-"
		if gf := f.RegionGroupFlag(); gf != nil {
			group = gf.Name()
		}
		fmt.Printf("%-24s default=%-8s group=%s\n", f.Name(), def, group)
	}
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	cfgPath := fs.String("config", "", "regions.yaml path (optional)")
	dbPath := fs.String("db", "", "index db path (overrides config)")
	worldID := fs.String("world", "", "world id (optional)")
	regionName := fs.String("region", "", "dump one region's flags (requires -world)")
	_ = fs.Parse(args)

	path := *dbPath
	if path == "" {
		path = loadConfig(*cfgPath).IndexDB
	}
	db, err := store.OpenIndexDB(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *regionName != "" {
		if *worldID == "" {
			fmt.Fprintln(os.Stderr, "-region requires -world")
			os.Exit(2)
		}
		flags, err := db.DumpFlags(*worldID, strings.ToLower(*regionName))
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		names := make([]string, 0, len(flags))
		for name := range flags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s=%s\n", name, flags[name])
		}
		return
	}

	worlds := []string{*worldID}
	if *worldID == "" {
		worlds, err = db.Worlds()
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
	}
	for _, w := range worlds {
		rows, err := db.ListWorld(w)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, row := range rows {
			marker := ""
			if row.Global {
				marker = " [global]"
			}
			fmt.Printf("%s/%s priority=%d parent=%s flags=%d%s\n",
				row.World, row.Name, row.Priority, orDash(row.Parent), row.Flags, marker)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}
