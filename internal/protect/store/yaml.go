// Package store persists region tables: a YAML document per world as the
// source of truth, an optional sqlite mirror for offline tooling, and a
// compressed JSONL log of mutations.
package store

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"voxelward.ai/internal/protect/domain"
	"voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
)

const fileVersion = 1

type regionsFile struct {
	Version int                  `yaml:"version" json:"version"`
	World   string               `yaml:"world" json:"world"`
	Regions map[string]regionDoc `yaml:"regions" json:"regions"`
}

type regionDoc struct {
	Priority int            `yaml:"priority,omitempty" json:"priority,omitempty"`
	Parent   string         `yaml:"parent,omitempty" json:"parent,omitempty"`
	Owners   domainDoc      `yaml:"owners,omitempty" json:"owners,omitempty"`
	Members  domainDoc      `yaml:"members,omitempty" json:"members,omitempty"`
	Flags    map[string]any `yaml:"flags,omitempty" json:"flags,omitempty"`
}

type domainDoc struct {
	Players   []string `yaml:"players,omitempty" json:"players,omitempty"`
	UniqueIDs []string `yaml:"unique_ids,omitempty" json:"unique_ids,omitempty"`
	Groups    []string `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// YAMLStore reads and writes one world's region file. Raw flag values
// are typed through the registry; a value that fails to parse is skipped
// and logged, never fatal.
type YAMLStore struct {
	path     string
	world    string
	registry *flag.Registry
	logger   *log.Logger
}

func NewYAMLStore(path, world string, registry *flag.Registry, logger *log.Logger) *YAMLStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &YAMLStore{path: path, world: world, registry: registry, logger: logger}
}

// Load reads the region file. A missing file is an empty world. The
// returned map never contains the global region; it is returned
// separately (nil when absent).
func (s *YAMLStore) Load() (map[string]*region.Region, *region.Region, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*region.Region{}, nil, nil
		}
		return nil, nil, err
	}

	var file regionsFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.path, err)
	}

	regions := map[string]*region.Region{}
	var global *region.Region

	for name, doc := range file.Regions {
		var r *region.Region
		if name == region.GlobalName {
			r = region.NewGlobal()
			global = r
		} else {
			r = region.New(name)
			regions[r.Name()] = r
		}
		r.SetPriority(doc.Priority)
		s.loadDomain(r.Owners(), name, doc.Owners)
		s.loadDomain(r.Members(), name, doc.Members)
		s.loadFlags(r, name, doc.Flags)
	}

	// Parents re-link by name after every region exists. A dangling or
	// cyclic parent detaches the child rather than failing the load.
	for name, doc := range file.Regions {
		if doc.Parent == "" || name == region.GlobalName {
			continue
		}
		child, ok := regions[normalize(name)]
		if !ok {
			continue
		}
		parent, ok := regions[normalize(doc.Parent)]
		if !ok {
			s.logger.Printf("store: region %s: parent %q not found, detaching", name, doc.Parent)
			continue
		}
		if err := child.SetParent(parent); err != nil {
			s.logger.Printf("store: region %s: parent %q: %v", name, doc.Parent, err)
		}
	}

	return regions, global, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *YAMLStore) loadDomain(d *domain.Domain, name string, doc domainDoc) {
	for _, p := range doc.Players {
		d.AddPlayer(p)
	}
	for _, raw := range doc.UniqueIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Printf("store: region %s: bad uuid %q, skipping", name, raw)
			continue
		}
		d.AddPlayerID(id)
	}
	for _, g := range doc.Groups {
		d.AddGroup(g)
	}
}

func (s *YAMLStore) loadFlags(r *region.Region, name string, raw map[string]any) {
	for flagName, rawValue := range raw {
		f, ok := s.registry.Get(flagName)
		if !ok {
			s.logger.Printf("store: region %s: unknown flag %q, skipping", name, flagName)
			continue
		}
		v, err := f.Unmarshal(rawValue)
		if err != nil {
			if errors.Is(err, flag.ErrMalformedFlagValue) {
				s.logger.Printf("store: region %s: %v, skipping", name, err)
				continue
			}
			s.logger.Printf("store: region %s: flag %q: %v, skipping", name, flagName, err)
			continue
		}
		r.SetFlag(f, v)
	}
}

// Save writes the region file atomically (temp file + rename).
func (s *YAMLStore) Save(regions map[string]*region.Region, global *region.Region) error {
	file := regionsFile{
		Version: fileVersion,
		World:   s.world,
		Regions: map[string]regionDoc{},
	}
	for _, r := range regions {
		file.Regions[r.Name()] = s.regionDoc(r)
	}
	if global != nil {
		file.Regions[region.GlobalName] = s.regionDoc(global)
	}

	b, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func domainDocOf(d *domain.Domain) domainDoc {
	var doc domainDoc
	if players := d.Players(); len(players) > 0 {
		doc.Players = players
	}
	for _, id := range d.PlayerIDs() {
		doc.UniqueIDs = append(doc.UniqueIDs, id.String())
	}
	if groups := d.Groups(); len(groups) > 0 {
		doc.Groups = groups
	}
	return doc
}

func (s *YAMLStore) regionDoc(r *region.Region) regionDoc {
	doc := regionDoc{
		Priority: r.Priority(),
		Owners:   domainDocOf(r.Owners()),
		Members:  domainDocOf(r.Members()),
	}
	if p := r.Parent(); p != nil {
		doc.Parent = p.Name()
	}

	names := r.FlagNames()
	sort.Strings(names)
	for _, flagName := range names {
		f, ok := s.registry.Get(flagName)
		if !ok {
			s.logger.Printf("store: region %s: flag %q not in registry, not saved", r.Name(), flagName)
			continue
		}
		v, ok := r.Flag(f)
		if !ok {
			continue
		}
		if doc.Flags == nil {
			doc.Flags = map[string]any{}
		}
		doc.Flags[flagName] = f.Marshal(v)
	}
	return doc
}
