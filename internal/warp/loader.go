package warp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlWorldFile is the top-level YAML structure for world files.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

// yamlWorld is the YAML representation of a world fragment.
type yamlWorld struct {
	Warps          []yamlWarp       `yaml:"warps"`
	Flags          yamlFlagTables   `yaml:"flags"`
	EscapePaths    [][]string       `yaml:"escape_paths"`
	FlagLocations  []string         `yaml:"flag_locations"`
	KeyLocations   []string         `yaml:"key_locations"`
	RootCandidates []string         `yaml:"root_candidates"`
	OddOneOut      yamlOddOneOut    `yaml:"odd_one_out"`
	Progression    yamlProgressions `yaml:"progression"`
	Fixture        yamlFixture      `yaml:"fixture"`
}

type yamlWarp struct {
	ID          string            `yaml:"id"`
	Level       int               `yaml:"level"`
	Tags        []string          `yaml:"tags"`
	Area        string            `yaml:"area"`
	Grouped     []string          `yaml:"grouped"`
	Connections map[string]string `yaml:"connections"`
}

type yamlFlag struct {
	Name    string   `yaml:"name"`
	Level   int      `yaml:"level"`
	Markers []string `yaml:"markers"`
}

type yamlFlagTables struct {
	Strict []yamlFlag `yaml:"strict"`
	Free   []yamlFlag `yaml:"free"`
}

type yamlOddOneOut struct {
	Default             []string `yaml:"default"`
	ExtraDeadendRemoval []string `yaml:"extra_deadend_removal"`
}

type yamlAbility struct {
	Name   string   `yaml:"name"`
	Flags  []string `yaml:"flags"`
	Source string   `yaml:"source"`
	Keep   []string `yaml:"keep"`
}

type yamlProgression struct {
	Milestones    []string      `yaml:"milestones"`
	AllBadgesFlag string        `yaml:"all_badges_flag"`
	GymLeaders    []string      `yaml:"gym_leaders"`
	Abilities     []yamlAbility `yaml:"abilities"`
}

type yamlProgressions struct {
	Strict yamlProgression `yaml:"strict"`
	Free   yamlProgression `yaml:"free"`
}

type yamlFixture struct {
	VertexCount      int      `yaml:"vertex_count"`
	MinRemaps        int      `yaml:"min_remaps"`
	ExpectedTriggers []string `yaml:"expected_triggers"`
}

// LoadWorldFromFile reads and validates a single world YAML file.
//
// Precondition: path must point to a valid YAML world file.
// Postcondition: Returns a validated World or a non-nil error.
func LoadWorldFromFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	return LoadWorldFromBytes(data)
}

// LoadWorldFromBytes parses and validates a world from YAML bytes.
//
// Postcondition: Returns a validated World or a non-nil error.
func LoadWorldFromBytes(data []byte) (*World, error) {
	w := &World{Warps: make(map[string]*Warp)}
	if err := mergeBytes(w, data); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}
	return w, nil
}

// LoadWorldFromDir merges every YAML file in dir, in lexicographic order, into
// one World. Warp ids must be unique across files.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns a validated World or the first error encountered.
func LoadWorldFromDir(dir string) (*World, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no world files found in %s", dir)
	}
	sort.Strings(names)

	w := &World{Warps: make(map[string]*Warp)}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading world file %s: %w", name, err)
		}
		if err := mergeBytes(w, data); err != nil {
			return nil, fmt.Errorf("loading world from %s: %w", name, err)
		}
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}
	return w, nil
}

func mergeBytes(w *World, data []byte) error {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing world YAML: %w", err)
	}
	return mergeYAMLWorld(w, file.World)
}

// mergeYAMLWorld converts a parsed fragment into domain types and appends it to w.
func mergeYAMLWorld(w *World, yw yamlWorld) error {
	for _, ywp := range yw.Warps {
		if _, exists := w.Warps[ywp.ID]; exists {
			return fmt.Errorf("duplicate warp ID %q", ywp.ID)
		}
		wp := &Warp{
			ID:          ywp.ID,
			Level:       ywp.Level,
			Area:        ywp.Area,
			Grouped:     ywp.Grouped,
			Connections: ywp.Connections,
		}
		if wp.Connections == nil {
			wp.Connections = make(map[string]string)
		}
		for _, t := range ywp.Tags {
			wp.Tags = append(wp.Tags, Tag(t))
		}
		w.Warps[wp.ID] = wp
	}

	w.StrictFlags = append(w.StrictFlags, convertFlags(yw.Flags.Strict)...)
	w.FreeFlags = append(w.FreeFlags, convertFlags(yw.Flags.Free)...)
	w.EscapePaths = append(w.EscapePaths, yw.EscapePaths...)
	w.FlagLocations = append(w.FlagLocations, yw.FlagLocations...)
	w.KeyLocations = append(w.KeyLocations, yw.KeyLocations...)
	w.RootCandidates = append(w.RootCandidates, yw.RootCandidates...)
	w.OddOneOut = append(w.OddOneOut, yw.OddOneOut.Default...)
	w.OddOneOutExtraDeadend = append(w.OddOneOutExtraDeadend, yw.OddOneOut.ExtraDeadendRemoval...)
	mergeProgression(&w.StrictProgression, yw.Progression.Strict)
	mergeProgression(&w.FreeProgression, yw.Progression.Free)

	if yw.Fixture.VertexCount != 0 {
		w.Fixture.VertexCount = yw.Fixture.VertexCount
	}
	if yw.Fixture.MinRemaps != 0 {
		w.Fixture.MinRemaps = yw.Fixture.MinRemaps
	}
	w.Fixture.ExpectedTriggers = append(w.Fixture.ExpectedTriggers, yw.Fixture.ExpectedTriggers...)
	return nil
}

func convertFlags(yfs []yamlFlag) []FlagCondition {
	out := make([]FlagCondition, 0, len(yfs))
	for _, yf := range yfs {
		out = append(out, FlagCondition{Name: yf.Name, Level: yf.Level, Markers: yf.Markers})
	}
	return out
}

func mergeProgression(p *Progression, yp yamlProgression) {
	p.Milestones = append(p.Milestones, yp.Milestones...)
	if yp.AllBadgesFlag != "" {
		p.AllBadgesFlag = yp.AllBadgesFlag
	}
	p.GymLeaders = append(p.GymLeaders, yp.GymLeaders...)
	for _, ya := range yp.Abilities {
		p.Abilities = append(p.Abilities, AbilityRule{
			Name:   ya.Name,
			Flags:  ya.Flags,
			Source: ya.Source,
			Keep:   ya.Keep,
		})
	}
}
