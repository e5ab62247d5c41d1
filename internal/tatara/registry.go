package tatara

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuildTarget is the static description of one buildable component.
// Never mutated after registry load.
type BuildTarget struct {
	Name          string   `yaml:"name"`
	Std           string   `yaml:"std"`            // language standard, e.g. c++17
	Sources       []string `yaml:"sources"`        // compiled in order
	IncludeDirs   []string `yaml:"include_dirs"`   // resolved to -I flags
	ExtraFlags    []string `yaml:"extra_flags"`    // component-specific flags
	SourceArchive string   `yaml:"source_archive"` // optional bundle unpacked before building
}

// builtinTargets is the static registry of the geometry suite. A YAML
// overlay file can add components or replace these entries by name.
var builtinTargets = []BuildTarget{
	{
		Name:        "tessel",
		Std:         "c++17",
		Sources:     []string{"src/tessel/tessel.cpp", "src/tessel/refine.cpp"},
		IncludeDirs: []string{"include"},
		ExtraFlags:  []string{"-qopenmp", "-qopenmp-link=static"},
	},
	{
		Name:        "hullgen",
		Std:         "c++14",
		Sources:     []string{"src/hullgen/hullgen.cpp"},
		IncludeDirs: []string{"include"},
	},
	{
		Name:        "voronoi",
		Std:         "c++17",
		Sources:     []string{"src/voronoi/voronoi.cpp", "src/voronoi/clip.cpp"},
		IncludeDirs: []string{"include", "third_party/predicates"},
	},
}

// LoadRegistry returns the build targets, applying the optional YAML
// overlay. Overlay entries with a name matching a builtin replace it;
// unmatched entries are appended in file order.
func LoadRegistry(overlayPath string) ([]BuildTarget, error) {
	targets := make([]BuildTarget, len(builtinTargets))
	copy(targets, builtinTargets)

	if overlayPath == "" {
		return targets, nil
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry overlay: %w", err)
	}
	var overlay struct {
		Components []BuildTarget `yaml:"components"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse registry overlay %s: %w", overlayPath, err)
	}

	for _, entry := range overlay.Components {
		if entry.Name == "" {
			return nil, fmt.Errorf("registry overlay %s: component with empty name", overlayPath)
		}
		replaced := false
		for i := range targets {
			if targets[i].Name == entry.Name {
				targets[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			targets = append(targets, entry)
		}
	}
	return targets, nil
}

// SelectTargets filters the registry down to the requested component names,
// preserving registry order. An empty selection means all. Unknown names are
// a configuration error, rejected before any compilation.
func SelectTargets(targets []BuildTarget, names []string) ([]BuildTarget, error) {
	if len(names) == 0 {
		return targets, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var selected []BuildTarget
	for _, t := range targets {
		if wanted[t.Name] {
			selected = append(selected, t)
			delete(wanted, t.Name)
		}
	}
	if len(wanted) > 0 {
		var missing []string
		for n := range wanted {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", errUnknownComponent, strings.Join(missing, ", "))
	}
	return selected, nil
}
