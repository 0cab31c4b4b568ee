package dimensions

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProfiles is returned when a profiles file cannot be applied.
var ErrInvalidProfiles = errors.New("invalid dimension profiles")

// Registry maps profiles to their dimension weights. It is read-only after construction.
type Registry struct {
	profiles map[Profile]DimensionWeights
}

// NewRegistry returns a registry holding the built-in profiles.
func NewRegistry() *Registry {
	return &Registry{profiles: DefaultProfileWeights()}
}

// NewRegistryFromWeights builds a registry from explicit weights. Profiles missing from
// weights keep their built-in sets.
func NewRegistryFromWeights(weights map[Profile]DimensionWeights) (*Registry, error) {
	r := NewRegistry()
	for p, w := range weights {
		if err := validateWeights(p, w); err != nil {
			return nil, err
		}
		r.profiles[p] = w.clone()
	}
	return r, nil
}

// Resolve maps a profile name to a known profile, falling back to General.
func (r *Registry) Resolve(name string) Profile {
	p, _ := ParseProfile(name)
	return p
}

// GetWeights returns a copy of the weights for the named profile. Unknown names get General's weights.
func (r *Registry) GetWeights(name string) DimensionWeights {
	return r.WeightsFor(r.Resolve(name))
}

// WeightsFor returns a copy of the weights for p.
func (r *Registry) WeightsFor(p Profile) DimensionWeights {
	w, ok := r.profiles[p]
	if !ok {
		w = r.profiles[General]
	}
	return w.clone()
}

// Dimensions returns every dimension name weighted by any profile, sorted.
func (r *Registry) Dimensions() []string {
	seen := map[string]bool{}
	var names []string
	for _, w := range r.profiles {
		for name := range w {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// All returns a copy of every profile's weights keyed by profile name.
func (r *Registry) All() map[string]DimensionWeights {
	out := make(map[string]DimensionWeights, len(r.profiles))
	for _, p := range Profiles {
		out[p.String()] = r.WeightsFor(p)
	}
	return out
}

type profilesFile struct {
	Profiles map[string]map[string]float64 `yaml:"profiles"`
}

// LoadRegistry reads a YAML profiles file and merges it over the built-in profiles.
// Dimensions named in the file replace or extend the built-in weight for that profile;
// a weight of 0 removes the dimension. Unknown profile names are skipped with a warning.
// An empty path returns the built-in registry.
func LoadRegistry(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewRegistry()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	for name, dims := range file.Profiles {
		p, ok := ParseProfile(name)
		if !ok {
			logger.Warn("skipping unknown dimension profile", zap.String("profile", name), zap.String("path", path))
			continue
		}
		merged := r.profiles[p].clone()
		for dim, weight := range dims {
			if math.IsNaN(weight) || weight < 0 {
				return nil, fmt.Errorf("%w: %s.%s weight must be >= 0, got %v", ErrInvalidProfiles, name, dim, weight)
			}
			if weight == 0 {
				delete(merged, dim)
			} else {
				merged[dim] = weight
			}
			logger.Info("dimension weight override",
				zap.String("profile", p.String()),
				zap.String("dimension", dim),
				zap.Float64("weight", weight))
		}
		if err := validateWeights(p, merged); err != nil {
			return nil, err
		}
		r.profiles[p] = merged
	}
	return r, nil
}

func validateWeights(p Profile, w DimensionWeights) error {
	if len(w) == 0 {
		return fmt.Errorf("%w: profile %s has no dimensions", ErrInvalidProfiles, p)
	}
	for dim, weight := range w {
		if math.IsNaN(weight) || weight < 0 {
			return fmt.Errorf("%w: %s.%s weight must be >= 0, got %v", ErrInvalidProfiles, p, dim, weight)
		}
	}
	return nil
}
