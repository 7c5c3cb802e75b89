package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// EngineFile holds the optional engine tunables read from TOML.
//
//	breakdown_tolerance = 0.01
//
//	[periods_per_month]
//	weekly = 4.33
//	biweekly = 2.167
type EngineFile struct {
	PeriodsPerMonth    map[string]float64 `toml:"periods_per_month,omitempty"`
	BreakdownTolerance *float64           `toml:"breakdown_tolerance,omitempty"`
}

// LoadEngineFile reads the engine tunables. An empty path yields an empty
// EngineFile so callers fall back to built-in defaults.
func LoadEngineFile(path string) (EngineFile, error) {
	var f EngineFile
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading engine config: %w", err)
	}

	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return f, fmt.Errorf("parsing engine config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return f, fmt.Errorf("parsing engine config: unknown keys %s", strings.Join(keys, ", "))
	}

	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

func (f EngineFile) Validate() error {
	var errors []string
	for name, v := range f.PeriodsPerMonth {
		if v <= 0 {
			errors = append(errors, fmt.Sprintf("periods_per_month.%s must be positive, got %v", name, v))
		}
	}
	if f.BreakdownTolerance != nil && *f.BreakdownTolerance < 0 {
		errors = append(errors, fmt.Sprintf("breakdown_tolerance must be non-negative, got %v", *f.BreakdownTolerance))
	}
	if len(errors) > 0 {
		sort.Strings(errors)
		return fmt.Errorf("engine configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
