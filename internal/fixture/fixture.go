package fixture

import (
	"fmt"

	"github.com/spf13/viper"

	"halcheck/internal/registry"
)

// Descriptor is one expected component: its exact name and the status the
// registry must return when the component is created. Read-only input to the
// conformance checks.
type Descriptor struct {
	Name   string `toml:"name" mapstructure:"name"`
	Status string `toml:"status" mapstructure:"status"`
}

// ExpectedStatus returns the parsed status; Validate has already rejected
// unknown values by the time checks call this.
func (d Descriptor) ExpectedStatus() registry.Status {
	st, _ := registry.ParseStatus(d.Status)
	return st
}

// Table is the component-descriptor fixture for one service.
type Table []Descriptor

type fileFixture struct {
	Components []Descriptor `toml:"components" mapstructure:"components"`
}

// Load reads a fixture table from a TOML file of [[components]] blocks.
func Load(path string) (Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	var ff fileFixture
	if err := v.Unmarshal(&ff); err != nil {
		return nil, fmt.Errorf("fixture: parse %s: %w", path, err)
	}
	t := Table(ff.Components)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects empty tables, duplicate names and unknown statuses.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("empty component table")
	}
	seen := make(map[string]struct{}, len(t))
	for i, d := range t {
		if d.Name == "" {
			return fmt.Errorf("component %d: name required", i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate component %q", d.Name)
		}
		seen[d.Name] = struct{}{}
		if _, err := registry.ParseStatus(d.Status); err != nil {
			return fmt.Errorf("component %q: %w", d.Name, err)
		}
	}
	return nil
}

// Names returns the fixture names in table order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, d := range t {
		names[i] = d.Name
	}
	return names
}

// Supported returns the names expected to create successfully, i.e. the set a
// faithful registry should actually serve.
func (t Table) Supported() []string {
	var names []string
	for _, d := range t {
		if d.ExpectedStatus().OK() {
			names = append(names, d.Name)
		}
	}
	return names
}
