package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"halcheck/internal/fixture"
	"halcheck/internal/registry"
	"halcheck/internal/service"
	"halcheck/internal/vintf"
)

// Host defaults matching the usual vendor layout.
const (
	DefaultManifestPath = "/vendor/etc/vintf/manifest.xml"
	DefaultMatrixPath   = "/vendor/etc/vintf/compatibility_matrix.xml"
	DefaultDaemonName   = "hwservicemanager"

	// DefaultPropagationDelay is the documented wait after bouncing the
	// discovery daemon so re-read manifests actually take effect.
	DefaultPropagationDelay = time.Second
)

// DiscoveryConfig names the host discovery daemon, the manifest pair it
// consumes, and the dependent services that hang on stale configuration and
// must be bounced alongside it.
type DiscoveryConfig struct {
	DaemonName        string        `toml:"daemon" mapstructure:"daemon"`
	ManifestPath      string        `toml:"manifest" mapstructure:"manifest"`
	MatrixPath        string        `toml:"compatibility_matrix" mapstructure:"compatibility_matrix"`
	DependentServices []string      `toml:"dependent_services" mapstructure:"dependent_services"`
	PropagationDelay  time.Duration `toml:"propagation_delay" mapstructure:"propagation_delay"`
}

// RegistryConfig describes how the harness reaches the registry's IPC surface.
type RegistryConfig struct {
	ServiceName string        `toml:"service_name" mapstructure:"service_name"` // socket name under socket_dir
	SocketDir   string        `toml:"socket_dir" mapstructure:"socket_dir"`
	Addr        string        `toml:"addr" mapstructure:"addr"` // overrides socket dialing (dev/reference server)
	Timeout     time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// HistoryConfig selects where run records are exported. Type is one of
// "none", "sql", "clickhouse", "opensearch".
type HistoryConfig struct {
	Type  string `toml:"type" mapstructure:"type"`
	DSN   string `toml:"dsn" mapstructure:"dsn"`     // sql
	URL   string `toml:"url" mapstructure:"url"`     // clickhouse (http(s) or clickhouse:// native) / opensearch
	Table string `toml:"table" mapstructure:"table"` // clickhouse table or opensearch index
}

// LogConfig controls harness logging (not service output capture).
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
	Color bool   `toml:"color" mapstructure:"color"`
}

// Config is the top-level TOML structure for one harness run.
type Config struct {
	Service     service.Spec         `toml:"service" mapstructure:"service"`
	Entry       vintf.Entry          `toml:"entry" mapstructure:"entry"`
	Discovery   DiscoveryConfig      `toml:"discovery" mapstructure:"discovery"`
	Registry    RegistryConfig       `toml:"registry" mapstructure:"registry"`
	BackupFiles []string             `toml:"backup_files" mapstructure:"backup_files"` // extra files to snapshot
	Components  []fixture.Descriptor `toml:"components" mapstructure:"components"`
	FixtureFile string               `toml:"fixture_file" mapstructure:"fixture_file"` // overrides inline components
	History     HistoryConfig        `toml:"history" mapstructure:"history"`
	Log         LogConfig            `toml:"log" mapstructure:"log"`
}

// Load reads and validates a harness config, filling host defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Discovery.DaemonName == "" {
		c.Discovery.DaemonName = DefaultDaemonName
	}
	if c.Discovery.ManifestPath == "" {
		c.Discovery.ManifestPath = DefaultManifestPath
	}
	if c.Discovery.MatrixPath == "" {
		c.Discovery.MatrixPath = DefaultMatrixPath
	}
	if c.Discovery.PropagationDelay <= 0 {
		c.Discovery.PropagationDelay = DefaultPropagationDelay
	}
	if c.Registry.SocketDir == "" {
		c.Registry.SocketDir = registry.DefaultSocketDir
	}
}

// Validate checks the fields every run needs; fixture entries are validated by
// the fixture package once resolved.
func (c *Config) Validate() error {
	if c.Service.Executable == "" {
		return fmt.Errorf("service.executable required")
	}
	if c.Service.Name == "" {
		return fmt.Errorf("service.name required")
	}
	if c.Entry.Name == "" {
		return fmt.Errorf("entry.name required")
	}
	if c.Entry.Interface == "" {
		return fmt.Errorf("entry.interface required")
	}
	if c.Registry.ServiceName == "" && c.Registry.Addr == "" {
		return fmt.Errorf("registry.service_name or registry.addr required")
	}
	switch c.History.Type {
	case "", "none", "sql", "clickhouse", "opensearch":
	default:
		return fmt.Errorf("history.type %q unknown", c.History.Type)
	}
	return nil
}

// Fixture resolves the component table: an external fixture file wins over
// inline components.
func (c *Config) Fixture() (fixture.Table, error) {
	if c.FixtureFile != "" {
		return fixture.Load(c.FixtureFile)
	}
	t := fixture.Table(c.Components)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
