package service

import (
	"time"

	"halcheck/internal/logger"
)

// Spec describes the service-under-test: the binary the harness spawns and
// the identity of the production variant it temporarily displaces.
type Spec struct {
	Name         string        `toml:"name" mapstructure:"name"`                   // service-manager name of the production instance
	Executable   string        `toml:"executable" mapstructure:"executable"`       // path to the service binary
	WorkDir      string        `toml:"workdir" mapstructure:"workdir"`             // optional working dir
	LibraryPath  string        `toml:"library_path" mapstructure:"library_path"`   // value forced into LD_LIBRARY_PATH
	Env          []string      `toml:"env" mapstructure:"env"`                     // extra K=V entries
	SettleDelay  time.Duration `toml:"settle_delay" mapstructure:"settle_delay"`   // fallback wait when no readiness probe
	ReadyTimeout time.Duration `toml:"ready_timeout" mapstructure:"ready_timeout"` // bound for probe polling
	Log          logger.Config `toml:"log" mapstructure:"log"`
}

const (
	// DefaultSettleDelay is the documented fallback wait after spawning the
	// service when no readiness probe is available. It reduces, not
	// eliminates, the race against discovery registration.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultReadyTimeout bounds readiness polling; a service not reachable
	// by then is treated as started anyway and left to the first real
	// connect attempt.
	DefaultReadyTimeout = 5 * time.Second

	probeInterval = 100 * time.Millisecond
)

func (s Spec) settleDelay() time.Duration {
	if s.SettleDelay > 0 {
		return s.SettleDelay
	}
	return DefaultSettleDelay
}

func (s Spec) readyTimeout() time.Duration {
	if s.ReadyTimeout > 0 {
		return s.ReadyTimeout
	}
	return DefaultReadyTimeout
}
