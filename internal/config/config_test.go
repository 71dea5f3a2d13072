package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "halcheck.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
[service]
name = "hardware-intel-media-c2-hal-1-0"
executable = "/data/service/hardware.intel.media.c2@1.0-service"
library_path = "/data/service:/system/lib/vndk-29"

[entry]
name = "android.hardware.media.c2"
format = "hidl"
transport = "hwbinder"
version = "1.0"
interface = "IComponentStore"
instances = ["default", "software"]
fqname = "@1.0::IComponentStore/default"

[registry]
service_name = "c2registry"

[[components]]
name = "c2.sw.avc.decoder"
status = "ok"
`

func TestLoadFillsDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Discovery.DaemonName != DefaultDaemonName {
		t.Errorf("daemon default: %q", c.Discovery.DaemonName)
	}
	if c.Discovery.ManifestPath != DefaultManifestPath || c.Discovery.MatrixPath != DefaultMatrixPath {
		t.Errorf("manifest defaults: %q %q", c.Discovery.ManifestPath, c.Discovery.MatrixPath)
	}
	if c.Discovery.PropagationDelay != time.Second {
		t.Errorf("propagation default: %v", c.Discovery.PropagationDelay)
	}
	tbl, err := c.Fixture()
	if err != nil || len(tbl) != 1 {
		t.Fatalf("fixture: %v %v", tbl, err)
	}
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(writeConfig(t, minimal+`
[discovery]
daemon = "servicemanager"
manifest = "/tmp/manifest.xml"
compatibility_matrix = "/tmp/compatibility_matrix.xml"
dependent_services = ["vendor.gralloc-2-0"]
propagation_delay = "100ms"

[history]
type = "sql"
dsn = ":memory:"
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Discovery.DaemonName != "servicemanager" {
		t.Errorf("daemon: %q", c.Discovery.DaemonName)
	}
	if c.Discovery.PropagationDelay != 100*time.Millisecond {
		t.Errorf("propagation: %v", c.Discovery.PropagationDelay)
	}
	if len(c.Discovery.DependentServices) != 1 || c.Discovery.DependentServices[0] != "vendor.gralloc-2-0" {
		t.Errorf("dependents: %v", c.Discovery.DependentServices)
	}
	if c.History.Type != "sql" || c.History.DSN != ":memory:" {
		t.Errorf("history: %+v", c.History)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		strip string
	}{
		{"missing executable", "executable"},
		{"missing entry name", "name = \"android.hardware.media.c2\""},
		{"missing interface", "interface = \"IComponentStore\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			broken := removeLineContaining(minimal, tc.strip)
			if _, err := Load(writeConfig(t, broken)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateUnknownHistoryType(t *testing.T) {
	if _, err := Load(writeConfig(t, minimal+"\n[history]\ntype = \"kafka\"\n")); err == nil {
		t.Fatal("expected error")
	}
}

func removeLineContaining(content, needle string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, needle) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
