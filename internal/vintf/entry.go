package vintf

import "strings"

// Variant selects which of the two discovery documents is being patched. The
// manifest carries transport and fqname; the compatibility matrix must not.
// That asymmetry is fixed by the discovery format, not configurable.
type Variant int

const (
	Manifest Variant = iota
	CompatibilityMatrix
)

// Entry describes one declared interface: a single hal block in a discovery
// document.
type Entry struct {
	Name      string   `toml:"name" mapstructure:"name"`           // e.g. android.hardware.media.c2
	Format    string   `toml:"format" mapstructure:"format"`       // e.g. hidl
	Transport string   `toml:"transport" mapstructure:"transport"` // manifest only, e.g. hwbinder
	Version   string   `toml:"version" mapstructure:"version"`     // e.g. 1.0
	Interface string   `toml:"interface" mapstructure:"interface"` // e.g. IComponentStore
	Instances []string `toml:"instances" mapstructure:"instances"` // ordered, e.g. default, software
	FQName    string   `toml:"fqname" mapstructure:"fqname"`       // manifest only, e.g. @1.0::IComponentStore/default
}

// Render produces the hal block for the given variant, indented to nest under
// the document root. Transport and fqname are emitted for the manifest only.
func (e Entry) Render(v Variant) string {
	var b strings.Builder
	b.WriteString("    <hal format=\"" + e.Format + "\">\n")
	b.WriteString("        <name>" + e.Name + "</name>\n")
	if v == Manifest && e.Transport != "" {
		b.WriteString("        <transport>" + e.Transport + "</transport>\n")
	}
	b.WriteString("        <version>" + e.Version + "</version>\n")
	b.WriteString("        <interface>\n")
	b.WriteString("            <name>" + e.Interface + "</name>\n")
	for _, inst := range e.Instances {
		b.WriteString("            <instance>" + inst + "</instance>\n")
	}
	b.WriteString("        </interface>\n")
	if v == Manifest && e.FQName != "" {
		b.WriteString("        <fqname>" + e.FQName + "</fqname>\n")
	}
	b.WriteString("    </hal>\n")
	return b.String()
}
