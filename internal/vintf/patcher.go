package vintf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Patcher inserts a declared-interface entry into host discovery documents.
// EnsureDeclared is idempotent: a document that already names the interface is
// left untouched.
type Patcher struct {
	Entry Entry
}

func NewPatcher(e Entry) *Patcher { return &Patcher{Entry: e} }

// RootClosingTag derives the document's closing root tag from its file name:
// manifest.xml closes with </manifest>, compatibility_matrix.xml with
// </compatibility-matrix> (underscores map to dashes in the element name).
func RootClosingTag(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return "</" + strings.ReplaceAll(base, "_", "-") + ">"
}

// EnsureDeclared makes sure path declares p.Entry, returning true when the
// file was modified. The whole new document is built in memory and moved over
// the original with an atomic rename; the file on disk is never left in a
// half-written state.
func (p *Patcher) EnsureDeclared(path string, v Variant) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("vintf: open %s: %w", path, err)
	}
	content := string(data)
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, p.Entry.Name) {
			return false, nil // already declared
		}
	}
	closing := RootClosingTag(path)
	idx := strings.LastIndex(content, closing)
	if idx < 0 {
		return false, fmt.Errorf("vintf: %s: closing tag %s not found", path, closing)
	}
	patched := content[:idx] + p.Entry.Render(v) + content[idx:]

	st, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("vintf: stat %s: %w", path, err)
	}
	if err := writeAtomic(path, []byte(patched), st.Mode().Perm()); err != nil {
		return false, fmt.Errorf("vintf: rewrite %s: %w", path, err)
	}
	return true, nil
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
