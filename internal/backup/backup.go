package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// entry is one recorded file state. absent files are remembered so Restore can
// remove anything the run created.
type entry struct {
	data   []byte
	mode   fs.FileMode
	absent bool
}

// Manager records host file contents before the harness mutates them and puts
// them back byte for byte afterwards. Snapshots live for one setup/teardown
// cycle only.
type Manager struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewManager() *Manager {
	return &Manager{entries: make(map[string]entry)}
}

// Snapshot records the current content of path. A missing file is recorded as
// absent, not an error. Snapshotting the same path twice keeps the first
// record so a restore always reverts to pre-run state.
func (m *Manager) Snapshot(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[path]; ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.entries[path] = entry{absent: true}
			return nil
		}
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	m.entries[path] = entry{data: data, mode: st.Mode().Perm()}
	return nil
}

// Restore writes the recorded content of path back, or removes the file if it
// did not exist at snapshot time. Restoring a path that was never snapshotted
// is an error.
func (m *Manager) Restore(path string) error {
	m.mu.Lock()
	e, ok := m.entries[path]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("restore %s: no snapshot", path)
	}
	if e.absent {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("restore %s: %w", path, err)
		}
		return nil
	}
	if err := os.WriteFile(path, e.data, e.mode); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	return nil
}

// RestoreAll restores every snapshot and clears the set, aggregating errors so
// one failed restore never skips the rest. Safe to call with no snapshots.
func (m *Manager) RestoreAll() error {
	m.mu.Lock()
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	m.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := m.Restore(p); err != nil {
			errs = append(errs, err)
		}
	}
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return errors.Join(errs...)
}

// Len reports how many paths are currently snapshotted.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
