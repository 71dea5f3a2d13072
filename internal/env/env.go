package env

import (
	"os"
	"sort"
	"strings"
)

type Var map[string]string

// Env composes the environment handed to the service-under-test. The service
// must not inherit ambient configuration, so the default base is empty; callers
// opt in to the OS environment explicitly via InheritOS.
type Env struct {
	Var       Var
	inheritOS bool
	deleted   map[string]struct{}
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// InheritOS makes Merge start from the current process environment instead of
// an empty base. The harness never uses this for the service-under-test; it
// exists for auxiliary commands that need a normal environment.
func (e *Env) InheritOS() {
	e.inheritOS = true
}

// Set sets a variable K=V, overriding any inherited value.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
	delete(e.deleted, k)
}

// Unset removes a variable so it is absent from the merged result even when
// inherited from the OS.
func (e *Env) Unset(k string) {
	delete(e.Var, k)
	if e.deleted == nil {
		e.deleted = make(map[string]struct{})
	}
	e.deleted[k] = struct{}{}
}

// Merge returns the final environment in "K=V" form: base (empty or OS),
// overridden by Var, overridden by extra. Keys are sorted for determinism.
func (e *Env) Merge(extra []string) []string {
	m := make(Var)
	if e.inheritOS {
		for _, kv := range os.Environ() {
			if i := strings.IndexByte(kv, '='); i >= 0 && kv[:i] != "" {
				m[kv[:i]] = kv[i+1:]
			}
		}
		for k := range e.deleted {
			delete(m, k)
		}
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	for _, kv := range extra {
		if i := strings.IndexByte(kv, '='); i >= 0 && kv[:i] != "" {
			m[kv[:i]] = kv[i+1:]
		}
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
