package format

import (
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Strategy{}
)

// Register makes a strategy available by name. Format packages call it from
// init; nil values are ignored and a later registration replaces an earlier
// one with the same name.
func Register(s Strategy) {
	if s == nil {
		return
	}
	registryMu.Lock()
	registry[strings.ToLower(s.Name())] = s
	registryMu.Unlock()
}

// Lookup returns the strategy registered under name (case-insensitive).
func Lookup(name string) (Strategy, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[strings.ToLower(name)]
	return s, ok
}

// Names lists registered strategy names in sorted order.
func Names() []string {
	registryMu.RLock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	registryMu.RUnlock()
	sort.Strings(out)
	return out
}
