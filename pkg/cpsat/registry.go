package cpsat

import (
	"fmt"
	"sort"
	"sync"
)

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// Register makes an engine available by name. It panics on a nil engine or a
// duplicate name.
func Register(name string, engine Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if engine == nil {
		panic("cpsat: Register engine is nil")
	}
	if _, dup := engines[name]; dup {
		panic("cpsat: Register called twice for engine " + name)
	}
	engines[name] = engine
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	engine, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownEngine, name)
	}
	return engine, nil
}

// Engines returns the sorted names of the registered engines.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
