// SPDX-License-Identifier: MPL-2.0

package applet

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// DefaultRegistry holds the applets linked into the binary.
// Applets register themselves during package initialization.
var DefaultRegistry = NewRegistry()

// Registry maps invocation names to applet descriptors.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	applets map[string]*Descriptor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		applets: make(map[string]*Descriptor),
	}
}

// Register adds an applet to the registry.
// Panics if the descriptor is invalid or its name is already taken.
func (r *Registry) Register(d *Descriptor) {
	if err := d.validate(); err != nil {
		panic("applet: " + err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.applets[d.Name]; exists {
		panic(fmt.Sprintf("applet: %q already registered", d.Name))
	}
	r.applets[d.Name] = d
}

// Lookup retrieves an applet by exact name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.applets[name]
	return d, ok
}

// Resolve maps an invocation path (typically argv[0]) to an applet.
// Everything up to and including the last '/' is stripped; the remaining
// segment must match a registered name exactly.
func (r *Registry) Resolve(invocation string) (*Descriptor, bool) {
	return r.Lookup(Basename(invocation))
}

// Names returns the registered applet names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.applets))
}

// Len returns the number of registered applets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.applets)
}

// RegisterDefault registers an applet in the DefaultRegistry.
// This is typically called from init() functions in applet implementation files.
func RegisterDefault(d *Descriptor) {
	DefaultRegistry.Register(d)
}

// Basename returns the final '/'-separated segment of an invocation path.
// Unlike filepath.Base it does not clean the path, so "dir/" yields "".
func Basename(invocation string) string {
	if i := strings.LastIndexByte(invocation, '/'); i >= 0 {
		return invocation[i+1:]
	}
	return invocation
}
