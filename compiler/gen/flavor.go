package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"sync"
)

// Flavor renders nodes for one target type system.
type Flavor interface {
	// Name is the value of the flavor option selecting the flavor.
	Name() string
	// Ext is the extension of generated files, including the dot.
	// Stale cleanup only considers files with this extension.
	Ext() string
	// Header returns the first lines of every generated file. A file that
	// starts with the header of the current digest is up to date.
	Header(digest string) string
	// Filename returns the path of the node file relative to the output
	// directory, including the extension.
	Filename(n *Interface) string
	// IndexFilename returns the path of the aggregator file.
	IndexFilename() string
	// RenderInterface returns the body of the node file.
	RenderInterface(n *Interface) ([]byte, error)
	// RenderIndex returns the body of the aggregator file.
	RenderIndex(nodes []*Interface) ([]byte, error)
}

var (
	flavorsMu sync.RWMutex
	flavors   = map[string]Flavor{}
)

// RegisterFlavor makes a flavor available by name.
// It panics if called twice with the same name or with a nil flavor.
func RegisterFlavor(f Flavor) {
	flavorsMu.Lock()
	defer flavorsMu.Unlock()
	if f == nil {
		panic("shapegen: RegisterFlavor flavor is nil")
	}
	if _, dup := flavors[f.Name()]; dup {
		panic("shapegen: RegisterFlavor called twice for " + f.Name())
	}
	flavors[f.Name()] = f
}

// LookupFlavor returns the registered flavor with the given name.
func LookupFlavor(name string) (Flavor, bool) {
	flavorsMu.RLock()
	defer flavorsMu.RUnlock()
	f, ok := flavors[name]
	return f, ok
}

// Flavors returns the names of the registered flavors, sorted.
func Flavors() []string {
	flavorsMu.RLock()
	defer flavorsMu.RUnlock()
	return slices.Sorted(maps.Keys(flavors))
}

// Digest returns the hex encoded SHA-256 of a fingerprint.
func Digest(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}
