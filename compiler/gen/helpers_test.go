package gen

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/shapegen/compiler/load"
)

// mapCatalog is a Catalog backed by a map of models.
type mapCatalog map[string]*load.Model

func (c mapCatalog) Model(name string) (*load.Model, bool) {
	m, ok := c[name]
	return m, ok
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capture returns a logger writing warnings and above into the buffer.
func capture() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})), &buf
}

func ptr[T any](v T) *T { return &v }

// testConfiguration returns a store whose default writer writes into a
// temporary directory.
func testConfiguration(t *testing.T, opts ...Option) *Configuration {
	t.Helper()
	conf := NewConfiguration()
	_, err := conf.DefineWriter(DefaultWriter, "", append([]Option{WithOutputDir(filepath.Join(t.TempDir(), "types"))}, opts...)...)
	require.NoError(t, err)
	return conf
}

func testContext(t *testing.T, conf *Configuration, catalog Catalog, types ...*load.Type) *WriterContext {
	t.Helper()
	reg, err := load.NewRegistry(types...)
	require.NoError(t, err)
	if conf == nil {
		conf = testConfiguration(t)
	}
	wctx, err := NewWriterContext(conf, DefaultWriter, reg, catalog, discard())
	require.NoError(t, err)
	return wctx
}

func nodeFor(t *testing.T, wctx *WriterContext, name string) *Interface {
	t.Helper()
	id, ok := wctx.Registry().Lookup(name)
	require.True(t, ok, "type %s", name)
	n, err := wctx.InterfaceFor(id)
	require.NoError(t, err)
	return n
}

func names(props []*Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func propsNamed(names ...string) []*Property {
	props := make([]*Property, len(names))
	for i, n := range names {
		props[i] = &Property{Name: n, Type: "string"}
	}
	return props
}

func propNamed(props []*Property, name string) *Property {
	for _, p := range props {
		if p.Name == name {
			return p
		}
	}
	return nil
}
