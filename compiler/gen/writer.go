package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Writer writes the nodes of one writer into its output directory.
// Files whose header matches the current digest are left untouched, and
// files with the flavor extension that the batch did not produce are
// removed. A failed batch is rolled back.
type Writer struct {
	name   string
	dir    string
	flavor Flavor
	logger *slog.Logger
}

// Result reports the outcome of one writer batch.
type Result struct {
	Writer  string
	Dir     string
	Written []string
	Skipped []string
	Removed []string
}

// NewWriter returns the writer of the named config.
func NewWriter(name string, c *Config, logger *slog.Logger) (*Writer, error) {
	if strings.TrimSpace(c.OutputDir) == "" {
		return nil, NewConfigError("output_dir", nil, fmt.Sprintf("output_dir must be configured for writer %s", name))
	}
	f, ok := LookupFlavor(c.Flavor)
	if !ok {
		return nil, NewConfigError("flavor", c.Flavor, fmt.Sprintf("unknown flavor; registered flavors: %s", strings.Join(Flavors(), ", ")))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		name:   name,
		dir:    c.OutputDir,
		flavor: f,
		logger: logger.With("writer", name, "flavor", f.Name()),
	}, nil
}

// Flavor returns the flavor of the writer.
func (w *Writer) Flavor() Flavor { return w.flavor }

// batch tracks the filesystem changes of one run for rollback.
type batch struct {
	created     []string
	overwritten map[string][]byte
	removed     map[string][]byte
	order       []string
}

// Run renders nodes and the index. With force, the output directory is
// removed first.
func (w *Writer) Run(nodes []*Interface, force bool) (*Result, error) {
	res := &Result{Writer: w.name, Dir: w.dir}
	if force {
		if err := os.RemoveAll(w.dir); err != nil {
			return nil, &WriteError{Dir: w.dir, Flavor: w.flavor.Name(), Cause: err}
		}
	}
	nodes = slices.DeleteFunc(slices.Clone(nodes), (*Interface).Empty)
	b := &batch{overwritten: map[string][]byte{}, removed: map[string][]byte{}}
	if err := w.run(nodes, force, b, res); err != nil {
		return nil, &WriteError{Dir: w.dir, Flavor: w.flavor.Name(), Rollback: b.rollback(), Cause: err}
	}
	w.logger.Info("generated types",
		"written", len(res.Written), "skipped", len(res.Skipped), "removed", len(res.Removed))
	return res, nil
}

func (w *Writer) run(nodes []*Interface, force bool, b *batch, res *Result) error {
	generated := make(map[string]bool, len(nodes)+1)
	for _, n := range nodes {
		name := w.flavor.Filename(n)
		if generated[name] {
			return NewGenerationError("write", name, fmt.Sprintf("type %s maps to a file that is already generated", n.Type().Name), nil)
		}
		generated[name] = true
		if err := w.write(name, n.Fingerprint(), func() ([]byte, error) { return w.flavor.RenderInterface(n) }, b, res); err != nil {
			return err
		}
	}
	index := w.flavor.IndexFilename()
	generated[index] = true
	// The index renders names, exports and settings of every node, so it
	// is fingerprinted by its rendered body.
	body, err := w.flavor.RenderIndex(nodes)
	if err != nil {
		return err
	}
	if err := w.write(index, string(body), func() ([]byte, error) { return body, nil }, b, res); err != nil {
		return err
	}
	if force {
		return nil
	}
	return w.cleanup(generated, b, res)
}

// write renders one file unless the file on disk carries the same header.
func (w *Writer) write(name, fingerprint string, render func() ([]byte, error), b *batch, res *Result) error {
	path := filepath.Join(w.dir, filepath.FromSlash(name))
	header := w.flavor.Header(Digest(fingerprint))
	if upToDate(path, header) {
		res.Skipped = append(res.Skipped, name)
		return nil
	}
	body, err := render()
	if err != nil {
		return err
	}
	old, err := os.ReadFile(path)
	switch {
	case err == nil:
		b.overwritten[path] = old
	case errors.Is(err, fs.ErrNotExist):
		b.created = append(b.created, path)
	default:
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, append([]byte(header), body...), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.logger.Debug("wrote file", "file", name)
	res.Written = append(res.Written, name)
	return nil
}

// cleanup removes files with the flavor extension that the batch did not
// generate.
func (w *Writer) cleanup(generated map[string]bool, b *batch, res *Result) error {
	var stale []string
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != w.flavor.Ext() {
			return nil
		}
		rel, err := filepath.Rel(w.dir, path)
		if err != nil {
			return err
		}
		if !generated[filepath.ToSlash(rel)] {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	for _, path := range stale {
		old, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read stale file %s: %w", path, err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale file %s: %w", path, err)
		}
		b.removed[path] = old
		b.order = append(b.order, path)
		rel, _ := filepath.Rel(w.dir, path)
		w.logger.Debug("removed stale file", "file", rel)
		res.Removed = append(res.Removed, filepath.ToSlash(rel))
	}
	return nil
}

// upToDate reports whether the file at path starts with header.
func upToDate(path, header string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, len(header))
	if _, err := io.ReadFull(f, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, []byte(header))
}

// rollback deletes the files created by the batch and restores the
// files it overwrote or removed.
func (b *batch) rollback() error {
	var errs []error
	for _, path := range b.created {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	for path, old := range b.overwritten {
		if err := os.WriteFile(path, old, 0o644); err != nil {
			errs = append(errs, err)
		}
	}
	for _, path := range b.order {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.WriteFile(path, b.removed[path], 0o644); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
