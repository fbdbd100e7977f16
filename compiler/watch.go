package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/shapegen/compiler/gen"
)

// PassFunc receives the outcome of every pass of the watch mode.
type PassFunc func(results []*gen.Result, err error)

// Watch runs a pass, then watches the project file and the manifest
// directories and runs a pass after every burst of YAML file events,
// until ctx is done. Events arriving while a pass runs are coalesced
// into at most one pending pass. Failed passes are reported to notify
// and logged; they do not stop the watch. Only the first pass is forced.
func (r *Runner) Watch(ctx context.Context, force bool, notify PassFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	dirs, err := r.watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	r.logger.Info("watching for changes", "dirs", dirs)

	pending := make(chan struct{}, 1)
	pending <- struct{}{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if relevant(ev) {
					r.logger.Debug("file changed", "file", ev.Name, "op", ev.Op.String())
					settle = time.After(r.debounce)
				}
			case <-settle:
				settle = nil
				select {
				case pending <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.logger.Warn("watch error", "error", err)
			}
		}
	})
	g.Go(func() error {
		first := true
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-pending:
				results, err := r.Run(ctx, force && first)
				first = false
				if err != nil && ctx.Err() == nil {
					r.logger.Error("generation failed", "error", err)
				}
				if notify != nil {
					notify(results, err)
				}
			}
		}
	})
	return g.Wait()
}

// watchDirs returns the project directory and the directories of the
// manifest patterns.
func (r *Runner) watchDirs() ([]string, error) {
	p, err := LoadProject(r.path)
	if err != nil {
		return nil, err
	}
	dirs := []string{p.Dir()}
	for _, pattern := range p.Manifests {
		dir := filepath.Dir(p.resolve(pattern))
		if strings.ContainsAny(dir, "*?[") {
			r.logger.Warn("manifest directory pattern is not watched", "pattern", pattern)
			continue
		}
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func relevant(ev fsnotify.Event) bool {
	switch filepath.Ext(ev.Name) {
	case ".yml", ".yaml":
	default:
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
