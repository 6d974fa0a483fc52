package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dmitriid/svx/internal/adapter/cache"
	"github.com/dmitriid/svx/internal/adapter/fs"
	"github.com/dmitriid/svx/internal/domain"
	"github.com/dmitriid/svx/internal/port"
)

// batchSize is the number of files per startup compilation batch.
const batchSize = 4

// Coordinator owns the module map: the mapping from source path to its
// latest compiled unit. Startup compiles all documents in concurrent
// batches; after that, file events are processed strictly serially in
// arrival order, so the map is never mutated concurrently.
type Coordinator struct {
	root   string
	synth  *Synthesizer
	walker *fs.Walker
	loader port.Loader
	styles port.StylesheetWriter
	cache  *cache.BuildCache // optional
	logger *slog.Logger

	mu    sync.RWMutex
	units map[string]domain.CompiledUnit
}

func NewCoordinator(
	root string,
	synth *Synthesizer,
	walker *fs.Walker,
	loader port.Loader,
	styles port.StylesheetWriter,
	buildCache *cache.BuildCache,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		root:   root,
		synth:  synth,
		walker: walker,
		loader: loader,
		styles: styles,
		cache:  buildCache,
		logger: logger,
		units:  make(map[string]domain.CompiledUnit),
	}
}

// BuildResult summarizes a full compilation pass.
type BuildResult struct {
	FilesCompiled int
	FilesSkipped  int
	FilesFailed   int
	Errors        []string
}

// ProgressFunc reports per-file progress during a full build.
type ProgressFunc func(processed, total int, path string)

// CompileAll walks the source root and compiles every recognized document,
// batch by batch with one worker task per batch. Batch results are local
// maps merged only after every task has finished. A failed document never
// aborts the pass; it lands in the map as a diagnostic unit. The aggregate
// stylesheet is rewritten once at the end.
func (c *Coordinator) CompileAll(ctx context.Context, progress ProgressFunc) (*BuildResult, error) {
	files, err := c.walker.Walk(c.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", c.root, err)
	}

	batches := partition(files, batchSize)
	results := make([]map[string]domain.CompiledUnit, len(batches))
	stats := make([]BuildResult, len(batches))

	var processed atomic.Int64
	total := len(files)

	g, _ := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			local := make(map[string]domain.CompiledUnit, len(batch))
			for _, file := range batch {
				unit, skipped := c.compileOne(file.Path, file.Kind)
				local[file.Path] = unit

				switch {
				case unit.Diagnostic:
					stats[i].FilesFailed++
					stats[i].Errors = append(stats[i].Errors, fmt.Sprintf("%s: compiled with errors", file.Path))
				case skipped:
					stats[i].FilesSkipped++
				default:
					stats[i].FilesCompiled++
				}

				if progress != nil {
					progress(int(processed.Add(1)), total, file.Path)
				}
			}
			results[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	for _, local := range results {
		for path, unit := range local {
			c.units[path] = unit
		}
	}
	c.mu.Unlock()

	result := &BuildResult{}
	for _, s := range stats {
		result.FilesCompiled += s.FilesCompiled
		result.FilesSkipped += s.FilesSkipped
		result.FilesFailed += s.FilesFailed
		result.Errors = append(result.Errors, s.Errors...)
	}

	c.writeAggregate()
	return result, nil
}

// Watch consumes file events one at a time, in arrival order, until the
// channel closes or the context is canceled.
func (c *Coordinator) Watch(ctx context.Context, events <-chan domain.FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent recompiles one changed document, or purges one removed
// document. Events for unrecognized extensions are ignored. The aggregate
// stylesheet is rewritten only when the file's style output actually
// changed.
func (c *Coordinator) HandleEvent(ev domain.FileEvent) {
	kind, ok := domain.KindForPath(ev.Path)
	if !ok {
		return
	}

	for _, k := range ev.Kinds {
		switch k {
		case domain.EventCreated, domain.EventUpdated:
			c.update(ev.Path, kind)
		case domain.EventRemoved:
			c.remove(ev.Path)
		}
	}
}

func (c *Coordinator) update(path string, kind domain.DocumentKind) {
	unit, _ := c.compileOne(path, kind)

	c.mu.Lock()
	prev, had := c.units[path]
	c.units[path] = unit
	c.mu.Unlock()

	c.logger.Info("recompiled", "path", path, "unit", unit.Name)

	if !had || prev.StyleText() != unit.StyleText() {
		c.writeAggregate()
	}
}

func (c *Coordinator) remove(path string) {
	c.mu.Lock()
	_, had := c.units[path]
	delete(c.units, path)
	c.mu.Unlock()

	if !had {
		return
	}
	if c.cache != nil {
		if err := c.cache.Delete(path); err != nil {
			c.logger.Error("failed to drop cache entry", "path", path, "error", err)
		}
	}
	c.logger.Info("removed", "path", path)
	c.writeAggregate()
}

// compileOne reads and compiles a single document. The second return value
// is true when the cached unit was reused because the content hash was
// unchanged; cached units are still loaded into the runtime.
func (c *Coordinator) compileOne(path string, kind domain.DocumentKind) (domain.CompiledUnit, bool) {
	content, err := fs.ReadFile(path)
	if err != nil {
		c.logger.Error("read failed", "path", path, "error", err)
		return c.synth.Fallback(path, err), false
	}

	hash := cache.HashContent(content)
	if c.cache != nil {
		if unit, ok := c.cache.Get(path, hash); ok {
			if err := c.loader.Load(unit); err != nil {
				c.logger.Error("failed to load cached unit", "path", path, "error", err)
			} else {
				return unit, true
			}
		}
	}

	unit := c.synth.Compile(path, kind, content)
	if c.cache != nil {
		if err := c.cache.Put(path, hash, unit); err != nil {
			c.logger.Error("failed to cache unit", "path", path, "error", err)
		}
	}
	return unit, false
}

// Aggregate returns the current aggregate stylesheet: every non-blank
// trimmed style text, ordered by source path, separated by blank lines,
// with no per-file markers.
func (c *Coordinator) Aggregate() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.units))
	for path := range c.units {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var fragments []string
	for _, path := range paths {
		if s := strings.TrimSpace(c.units[path].StyleText()); s != "" {
			fragments = append(fragments, s)
		}
	}
	if len(fragments) == 0 {
		return ""
	}
	return strings.Join(fragments, "\n\n") + "\n"
}

// Unit returns the latest compiled unit for a source path.
func (c *Coordinator) Unit(path string) (domain.CompiledUnit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	unit, ok := c.units[path]
	return unit, ok
}

// Len reports how many source paths the coordinator currently tracks.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}

func (c *Coordinator) writeAggregate() {
	if err := c.styles.WriteStylesheet(c.Aggregate()); err != nil {
		c.logger.Error("failed to write aggregate stylesheet", "error", err)
	}
}

func partition(files []fs.FileInfo, size int) [][]fs.FileInfo {
	var batches [][]fs.FileInfo
	for len(files) > 0 {
		n := size
		if n > len(files) {
			n = len(files)
		}
		batches = append(batches, files[:n])
		files = files[n:]
	}
	return batches
}
