// Package watcher reports compendium files whose content changed, so they
// can be ingested again.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

const (
	// DefaultDebounce is used when Config.Debounce is zero
	DefaultDebounce = 500 * time.Millisecond
	// DefaultPattern matches compendium exports anywhere under a root
	DefaultPattern = "**/*.xml"

	eventBuffer = 256
)

// Config configures a Watcher
type Config struct {
	// Roots are the directories watched recursively
	Roots []string
	// Patterns are doublestar patterns matched against the path relative to
	// its root; empty means DefaultPattern
	Patterns []string
	// Debounce is how long changes are collected before they are reported
	Debounce time.Duration
}

// Validate ensures the roots exist and the patterns are well formed
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	if len(c.Roots) == 0 {
		vb.RequiredField("Roots")
	}
	for _, root := range c.Roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			vb.InvalidField("Roots", root+" is not a directory")
		}
	}
	for _, p := range c.Patterns {
		if !doublestar.ValidatePattern(p) {
			vb.InvalidField("Patterns", "invalid pattern "+p)
		}
	}
	if c.Debounce < 0 {
		vb.InvalidField("Debounce", "must not be negative")
	}
	return vb.Build()
}

// Watcher emits the absolute path of every matching file whose content
// changed since it was last reported. Deletions are not reported.
type Watcher struct {
	roots    []string
	patterns []string
	debounce time.Duration
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]struct{}

	hashMu sync.Mutex
	hashes map[string]string

	changes chan string
	dropped atomic.Int64
}

// New creates a watcher; call Start to begin receiving changes
func New(cfg *Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			_ = fsw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", r)
		}
		roots = append(roots, abs)
	}

	return &Watcher{
		roots:    roots,
		patterns: patterns,
		debounce: debounce,
		fsw:      fsw,
		pending:  make(map[string]struct{}),
		hashes:   make(map[string]string),
		changes:  make(chan string, eventBuffer),
	}, nil
}

// Changes returns the channel of changed file paths. It is closed when the
// watcher stops.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Remember records the content hash of a file that was already ingested,
// so an unchanged rewrite is not reported
func (w *Watcher) Remember(path string) {
	if hash, err := hashFile(path); err == nil {
		w.hashMu.Lock()
		w.hashes[path] = hash
		w.hashMu.Unlock()
	}
}

// Start adds recursive watches and processes events until ctx is done or
// Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRecursive(ctx, root); err != nil {
			return err
		}
	}

	go w.run(ctx)

	slog.InfoContext(ctx, "watching compendium files",
		"roots", w.roots,
		"patterns", w.patterns,
		"debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// Dropped returns how many changes were discarded because nobody was reading
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Watcher) addRecursive(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			slog.WarnContext(ctx, "failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.ErrorContext(ctx, "file watcher error", "error", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ctx, event.Name); err != nil {
				slog.WarnContext(ctx, "failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !w.matches(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = struct{}{}
	w.pendingMu.Unlock()
}

func (w *Watcher) matches(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, p := range w.patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := w.pending
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	for path := range paths {
		hash, err := hashFile(path)
		if err != nil {
			slog.DebugContext(ctx, "skipping unreadable file", "path", path, "error", err)
			continue
		}

		w.hashMu.Lock()
		unchanged := w.hashes[path] == hash
		w.hashes[path] = hash
		w.hashMu.Unlock()
		if unchanged {
			continue
		}

		select {
		case w.changes <- path:
		default:
			dropped := w.dropped.Add(1)
			slog.WarnContext(ctx, "change channel full, dropping change",
				"path", path,
				"total_dropped", dropped)
		}
	}
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
