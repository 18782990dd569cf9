package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/metrics"
	"github.com/KirkDiggler/rpg-compendium/internal/orchestrators/ingest"
	"github.com/KirkDiggler/rpg-compendium/internal/watcher"
)

var (
	importWorkers     int
	importWatch       bool
	importMetricsAddr string
	importBackend     string
	importDSN         string
)

var importCmd = &cobra.Command{
	Use:   "import <glob>...",
	Short: "Import compendium XML files",
	Long: `Import every spell, race and item element of the matching files.
Patterns support ** (for example "books/**/*.xml"). Re-importing a file
updates records in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "concurrent imports (overrides import.workers)")
	importCmd.Flags().BoolVar(&importWatch, "watch", false, "keep running and re-import files when they change")
	importCmd.Flags().StringVar(&importMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	importCmd.Flags().StringVar(&importBackend, "store", "", "store backend: sqlite, postgres or redis")
	importCmd.Flags().StringVar(&importDSN, "dsn", "", "SQL data source (sqlite path or postgres URL)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if cmd.Flags().Changed("workers") {
		cfg.Import.Workers = importWorkers
	}
	if importMetricsAddr != "" {
		cfg.Metrics.Addr = importMetricsAddr
	}
	if importBackend != "" {
		cfg.Store.Backend = importBackend
	}
	if importDSN != "" {
		cfg.Store.SQL.DSN = importDSN
	}

	files, err := expandGlobs(args)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			slog.WarnContext(ctx, "failed to close store", "error", err)
		}
	}()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, a.registry); err != nil {
				slog.ErrorContext(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	var total ingest.Summary
	for _, file := range files {
		out, err := a.ingest.IngestFile(ctx, &ingest.IngestFileInput{Path: file})
		if err != nil {
			return err
		}
		printFileResult(cmd.OutOrStdout(), out)
		total.Add(out.Summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total: %d created, %d updated, %d failed\n",
		total.Created, total.Updated, total.Failed)

	if importWatch {
		return watchAndImport(ctx, cmd.OutOrStdout(), a, args, files)
	}

	if total.Failed > 0 {
		return errors.Newf(errors.CodeAborted, "%d of %d elements failed to import", total.Failed, total.Total())
	}
	return nil
}

// expandGlobs resolves each pattern and returns the matching files sorted
// and without duplicates. A pattern matching nothing is an error.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.WrapWithCodef(err, errors.CodeInvalidArgument, "invalid pattern %q", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.InvalidArgumentf("no files match %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// watchRoots splits each pattern into the directory to watch and the
// pattern to match below it
func watchRoots(patterns []string) (roots, rest []string) {
	seenRoot := make(map[string]bool)
	seenRest := make(map[string]bool)
	for _, p := range patterns {
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(p))
		base = filepath.FromSlash(base)
		if !seenRoot[base] {
			seenRoot[base] = true
			roots = append(roots, base)
		}
		if !seenRest[pattern] {
			seenRest[pattern] = true
			rest = append(rest, pattern)
		}
	}
	return roots, rest
}

func watchAndImport(ctx context.Context, out io.Writer, a *app, patterns, imported []string) error {
	roots, rest := watchRoots(patterns)
	w, err := watcher.New(&watcher.Config{
		Roots:    roots,
		Patterns: rest,
		Debounce: cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	for _, file := range imported {
		if abs, err := filepath.Abs(file); err == nil {
			w.Remember(abs)
		}
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	for path := range w.Changes() {
		res, err := a.ingest.IngestFile(ctx, &ingest.IngestFileInput{Path: path})
		if err != nil {
			slog.ErrorContext(ctx, "re-import failed", "path", path, "error", err)
			continue
		}
		printFileResult(out, res)
	}
	return nil
}

func printFileResult(w io.Writer, out *ingest.IngestFileOutput) {
	fmt.Fprintf(w, "%s: %d created, %d updated, %d failed\n",
		out.Path, out.Summary.Created, out.Summary.Updated, out.Summary.Failed)
	for _, r := range out.Results {
		if r.Err == nil {
			continue
		}
		name := r.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "  #%d %s %s: %v\n", r.Index, r.Kind, name, r.Err)
	}
}
