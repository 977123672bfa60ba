package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"zxmeta/internal/config"
	"zxmeta/internal/enrich"
	"zxmeta/internal/logging"
	"zxmeta/internal/metafile"
	"zxmeta/internal/preflight"
	"zxmeta/internal/scan"
	"zxmeta/internal/services"
)

type generateOptions struct {
	src        string
	output     string
	assets     string
	platform   string
	launch     string
	moveFailed string
	workers    int
	decodeText bool
	dryRun     bool
	clear      bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scan a directory of games and write the front-end metadata document",
		Long: `Scan a directory of ZX Spectrum games, identify each file by content hash,
enrich it with catalog data, descriptions and artwork, and write the metadata
document. Files that cannot be identified are reported and listed in the
failed-file log; they never make the command fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCfg := *cfg
			if err := applyGenerateFlags(cmd, &runCfg, &opts); err != nil {
				return err
			}
			return runGenerate(cmd, ctx, &runCfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.src, "src", "s", "", "Directory containing game files (required)")
	flags.StringVarP(&opts.output, "output", "o", "", "Metadata document to write (default: <src>/<front-end file name>)")
	flags.StringVarP(&opts.assets, "assets", "a", "", "Directory receiving downloaded artwork (default: output directory)")
	flags.StringVarP(&opts.platform, "platform", "p", "", "Target front-end: pegasus or launchbox")
	flags.StringVar(&opts.launch, "launch", "", "Launch command template written to the document header")
	flags.StringVar(&opts.moveFailed, "move-failed", "", "Move files the catalog does not know into this directory")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Concurrent lookups")
	flags.BoolVar(&opts.decodeText, "decode-text", true, "Write summaries and descriptions as readable multi-line text")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print a diff of the document instead of writing it")
	flags.BoolVar(&opts.clear, "clear", false, "Clear the hash cache and description memo before running")
	_ = cmd.MarkFlagRequired("src")

	return cmd
}

// applyGenerateFlags copies explicit flags over cfg and resolves paths.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, opts *generateOptions) error {
	flags := cmd.Flags()
	src, err := absPath(opts.src)
	if err != nil {
		return err
	}
	opts.src = src

	if flags.Changed("assets") {
		if cfg.Paths.AssetsDir, err = absPath(opts.assets); err != nil {
			return err
		}
	}
	if flags.Changed("move-failed") {
		if cfg.Paths.MoveFailedDir, err = absPath(opts.moveFailed); err != nil {
			return err
		}
	}
	if flags.Changed("platform") {
		cfg.Output.Platform = strings.ToLower(strings.TrimSpace(opts.platform))
	}
	if flags.Changed("launch") {
		cfg.Output.Launch = opts.launch
	}
	if flags.Changed("workers") {
		cfg.Lookup.Workers = opts.workers
	}
	if flags.Changed("decode-text") {
		cfg.Output.DecodeText = opts.decodeText
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := metafile.ParseFormat(cfg.Output.Platform)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "generate", "platform", err.Error(), nil)
	}
	if strings.TrimSpace(opts.output) == "" {
		opts.output = filepath.Join(opts.src, format.DefaultFileName())
	} else if opts.output, err = absPath(opts.output); err != nil {
		return err
	}
	return nil
}

func runGenerate(cmd *cobra.Command, cc *commandContext, cfg *config.Config, opts generateOptions) error {
	out := cmd.OutOrStdout()
	format, err := metafile.ParseFormat(cfg.Output.Platform)
	if err != nil {
		return err
	}

	checks := preflight.RunAll(cfg, preflight.Request{
		SourceDir:     opts.src,
		OutputPath:    opts.output,
		MoveFailedDir: cfg.Paths.MoveFailedDir,
	})
	if err := preflight.Err(checks); err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx := services.WithRunID(cmd.Context(), runID)
	baseLogger, err := cc.logger(cfg)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, baseLogger)

	unlock, err := metafile.Lock(opts.output)
	if err != nil {
		return err
	}
	defer func() {
		_ = unlock()
	}()

	deps, err := buildRuntime(cfg, opts.output, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if opts.clear {
		if err := clearStores(ctx, deps); err != nil {
			return err
		}
		fmt.Fprintln(out, "Cleared cache")
	}

	existing := &metafile.Document{}
	if format.Reparsable() {
		doc, err := metafile.Load(opts.output)
		if err != nil {
			return services.Wrap(services.ErrValidation, "generate", "load", "existing document unreadable", err)
		}
		if doc != nil {
			existing = doc
		}
	}

	// Debug output shares stderr with the bar.
	progress := scan.ForTerminal(cc.verboseEnabled())
	scanner := scan.New(scan.Options{
		Include:   cfg.Scan.Include,
		Exclude:   cfg.Scan.Exclude,
		Extractor: cfg.ExtractorBinary(),
		Progress:  progress,
		Logger:    logger,
	})
	scanned, err := scanner.Scan(ctx, opts.src)
	if err != nil {
		return err
	}

	ec := enrich.Context{
		Cache:         deps.cache,
		Lookup:        deps.lookup,
		Describer:     deps.chain,
		Assets:        deps.resolver,
		Logger:        logger,
		Progress:      progress,
		MediaBaseURL:  cfg.Lookup.MediaBaseURL,
		Timeout:       cfg.LookupTimeout(),
		Workers:       cfg.Lookup.Workers,
		SourceRoot:    opts.src,
		MoveFailedDir: cfg.Paths.MoveFailedDir,
		FailedLogPath: cfg.FailedLogPath(opts.output),
	}
	if opts.dryRun {
		ec.MoveFailedDir = ""
		ec.FailedLogPath = ""
	}
	started := time.Now()
	report, err := enrich.New(ec).Run(ctx, scanned.Games, existing)
	if err != nil {
		return err
	}
	logger.Info("enrichment complete",
		logging.Int("merged", report.Merged),
		logging.Int("failed", len(report.Failed)),
		logging.Duration("elapsed", time.Since(started)))

	gen, err := metafile.NewGenerator(format, generatorOptions(cfg))
	if err != nil {
		return err
	}

	printGenerateSummary(out, scanned, report, deps)
	if len(report.Failed) > 0 && !opts.dryRun {
		fmt.Fprintf(out, "Failed files listed in %s\n", ec.FailedLogPath)
	}

	if opts.dryRun {
		return printDryRun(out, opts.output, report.Document, gen)
	}
	backup, err := metafile.Save(opts.output, report.Document, gen, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", opts.output)
	if backup != "" {
		fmt.Fprintf(out, "Previous document saved as %s\n", backup)
	}
	return nil
}

func generatorOptions(cfg *config.Config) metafile.Options {
	return metafile.Options{
		Collection: cfg.Output.Collection,
		ShortName:  cfg.Output.ShortName,
		Launch:     cfg.Output.Launch,
		DecodeText: cfg.Output.DecodeText,
	}
}

func printGenerateSummary(out io.Writer, scanned *scan.Result, report *enrich.Report, deps *runtimeDeps) {
	fmt.Fprintf(out, "Scanned %d games (%d files skipped)\n", len(scanned.Games), len(scanned.Skipped))
	fmt.Fprintf(out, "Merged %d entries (%d from cache, %d looked up, %d kept from previous document)\n",
		report.Merged, report.CacheHits, report.Lookups, report.Preserved)
	if report.Duplicates > 0 {
		fmt.Fprintf(out, "Skipped %d duplicate files\n", report.Duplicates)
	}
	stats := deps.resolver.Stats()
	fmt.Fprintf(out, "Artwork: %d downloaded, %d reused, %d failed\n", stats.Downloaded, stats.Reused, stats.Failed)

	if len(report.Failed) == 0 {
		return
	}
	fmt.Fprintf(out, "Failed to resolve %d files:\n", len(report.Failed))
	rows := make([][]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		moved := f.MovedTo
		if moved == "" {
			moved = "-"
		}
		rows = append(rows, []string{f.Path, f.Hash, f.Reason(), moved})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "MD5", "Reason", "Moved To"}, rows, nil))
}

func printDryRun(out io.Writer, path string, doc *metafile.Document, gen metafile.Generator) error {
	next, err := gen.Render(doc)
	if err != nil {
		return err
	}
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read current document: %w", err)
	}
	diff, err := metafile.Diff(filepath.Base(path), current, next)
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintln(out, "No changes")
		return nil
	}
	fmt.Fprint(out, diff)
	return nil
}

func clearStores(ctx context.Context, deps *runtimeDeps) error {
	if err := deps.cache.Clear(); err != nil {
		return err
	}
	return deps.memo.Clear(ctx)
}

func absPath(value string) (string, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", value, err)
	}
	if expanded == "" {
		return "", nil
	}
	return filepath.Abs(expanded)
}
