package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"zxmeta/internal/audit"
	"zxmeta/internal/metafile"
	"zxmeta/internal/services"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Review box-front artwork interactively",
		Long: `Walk every entry of a Pegasus metadata document that has a local box
front and choose to keep it, replace it with the title screen or screenshot,
or remove it. The document is rewritten only when something changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := absPath(output)
			if err != nil {
				return err
			}
			if target == "" {
				return services.Wrap(services.ErrValidation, "audit", "output", "--output is required", nil)
			}
			if !strings.HasSuffix(filepath.Base(target), ".txt") {
				return services.Wrap(services.ErrValidation, "audit", "output", "audit only supports Pegasus documents", nil)
			}
			if in := cmd.InOrStdin(); !canPrompt(in) {
				return services.Wrap(services.ErrValidation, "audit", "input", "audit needs an interactive terminal", nil)
			}

			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			unlock, err := metafile.Lock(target)
			if err != nil {
				return err
			}
			defer func() {
				_ = unlock()
			}()

			doc, err := metafile.Load(target)
			if err != nil {
				return err
			}
			if doc == nil {
				return services.Wrap(services.ErrNotFound, "audit", "load", fmt.Sprintf("no document at %s", target), nil)
			}

			store, memo, err := openStores(cfg, logger)
			if err != nil {
				return err
			}
			defer memo.Close()

			// Files already replaced stay replaced; the document is saved
			// even when the review stops early.
			out := cmd.OutOrStdout()
			summary, runErr := audit.New(audit.Options{
				In:     cmd.InOrStdin(),
				Out:    out,
				Cache:  store,
				Logger: logger,
			}).Run(cmd.Context(), doc)

			fmt.Fprintf(out, "Reviewed %d, replaced %d, removed %d\n", summary.Reviewed, summary.Replaced, summary.Removed)
			if !summary.Changed() {
				fmt.Fprintln(out, "No changes")
				return runErr
			}
			gen, err := metafile.NewGenerator(metafile.FormatPegasus, generatorOptions(cfg))
			if err != nil {
				return err
			}
			backup, err := metafile.Save(target, doc, gen, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", target)
			if backup != "" {
				fmt.Fprintf(out, "Previous document saved as %s\n", backup)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Pegasus metadata document to review (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// canPrompt rejects a non-terminal stdin; injected readers are trusted.
func canPrompt(in any) bool {
	if _, ok := in.(interface{ Fd() uintptr }); !ok {
		return true
	}
	return isTerminal(in)
}
