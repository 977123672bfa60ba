package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zxmeta/internal/logging"
	"zxmeta/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, caches, external tools and service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configPath := ctx.configPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config", statusInfo, configPath, colorize),
				renderStatusLine("Platform", statusInfo, cfg.Output.Platform, colorize),
				renderStatusLine("Workers", statusInfo, strconv.Itoa(cfg.Lookup.Workers), colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Caches", colorize)...)
			store, memo, err := openStores(cfg, logging.NewNop())
			if err != nil {
				lines = append(lines, renderStatusLine("Hash cache", statusError, err.Error(), colorize))
			} else {
				defer memo.Close()
				if n, err := store.Count(); err != nil {
					lines = append(lines, renderStatusLine("Hash cache", statusError, err.Error(), colorize))
				} else {
					lines = append(lines, renderStatusLine("Hash cache", statusOK, fmt.Sprintf("%d entries in %s", n, store.Root()), colorize))
				}
				if n, err := memo.Count(cmd.Context()); err != nil {
					lines = append(lines, renderStatusLine("Description memo", statusError, err.Error(), colorize))
				} else {
					lines = append(lines, renderStatusLine("Description memo", statusOK, fmt.Sprintf("%d entries in %s", n, memo.Path()), colorize))
				}
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("External tools", colorize)...)
			for _, status := range preflight.CheckExternalTools(cfg) {
				kind, detail := statusOK, status.Command
				if !status.Available {
					kind, detail = statusError, status.Detail
					if status.Optional {
						kind = statusWarn
					}
				}
				lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
			}

			if !offline {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Services", colorize)...)
				for _, r := range preflight.CheckServices(cmd.Context(), cfg) {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					} else if strings.HasPrefix(r.Detail, "Disabled") {
						kind = statusInfo
					}
					lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip remote service checks")
	return cmd
}
