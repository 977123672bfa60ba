package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"zxmeta/internal/hashcache"
	"zxmeta/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the hash cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached games",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, memo, err := openStores(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer memo.Close()

			summaries, err := store.List()
			if err != nil {
				return err
			}
			described, err := memo.Count(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache dir: %s\n", store.Root())
			fmt.Fprintf(out, "Descriptions memoized: %d\n", described)
			printCacheEntries(out, summaries)
			return nil
		},
	}
}

func printCacheEntries(out io.Writer, summaries []hashcache.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(out, "Cached games: none")
		return
	}
	const stampLayout = "2006-01-02 15:04"
	rows := make([][]string, 0, len(summaries))
	for i, s := range summaries {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			title,
			s.Hash,
			s.File,
			s.Modified.Local().Format(stampLayout),
		})
	}
	fmt.Fprintf(out, "Cached games: %d\n", len(summaries))
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "MD5", "File", "Updated"},
		rows,
		[]columnAlignment{alignRight},
	))
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry and memoized description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, memo, err := openStores(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer memo.Close()

			count, err := store.Count()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			if err := memo.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached games\n", count)
			return nil
		},
	}
}
