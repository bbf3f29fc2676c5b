package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelfmark/internal/cachestore"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheKeysCommand(ctx))
	cacheCmd.AddCommand(newCacheCleanCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache hit statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stats := app.cache.Stats()
			keys := app.cache.ListKeys()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", app.cfg.CacheDatabasePath())
			rendered := renderTable(
				[]string{"Entries", "Hits", "Misses", "Sets", "Hit rate"},
				[][]string{{
					strconv.Itoa(len(keys)),
					strconv.FormatUint(stats.Hits, 10),
					strconv.FormatUint(stats.Misses, 10),
					strconv.FormatUint(stats.Sets, 10),
					stats.HitRate,
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			)
			fmt.Fprintln(out, rendered)
			return nil
		},
	}
}

func newCacheKeysCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List cached keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			keys := app.cache.ListKeys()
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}
}

func newCacheCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			release, err := cachestore.AcquireMaintenanceLock(app.maintenanceLockPath())
			if err != nil {
				return err
			}
			defer release()

			removed := app.cache.CleanExpired()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [FILTER...]",
		Short: "Delete cache entries, optionally only those matching a filter",
		Long: "Without arguments every entry is deleted. With arguments only keys " +
			"containing one of the given substrings are deleted, e.g. `shelfmark " +
			"cache clear tmdb` drops all TMDB answers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			release, err := cachestore.AcquireMaintenanceLock(app.maintenanceLockPath())
			if err != nil {
				return err
			}
			defer release()

			removed := app.cache.Clear(args...)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
			return nil
		},
	}
	return cmd
}
