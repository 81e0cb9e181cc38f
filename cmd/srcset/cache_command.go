package main

import (
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/spf13/cobra"

	"srcset/internal/blobstore"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Variant cache utilities",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show variant cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			files, dirs, err := countEntries(rt.cache)
			if err != nil {
				return fmt.Errorf("walk cache: %w", err)
			}
			stateEntries, err := rt.state.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count state entries: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"cache_dir":     rt.cfg.Paths.CacheDir,
					"variant_files": files,
					"directories":   dirs,
					"state_backend": rt.cfg.StateCache.Backend,
					"state_entries": stateEntries,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading(out, "Variant cache"))
			rows := [][]string{
				{"Cache dir", rt.cfg.Paths.CacheDir},
				{"Variant files", strconv.Itoa(files)},
				{"Directories", strconv.Itoa(dirs)},
				{"State backend", rt.cfg.StateCache.Backend},
				{"State entries", strconv.FormatInt(stateEntries, 10)},
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Property", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

// countEntries walks the whole cache tree and tallies files and
// subdirectories. A missing cache root counts as empty.
func countEntries(store blobstore.Store) (files, dirs int, err error) {
	var walk func(rel string) error
	walk = func(rel string) error {
		subdirs, names, err := store.List(rel)
		if err != nil {
			if rel == "." && errors.Is(err, blobstore.ErrNotExist) {
				return nil
			}
			return err
		}
		files += len(names)
		for _, dir := range subdirs {
			dirs++
			if err := walk(path.Join(rel, dir)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("."); err != nil {
		return 0, 0, err
	}
	return files, dirs, nil
}
