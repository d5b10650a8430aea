package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dysc/internal/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove emitted IR and the IR cache",
	Long:  "Remove [output].dir of the current project. With --cache, also drop every cached IR payload.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("cache", false, "also drop the IR cache")
	cleanCmd.Flags().String("cache-dir", "", "IR cache directory (default: user cache dir)")
}

func runClean(cmd *cobra.Command, _ []string) error {
	cfg := configFrom(cmd.Context())
	out := cmd.OutOrStdout()

	outDir := cfg.OutputDir()
	info, err := os.Stat(outDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(out, "output directory not found")
	case err != nil:
		return fmt.Errorf("failed to stat %q: %w", outDir, err)
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", outDir)
	default:
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", outDir, err)
		}
		fmt.Fprintf(out, "removed %s\n", outDir)
	}

	dropCache, err := cmd.Flags().GetBool("cache")
	if err != nil || !dropCache {
		return err
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	c, err := cache.Open(cacheDir)
	if err != nil {
		return err
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	fmt.Fprintf(out, "dropped cache %s\n", c.Dir())
	return nil
}
