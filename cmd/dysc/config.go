package main

import (
	"context"

	"github.com/spf13/cobra"

	"dysc/internal/project"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg project.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) project.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(project.Config); ok {
			return cfg
		}
	}
	return project.Default()
}

// loadConfig reads --config, or the nearest dysc.toml above the working
// directory.
func loadConfig(cmd *cobra.Command) (project.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return project.Config{}, err
	}
	if path != "" {
		return project.Load(path)
	}
	return project.Discover(".")
}
