package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dysc/internal/astio"
	"dysc/internal/cache"
	"dysc/internal/diagfmt"
	"dysc/internal/pipeline"
	"dysc/internal/project"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] <tree>...",
	Short: "Compile serialized trees to LLVM IR",
	Long: `Decode each tree, infer its types, lower it and write LLVM IR.
Output goes to [output].dir of dysc.toml, one <name>.ll per input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmit,
}

func init() {
	emitCmd.Flags().StringP("output", "o", "", "output directory (default: [output].dir)")
	emitCmd.Flags().Bool("stdout", false, "print IR to stdout instead of writing files")
	emitCmd.Flags().IntP("jobs", "j", 0, "max parallel units (0=auto)")
	emitCmd.Flags().Bool("no-cache", false, "bypass the IR cache")
	emitCmd.Flags().String("cache-dir", "", "IR cache directory (default: user cache dir)")
	emitCmd.Flags().String("format", "auto", "input format (auto|msgpack|json)")
	emitCmd.Flags().String("target", "", "target triple (default: [compile].target_triple)")
	emitCmd.Flags().Int("buffer-capacity", 0, "snprintf buffer size (default: [compile].buffer_capacity)")
	emitCmd.Flags().String("errors", "pretty", "error output (pretty|json)")
	emitCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

type emitOptions struct {
	outDir   string
	toStdout bool
	jobs     int
	noCache  bool
	cacheDir string
	format   astio.Format
	errors   string
	ui       switchMode
}

func readEmitOptions(cmd *cobra.Command, cfg project.Config) (emitOptions, pipeline.Options, error) {
	var opts emitOptions
	flags := cmd.Flags()
	popts := cfg.PipelineOptions()

	var err error
	if opts.outDir, err = flags.GetString("output"); err != nil {
		return opts, popts, err
	}
	if opts.outDir == "" {
		opts.outDir = cfg.OutputDir()
	}
	if opts.toStdout, err = flags.GetBool("stdout"); err != nil {
		return opts, popts, err
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, popts, err
	}
	if opts.noCache, err = flags.GetBool("no-cache"); err != nil {
		return opts, popts, err
	}
	opts.noCache = opts.noCache || !cfg.Output.Cache
	if opts.cacheDir, err = flags.GetString("cache-dir"); err != nil {
		return opts, popts, err
	}

	formatStr, err := flags.GetString("format")
	if err != nil {
		return opts, popts, err
	}
	if formatStr != "" && formatStr != "auto" {
		if opts.format, err = astio.ParseFormat(formatStr); err != nil {
			return opts, popts, err
		}
	}

	if flags.Changed("target") {
		if popts.LLVM.TargetTriple, err = flags.GetString("target"); err != nil {
			return opts, popts, err
		}
	}
	if flags.Changed("buffer-capacity") {
		n, err := flags.GetInt("buffer-capacity")
		if err != nil {
			return opts, popts, err
		}
		if n <= 0 {
			return opts, popts, fmt.Errorf("--buffer-capacity must be positive, got %d", n)
		}
		popts.Lower.BufferCapacity = n
	}

	if opts.errors, err = flags.GetString("errors"); err != nil {
		return opts, popts, err
	}
	opts.errors = strings.ToLower(strings.TrimSpace(opts.errors))
	if opts.errors != "pretty" && opts.errors != "json" {
		return opts, popts, fmt.Errorf("invalid --errors value %q (expected pretty|json)", opts.errors)
	}

	uiValue, err := flags.GetString("ui")
	if err != nil {
		return opts, popts, err
	}
	if opts.ui, err = parseSwitch("ui", uiValue); err != nil {
		return opts, popts, err
	}
	return opts, popts, nil
}

func runEmit(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())
	opts, popts, err := readEmitOptions(cmd, cfg)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	var outPaths []string
	if !opts.toStdout {
		if outPaths, err = outputPaths(opts.outDir, args); err != nil {
			return err
		}
	}

	var irCache *cache.Cache
	if !opts.noCache {
		if irCache, err = cache.Open(opts.cacheDir); err != nil {
			return err
		}
	}

	reqs := make([]*pipeline.Request, len(args))
	for i, path := range args {
		reqs[i] = &pipeline.Request{
			Name:    path,
			Path:    path,
			Format:  opts.format,
			Options: popts,
			Cache:   irCache,
		}
	}

	useTUI := !quiet && !opts.toStdout && opts.ui.enabled(os.Stderr)
	results, batchErr := runBatch(cmd.Context(), "emitting", reqs, opts.jobs, useTUI)
	if ctxErr := cmd.Context().Err(); ctxErr != nil {
		return ctxErr
	}

	failed := 0
	var entries []diagfmt.Entry
	for i, r := range results {
		if r.Err != nil {
			failed++
			if opts.errors == "json" {
				entries = append(entries, diagfmt.Describe(r.Name, r.Err))
			} else {
				diagfmt.Pretty(cmd.ErrOrStderr(), r.Name, r.Err, prettyOpts())
			}
			continue
		}
		if opts.toStdout {
			fmt.Fprint(cmd.OutOrStdout(), r.IR)
			continue
		}
		if err := writeIR(outPaths[i], r.IR); err != nil {
			return err
		}
		if !quiet && !useTUI {
			note := ""
			if r.Cached {
				note = " (cached)"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s%s\n", outPaths[i], note)
		}
	}
	if opts.errors == "json" && failed > 0 {
		if err := diagfmt.JSON(cmd.OutOrStdout(), entries); err != nil {
			return err
		}
	}
	if timings {
		printStageTimings(cmd.ErrOrStderr(), results)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(reqs))
	}
	if batchErr != nil {
		return batchErr
	}
	return nil
}

func writeIR(path, ir string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ir), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
