// Package project loads dysc.toml.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dysc/internal/backend/llvm"
	"dysc/internal/infer"
	"dysc/internal/lower"
	"dysc/internal/pipeline"
	"dysc/internal/trace"
)

// Config is the decoded dysc.toml.
type Config struct {
	// Path is the file the config was loaded from; empty for defaults.
	Path    string        `toml:"-"`
	Compile CompileConfig `toml:"compile"`
	Output  OutputConfig  `toml:"output"`
	Trace   TraceConfig   `toml:"trace"`
}

type CompileConfig struct {
	BufferCapacity int    `toml:"buffer_capacity"`
	PassFactor     int    `toml:"pass_factor"`
	TargetTriple   string `toml:"target_triple"`
}

type OutputConfig struct {
	Dir   string `toml:"dir"`
	Cache bool   `toml:"cache"`
}

type TraceConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no dysc.toml exists.
func Default() Config {
	return Config{
		Compile: CompileConfig{
			BufferCapacity: lower.DefaultBufferCapacity,
			PassFactor:     infer.DefaultPassFactor,
		},
		Output: OutputConfig{Dir: "build", Cache: true},
		Trace:  TraceConfig{Level: "off"},
	}
}

// Load parses path over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("compile", "buffer_capacity") && cfg.Compile.BufferCapacity <= 0 {
		return Config{}, fmt.Errorf("%s: [compile].buffer_capacity must be positive", path)
	}
	if meta.IsDefined("compile", "pass_factor") && cfg.Compile.PassFactor <= 0 {
		return Config{}, fmt.Errorf("%s: [compile].pass_factor must be positive", path)
	}
	if meta.IsDefined("output", "dir") && strings.TrimSpace(cfg.Output.Dir) == "" {
		return Config{}, fmt.Errorf("%s: [output].dir must not be empty", path)
	}
	if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
		return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Discover loads the nearest dysc.toml above startDir, or the defaults
// when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Root is the directory holding the config file, or "." for defaults.
func (c Config) Root() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// OutputDir resolves [output].dir against the project root.
func (c Config) OutputDir() string {
	dir := filepath.FromSlash(c.Output.Dir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root(), dir)
}

// TraceLevel parses [trace].level.
func (c Config) TraceLevel() (trace.Level, error) {
	return trace.ParseLevel(c.Trace.Level)
}

// PipelineOptions maps the [compile] section onto the pipeline stages.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Infer: infer.Options{PassFactor: c.Compile.PassFactor},
		Lower: lower.Options{BufferCapacity: c.Compile.BufferCapacity},
		LLVM:  llvm.Options{TargetTriple: c.Compile.TargetTriple},
	}
}
