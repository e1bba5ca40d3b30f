// FILE: lixenwraith/bridge/builder.go
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
)

// ValidatorFunc checks the decoded options before the engine is built.
type ValidatorFunc func(o *Options) error

// Builder provides a fluent interface for building an Engine from layered
// settings.
type Builder struct {
	settings   *Settings
	opts       LoadOptions
	defaults   Options
	file       SettingsFile
	args       []string
	logger     *slog.Logger
	cache      *Cache
	cacheSet   bool
	validators []ValidatorFunc
	overrides  []func(*Options)
}

// NewBuilder creates a builder starting from DefaultOptions.
func NewBuilder() *Builder {
	return &Builder{
		settings:   NewSettings(),
		opts:       DefaultLoadOptions(),
		defaults:   DefaultOptions(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithDefaults replaces the default options
func (b *Builder) WithDefaults(defaults Options) *Builder {
	b.defaults = defaults
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithFile sets the configuration file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = SettingsFile{Path: path, Origin: FileExplicit}
	return b
}

// File returns the settings file the builder reads; Path is empty when
// there is none.
func (b *Builder) File() SettingsFile {
	return b.file
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithSources sets the precedence order for configuration sources
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.opts.Sources = sources
	return b
}

// WithEnvTransform sets a custom environment variable transformer
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.opts.EnvTransform = fn
	return b
}

// WithEnvWhitelist limits which paths are checked for env vars
func (b *Builder) WithEnvWhitelist(paths ...string) *Builder {
	if b.opts.EnvWhitelist == nil {
		b.opts.EnvWhitelist = make(map[string]bool)
	}
	for _, path := range paths {
		b.opts.EnvWhitelist[path] = true
	}
	return b
}

// WithLogger sets the engine logger
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithCache injects a cache; nil disables memoization
func (b *Builder) WithCache(cache *Cache) *Builder {
	b.cache = cache
	b.cacheSet = true
	return b
}

// WithMaxDepth overrides the nesting ceiling after all sources are applied
func (b *Builder) WithMaxDepth(depth int) *Builder {
	b.overrides = append(b.overrides, func(o *Options) { o.MaxDepth = depth })
	return b
}

// WithTimeZone overrides the host date zone after all sources are applied
func (b *Builder) WithTimeZone(name string) *Builder {
	b.overrides = append(b.overrides, func(o *Options) { o.TimeZone = name })
	return b
}

// WithValidator adds a validation function run in order after decoding
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// BuildOptions loads every source and decodes the merged options.
// ErrConfigNotFound is returned alongside valid options.
func (b *Builder) BuildOptions() (Options, error) {
	if err := b.settings.RegisterStruct("", b.defaults); err != nil {
		return Options{}, fmt.Errorf("failed to register defaults: %w", err)
	}

	loadErr := b.settings.Load(b.file.Path, b.args, b.opts)
	if loadErr != nil && !errors.Is(loadErr, ErrConfigNotFound) {
		return Options{}, loadErr
	}

	opts, err := b.scanOptions()
	if err != nil {
		return Options{}, err
	}

	// ErrConfigNotFound or nil
	return opts, loadErr
}

// scanOptions decodes the current settings and applies overrides and
// validators.
func (b *Builder) scanOptions() (Options, error) {
	var opts Options
	if err := b.settings.Scan(&opts); err != nil {
		return Options{}, err
	}
	for _, override := range b.overrides {
		override(&opts)
	}

	for _, validator := range b.validators {
		if err := validator(&opts); err != nil {
			return Options{}, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return opts, nil
}

// Build creates the Engine. ErrConfigNotFound is not fatal and is returned
// alongside a usable engine.
func (b *Builder) Build() (*Engine, error) {
	opts, loadErr := b.BuildOptions()
	if loadErr != nil && !errors.Is(loadErr, ErrConfigNotFound) {
		return nil, loadErr
	}

	if !b.cacheSet {
		cache, err := NewCache(opts.CacheSize)
		if err != nil {
			return nil, err
		}
		b.cache, b.cacheSet = cache, true
	}

	engine, err := New(opts, b.cache, b.logger)
	if err != nil {
		return nil, err
	}
	return engine, loadErr
}

// MustBuild is like Build but panics on fatal errors
func (b *Builder) MustBuild() *Engine {
	engine, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("bridge build failed: %v", err))
	}
	return engine
}

// Settings returns the layered settings store used by the builder.
func (b *Builder) Settings() *Settings {
	return b.settings
}
