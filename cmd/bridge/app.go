// FILE: lixenwraith/bridge/cmd/bridge/app.go
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lixenwraith/bridge"
	"github.com/lixenwraith/bridge/logging"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	ConfigPath string
	LogLevel   string
	Format     string
	Sets       []string
}

// settingsArgs turns "--set key=value" pairs into builder arguments.
func (g globalFlags) settingsArgs() []string {
	args := make([]string, 0, len(g.Sets))
	for _, kv := range g.Sets {
		args = append(args, "--"+strings.TrimPrefix(kv, "--"))
	}
	return args
}

func newBuilder(g globalFlags) *bridge.Builder {
	b := bridge.NewBuilder().
		WithEnvPrefix(bridge.DefaultEnvPrefix).
		WithArgs(g.settingsArgs())
	if g.ConfigPath != "" {
		return b.WithFile(g.ConfigPath)
	}
	return b.WithFileDiscovery(bridge.DefaultDiscoveryOptions("bridge"))
}

func loadOptions(b *bridge.Builder) (bridge.Options, error) {
	opts, err := b.BuildOptions()
	if err != nil && !errors.Is(err, bridge.ErrConfigNotFound) {
		return bridge.Options{}, err
	}
	return opts, nil
}

func newLogger(g globalFlags, opts bridge.Options) *slog.Logger {
	level := opts.Log.Level
	if g.LogLevel != "" {
		level = g.LogLevel
	}
	return logging.NewLogger(logging.LoggerConfig{Level: level, Format: opts.Log.Format}, os.Stderr)
}

func newCache(opts bridge.Options) (*bridge.Cache, error) {
	return bridge.NewCache(opts.CacheSize)
}

// fxLogger reports container events at debug so normal runs stay quiet
func fxLogger(logger *slog.Logger) fxevent.Logger {
	l := &fxevent.SlogLogger{Logger: logger}
	l.UseLogLevel(slog.LevelDebug)
	return l
}

// components is the object graph a command runs against.
type components struct {
	Engine   *bridge.Engine
	Settings *bridge.Settings
	File     bridge.SettingsFile
	Logger   *slog.Logger
}

// assemble wires the builder, options, logger, cache and engine.
func assemble(g globalFlags) (components, error) {
	var c components
	app := fx.New(
		fx.WithLogger(fxLogger),
		fx.Supply(g),
		fx.Provide(
			newBuilder,
			loadOptions,
			newLogger,
			newCache,
			bridge.New,
			func(b *bridge.Builder) *bridge.Settings { return b.Settings() },
			func(b *bridge.Builder) bridge.SettingsFile { return b.File() },
		),
		fx.Populate(&c.Engine, &c.Settings, &c.File, &c.Logger),
	)
	if err := app.Err(); err != nil {
		return components{}, fmt.Errorf("failed to assemble engine: %w", err)
	}
	return c, nil
}
