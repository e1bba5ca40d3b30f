// FILE: lixenwraith/bridge/convenience.go
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
)

// Quick builds an engine from defaults, an optional settings file, the
// environment under envPrefix and args, with CLI > env > file > default
// precedence. A missing file is not an error.
func Quick(configFile, envPrefix string, args []string, logger *slog.Logger) (*Engine, error) {
	engine, err := NewBuilder().
		WithFile(configFile).
		WithEnvPrefix(envPrefix).
		WithArgs(args).
		WithLogger(logger).
		Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}
	return engine, nil
}

// MustQuick is like Quick but panics on error
func MustQuick(configFile, envPrefix string, args []string) *Engine {
	engine, err := Quick(configFile, envPrefix, args, nil)
	if err != nil {
		panic(fmt.Sprintf("bridge initialization failed: %v", err))
	}
	return engine
}
