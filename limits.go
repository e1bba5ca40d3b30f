// FILE: lixenwraith/bridge/limits.go
package bridge

import "time"

// Size limits applied to untrusted input.
const (
	MaxValueSize      = 1 << 20  // single env or CLI value
	MaxConfigFileSize = 10 << 20 // configuration file
	MaxDocumentSize   = 64 << 20 // document read by LoadDocument
)

// DefaultEnvPrefix is prepended to environment variable names.
const DefaultEnvPrefix = "BRIDGE_"

// Timing of live reloads.
const (
	MinPollInterval      = 100 * time.Millisecond // floor for file stat polling
	DefaultDebounce      = 500 * time.Millisecond // file change coalescence period
	DefaultPollInterval  = time.Second
	DefaultReloadTimeout = 5 * time.Second
	DefaultMaxWatchers   = 100
)
