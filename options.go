// FILE: lixenwraith/bridge/options.go
package bridge

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Options holds engine settings. Field tags name the configuration paths.
type Options struct {
	MaxDepth      int           `toml:"max_depth"`
	CacheSize     int           `toml:"cache_size"`
	TimeZone      string        `toml:"time_zone"`
	InboundTypes  string        `toml:"inbound_types"`
	OutboundTypes string        `toml:"outbound_types"`
	MatchTimeout  time.Duration `toml:"match_timeout"`
	Files         FileOptions   `toml:"files"`
	Log           LogOptions    `toml:"log"`
}

// FileOptions configures location resolution.
type FileOptions struct {
	Home       string `toml:"home"`
	WorkDir    string `toml:"work_dir"`
	RootVolume string `toml:"root_volume"`
}

// LogOptions configures the logger built by the CLI.
type LogOptions struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultOptions returns the built-in defaults. Home and working directory
// come from the process environment when available.
func DefaultOptions() Options {
	home, _ := os.UserHomeDir()
	wd, _ := os.Getwd()
	return Options{
		MaxDepth:      DefaultMaxDepth,
		CacheSize:     DefaultCacheSize,
		TimeZone:      "Local",
		InboundTypes:  DefaultInbound.String(),
		OutboundTypes: DefaultOutbound.String(),
		Files: FileOptions{
			Home:       home,
			WorkDir:    wd,
			RootVolume: DefaultRootVolume,
		},
		Log: LogOptions{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks ranges and that the time zone resolves.
func (o Options) Validate() error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", o.MaxDepth)
	}
	if o.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", o.CacheSize)
	}
	if o.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must not be negative, got %s", o.MatchTimeout)
	}
	if _, err := loadLocation(o.TimeZone); err != nil {
		return err
	}
	if f := strings.ToLower(o.Log.Format); f != "" && f != "json" && f != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", o.Log.Format)
	}
	return nil
}

// Categories returns the configured set for a direction.
func (o Options) Categories(dir Direction) CategorySet {
	if dir == Outbound {
		return ParseCategories(o.OutboundTypes, Outbound)
	}
	return ParseCategories(o.InboundTypes, Inbound)
}

// Resolver returns the location resolver described by the file options.
func (o Options) Resolver() Resolver {
	return Resolver{
		Home:       o.Files.Home,
		WorkDir:    o.Files.WorkDir,
		RootVolume: o.Files.RootVolume,
	}
}
