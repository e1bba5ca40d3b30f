// FILE: lixenwraith/bridge/discovery.go
package bridge

import (
	"os"
	"path/filepath"
	"strings"
)

// FileOrigin says how the settings file was chosen.
type FileOrigin string

const (
	// FileExplicit is a path given to WithFile or through the CLI flag
	FileExplicit FileOrigin = "explicit"
	// FileFromEnv is a path read from the discovery environment variable
	FileFromEnv FileOrigin = "env"
	// FileSearched is the first existing search candidate
	FileSearched FileOrigin = "search"
)

// SettingsFile is the settings file a builder reads.
type SettingsFile struct {
	Path   string
	Origin FileOrigin
}

// FileDiscoveryOptions describes where the settings file may live.
type FileDiscoveryOptions struct {
	Name          string   // base name without extension
	Extensions    []string // tried in order for every directory
	Paths         []string // directories searched before the defaults
	EnvVar        string   // names an explicit path
	CLIFlag       string   // e.g. "--config"
	UseXDG        bool
	UseCurrentDir bool
}

// DefaultDiscoveryOptions searches for appName with every document
// extension the settings loader reads, honoring APPNAME_CONFIG and --config.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// Directories returns the search directories in the order they are tried.
func (o FileDiscoveryOptions) Directories() []string {
	dirs := append([]string(nil), o.Paths...)
	if o.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if o.UseXDG {
		dirs = append(dirs, xdgConfigDirs(o.Name)...)
	}
	return dirs
}

// Locate picks the settings file: the CLI flag in args wins over the
// environment variable, which wins over the first existing candidate in
// Directories. ok is false when nothing names or holds a file; that is not
// an error since defaults and the environment still apply.
func (o FileDiscoveryOptions) Locate(args []string) (file SettingsFile, ok bool) {
	if path := o.flagValue(args); path != "" {
		return SettingsFile{Path: path, Origin: FileExplicit}, true
	}
	if o.EnvVar != "" {
		if path := os.Getenv(o.EnvVar); path != "" {
			return SettingsFile{Path: path, Origin: FileFromEnv}, true
		}
	}
	for _, dir := range o.Directories() {
		for _, ext := range o.Extensions {
			path := filepath.Join(dir, o.Name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return SettingsFile{Path: path, Origin: FileSearched}, true
			}
		}
	}
	return SettingsFile{}, false
}

// flagValue reads "--flag path" or "--flag=path" from args.
func (o FileDiscoveryOptions) flagValue(args []string) string {
	if o.CLIFlag == "" {
		return ""
	}
	for i, arg := range args {
		if arg == o.CLIFlag && i+1 < len(args) {
			return args[i+1]
		}
		if v, found := strings.CutPrefix(arg, o.CLIFlag+"="); found {
			return v
		}
	}
	return ""
}

// WithFileDiscovery reads the file Locate picks from the builder's args.
// An explicit WithFile path is kept when discovery finds nothing.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	if file, ok := opts.Locate(b.args); ok {
		b.file = file
	}
	return b
}

// xdgConfigDirs returns $XDG_CONFIG_HOME/app (or ~/.config/app) followed by
// each $XDG_CONFIG_DIRS entry, defaulting to /etc/xdg/app.
func xdgConfigDirs(appName string) []string {
	var dirs []string
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, appName))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", appName))
	}

	system := filepath.SplitList(os.Getenv("XDG_CONFIG_DIRS"))
	if len(system) == 0 {
		system = []string{"/etc/xdg"}
	}
	for _, dir := range system {
		if dir != "" {
			dirs = append(dirs, filepath.Join(dir, appName))
		}
	}
	return dirs
}
