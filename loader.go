// FILE: lixenwraith/bridge/loader.go
package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Source represents a configuration source, used to define load precedence
type Source string

const (
	// SourceDefault represents registered default values
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a configuration file
	SourceFile Source = "file"
	// SourceEnv represents values loaded from environment variables
	SourceEnv Source = "env"
	// SourceCLI represents values loaded from command-line arguments
	SourceCLI Source = "cli"
)

// EnvTransformFunc converts a configuration path to an environment variable name
type EnvTransformFunc func(path string) string

// LoadOptions configures how settings are loaded from multiple sources
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority)
	// Default: [SourceCLI, SourceEnv, SourceFile, SourceDefault]
	Sources []Source

	// EnvPrefix is prepended to environment variable names
	// Example: "BRIDGE_" transforms "files.home" to "BRIDGE_FILES_HOME"
	EnvPrefix string

	// EnvTransform customizes how paths map to environment variables
	EnvTransform EnvTransformFunc

	// EnvWhitelist limits which paths are checked for env vars (nil = all)
	EnvWhitelist map[string]bool

	// FileFormat forces "toml", "json" or "yaml"; empty or "auto" detects
	FileFormat string

	// MaxFileSize caps the configuration file size (0 = MaxConfigFileSize)
	MaxFileSize int64
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources:   []Source{SourceCLI, SourceEnv, SourceFile, SourceDefault},
		EnvPrefix: DefaultEnvPrefix,
	}
}

// Load layers file, environment and command-line values over the registered
// defaults. A missing file yields ErrConfigNotFound, joined with any
// non-fatal env or CLI errors; other file errors are fatal.
func (s *Settings) Load(filePath string, args []string, opts LoadOptions) error {
	s.mutex.Lock()
	s.options = opts
	s.mutex.Unlock()

	var loadErrors []error

	// Lowest precedence first so later sources are layered on top
	for i := len(opts.Sources) - 1; i >= 0; i-- {
		switch opts.Sources[i] {
		case SourceDefault:
			continue

		case SourceFile:
			if filePath == "" {
				continue
			}
			if err := s.loadFile(filePath, opts); err != nil {
				if !errors.Is(err, ErrConfigNotFound) {
					return err
				}
				loadErrors = append(loadErrors, err)
			}

		case SourceEnv:
			if err := s.loadEnv(opts); err != nil {
				loadErrors = append(loadErrors, err)
			}

		case SourceCLI:
			if len(args) > 0 {
				if err := s.loadCLI(args); err != nil {
					loadErrors = append(loadErrors, err)
				}
			}
		}
	}

	return errors.Join(loadErrors...)
}

// loadFile reads, parses and applies a configuration file
func (s *Settings) loadFile(path string, opts LoadOptions) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrFileAccess, path)
		}
		return fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}

	limit := opts.MaxFileSize
	if limit <= 0 {
		limit = MaxConfigFileSize
	}
	if info.Size() > limit {
		return fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, limit)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	format := opts.FileFormat
	if format == "" || format == "auto" {
		format = detectFileFormat(path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
	}

	fileConfig, err := parseSettingsData(data, format)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	flat := flattenMap(fileConfig, "")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.filePath = path
	for p, item := range s.items {
		if value, ok := flat[p]; ok {
			if item.values == nil {
				item.values = make(map[Source]any)
			}
			item.values[SourceFile] = value
		} else {
			delete(item.values, SourceFile)
		}
		s.items[p] = s.recompute(item)
	}
	return nil
}

// parseSettingsData decodes a configuration document into a nested map
func parseSettingsData(data []byte, format string) (map[string]any, error) {
	out := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&out); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFileFormat, format)
	}
	return out, nil
}

// loadEnv applies environment variables for registered paths
func (s *Settings) loadEnv(opts LoadOptions) error {
	transform := opts.EnvTransform
	if transform == nil {
		transform = defaultEnvTransform(opts.EnvPrefix)
	}

	found := make(map[string]string)
	for _, path := range s.Paths() {
		if opts.EnvWhitelist != nil && !opts.EnvWhitelist[path] {
			continue
		}
		if value, ok := os.LookupEnv(transform(path)); ok {
			if len(value) > MaxValueSize {
				return fmt.Errorf("%w: %s", ErrValueSize, transform(path))
			}
			found[path] = value
		}
	}
	if len(found) == 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for path, value := range found {
		item := s.items[path]
		if item.values == nil {
			item.values = make(map[Source]any)
		}
		// Raw strings; decode hooks convert to field types
		item.values[SourceEnv] = value
		s.items[path] = s.recompute(item)
	}
	return nil
}

// loadCLI applies --key=value style arguments for registered paths
func (s *Settings) loadCLI(args []string) error {
	parsed, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCLIParse, err)
	}
	flat := flattenMap(parsed, "")
	if len(flat) == 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for path, value := range flat {
		item, ok := s.items[path]
		if !ok {
			continue
		}
		if item.values == nil {
			item.values = make(map[Source]any)
		}
		item.values[SourceCLI] = value
		s.items[path] = s.recompute(item)
	}
	return nil
}

// defaultEnvTransform maps "files.work_dir" to PREFIX + "FILES_WORK_DIR"
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
		return prefix + env
	}
}

// WriteTOML writes the effective settings as a TOML document.
func (s *Settings) WriteTOML(w io.Writer) error {
	s.mutex.RLock()
	nested := make(map[string]any)
	for path, item := range s.items {
		setNestedValue(nested, path, tomlValue(item.currentValue))
	}
	s.mutex.RUnlock()

	if err := toml.NewEncoder(w).Encode(nested); err != nil {
		return fmt.Errorf("failed to marshal settings to TOML: %w", err)
	}
	return nil
}

// tomlValue renders values TOML cannot encode natively as strings
func tomlValue(v any) any {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}

// Save writes the effective settings to a TOML file atomically.
func (s *Settings) Save(path string) error {
	var buf bytes.Buffer
	if err := s.WriteTOML(&buf); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile writes through a temporary file and rename
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	var probe any
	if err := json.Unmarshal(data, &probe); err == nil {
		return "json"
	}
	// TOML before YAML: most TOML documents are also loose YAML scalars
	var tomlProbe map[string]any
	if err := toml.Unmarshal(data, &tomlProbe); err == nil {
		return "toml"
	}
	var yamlProbe map[string]any
	if err := yaml.Unmarshal(data, &yamlProbe); err == nil {
		return "yaml"
	}
	return ""
}
