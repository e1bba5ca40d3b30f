// FILE: lixenwraith/bridge/settings.go
package bridge

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// settingItem holds the default, per-source and effective value of one path
type settingItem struct {
	defaultValue any
	currentValue any
	origin       Source
	values       map[Source]any
}

// Settings is a thread-safe store of dot-separated configuration paths,
// each layered from default, file, environment and command-line values.
type Settings struct {
	items    map[string]settingItem
	options  LoadOptions
	filePath string
	mutex    sync.RWMutex
}

// NewSettings creates an empty store with default load options.
func NewSettings() *Settings {
	return &Settings{
		items:   make(map[string]settingItem),
		options: DefaultLoadOptions(),
	}
}

// Register makes a path known with its default value.
// Each segment of the path must be a valid TOML bare key.
func (s *Settings) Register(path string, defaultValue any) error {
	if path == "" {
		return fmt.Errorf("registration path cannot be empty")
	}
	for _, segment := range strings.Split(path, ".") {
		if !isValidKeySegment(segment) {
			return fmt.Errorf("invalid path segment %q in path %q", segment, path)
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items[path] = settingItem{
		defaultValue: defaultValue,
		currentValue: defaultValue,
		origin:       SourceDefault,
	}
	return nil
}

// RegisterStruct registers every leaf field of a struct, using `toml` tags
// for path segments and the field values as defaults.
func (s *Settings) RegisterStruct(prefix string, defaults any) error {
	v := reflect.ValueOf(defaults)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("RegisterStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("RegisterStruct requires a struct or struct pointer, got %T", defaults)
	}

	var errs []string
	s.registerFields(v, prefix, &errs)
	if len(errs) > 0 {
		return fmt.Errorf("failed to register %d field(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// registerFields walks struct fields, recursing into nested structs
func (s *Settings) registerFields(v reflect.Value, prefix string, errs *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("toml")
		if tag == "-" {
			continue
		}
		key := field.Name
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			key = name
		}

		path := key
		if prefix != "" {
			path = strings.TrimSuffix(prefix, ".") + "." + key
		}

		fv := v.Field(i)
		if fv.Kind() == reflect.Struct && !isLeafStruct(fv.Type()) {
			s.registerFields(fv, path, errs)
			continue
		}

		if err := s.Register(path, fv.Interface()); err != nil {
			*errs = append(*errs, fmt.Sprintf("field %s (path %s): %v", field.Name, path, err))
		}
	}
}

// isLeafStruct reports struct types stored as single values, such as time.Time.
func isLeafStruct(t reflect.Type) bool {
	return t.PkgPath() == "time"
}

// Get returns the effective value of a path.
func (s *Settings) Get(path string) (any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.items[path]
	if !ok {
		return nil, false
	}
	return item.currentValue, true
}

// Origin returns the source that supplied the effective value of a path.
func (s *Settings) Origin(path string) (Source, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.items[path]
	if !ok {
		return "", false
	}
	return item.origin, true
}

// Set overrides a path at the given source and recomputes its value.
func (s *Settings) Set(path string, source Source, value any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, ok := s.items[path]
	if !ok {
		return fmt.Errorf("path not registered: %s", path)
	}
	if item.values == nil {
		item.values = make(map[Source]any)
	}
	item.values[source] = value
	s.items[path] = s.recompute(item)
	return nil
}

// Paths returns all registered paths in sorted order.
func (s *Settings) Paths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	paths := make([]string, 0, len(s.items))
	for p := range s.items {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FilePath returns the configuration file last loaded, if any.
func (s *Settings) FilePath() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.filePath
}

// Scan decodes the effective values into target, a pointer to a struct with `toml` tags.
func (s *Settings) Scan(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("target of Scan must be a non-nil pointer, got %T", target)
	}

	s.mutex.RLock()
	nested := make(map[string]any)
	for path, item := range s.items {
		setNestedValue(nested, path, item.currentValue)
	}
	s.mutex.RUnlock()

	return decodeSettings(nested, target)
}

// recompute selects the effective value by source precedence.
// Caller holds the write lock.
func (s *Settings) recompute(item settingItem) settingItem {
	for _, source := range s.options.Sources {
		if source == SourceDefault {
			break
		}
		if val, ok := item.values[source]; ok {
			item.currentValue = val
			item.origin = source
			return item
		}
	}
	item.currentValue = item.defaultValue
	item.origin = SourceDefault
	return item
}
