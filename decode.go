// FILE: lixenwraith/bridge/decode.go
package bridge

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeSettings decodes a nested settings map into target using `toml` tags
func decodeSettings(nested map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook:       settingsDecodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(nested); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return nil
}

// settingsDecodeHook converts the raw strings of env and CLI sources
func settingsDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToLocationHookFunc(),
	)
}

// Decode fills target, a pointer to a struct, map or slice, from v.
// Struct fields are matched by the `bridge` tag, falling back to field name.
func Decode(v Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "bridge",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			stringToLocationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(ToNative(v)); err != nil {
		return fmt.Errorf("failed to decode %s value: %w", v.Kind(), err)
	}
	return nil
}

// stringToLocationHookFunc handles *time.Location conversion
func stringToLocationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf((*time.Location)(nil)) {
			return data, nil
		}
		loc, err := loadLocation(data.(string))
		if err != nil {
			return nil, err
		}
		return loc, nil
	}
}

// loadLocation resolves a zone name; "" and "Local" select time.Local.
func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}
