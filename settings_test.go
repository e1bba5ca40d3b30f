// FILE: lixenwraith/bridge/settings_test.go
package bridge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOptions returns fixed defaults that do not depend on the process environment
func testOptions() Options {
	opts := DefaultOptions()
	opts.TimeZone = "UTC"
	opts.Files = FileOptions{Home: "/home/me", WorkDir: "/work", RootVolume: DefaultRootVolume}
	return opts
}

// writeFile writes content to name inside dir and returns its path
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestSettingsRegister tests path registration
func TestSettingsRegister(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		s := NewSettings()
		require.NoError(t, s.Register("server.port", 8080))
		assert.Error(t, s.Register("", 1))
		assert.Error(t, s.Register("bad key.x", 1))
		assert.Error(t, s.Register("a..b", 1))

		v, ok := s.Get("server.port")
		assert.True(t, ok)
		assert.Equal(t, 8080, v)

		origin, ok := s.Origin("server.port")
		assert.True(t, ok)
		assert.Equal(t, SourceDefault, origin)

		_, ok = s.Get("server.host")
		assert.False(t, ok)
	})

	t.Run("RegisterStruct", func(t *testing.T) {
		s := NewSettings()
		require.NoError(t, s.RegisterStruct("", testOptions()))
		assert.Equal(t, []string{
			"cache_size",
			"files.home",
			"files.root_volume",
			"files.work_dir",
			"inbound_types",
			"log.format",
			"log.level",
			"match_timeout",
			"max_depth",
			"outbound_types",
			"time_zone",
		}, s.Paths())

		prefixed := NewSettings()
		require.NoError(t, prefixed.RegisterStruct("bridge.", FileOptions{Home: "/h"}))
		home, ok := prefixed.Get("bridge.home")
		assert.True(t, ok)
		assert.Equal(t, "/h", home)

		assert.Error(t, s.RegisterStruct("", 42))
		assert.Error(t, s.RegisterStruct("", (*Options)(nil)))
	})

	t.Run("SetAndScan", func(t *testing.T) {
		s := NewSettings()
		require.NoError(t, s.RegisterStruct("", testOptions()))
		require.NoError(t, s.Set("max_depth", SourceCLI, "64"))
		require.NoError(t, s.Set("match_timeout", SourceEnv, "250ms"))
		assert.Error(t, s.Set("unknown", SourceCLI, 1))

		var opts Options
		require.NoError(t, s.Scan(&opts))
		assert.Equal(t, 64, opts.MaxDepth)
		assert.Equal(t, 250*time.Millisecond, opts.MatchTimeout)
		assert.Equal(t, "/home/me", opts.Files.Home)

		assert.Error(t, s.Scan(opts))
	})
}

// TestSettingsLoad tests layering of file, env and command-line sources
func TestSettingsLoad(t *testing.T) {
	dir := t.TempDir()
	newSettings := func(t *testing.T) *Settings {
		t.Helper()
		s := NewSettings()
		require.NoError(t, s.RegisterStruct("", testOptions()))
		return s
	}
	loadOpts := func() LoadOptions {
		opts := DefaultLoadOptions()
		opts.EnvPrefix = "BRIDGETEST_"
		return opts
	}

	t.Run("FileFormats", func(t *testing.T) {
		files := map[string]string{
			"conf.toml": "max_depth = 64\n[files]\nhome = \"/h\"\n",
			"conf.json": `{"max_depth": 64, "files": {"home": "/h"}}`,
			"conf.yaml": "max_depth: 64\nfiles:\n  home: /h\n",
			"conf.cfg":  "max_depth = 64\n[files]\nhome = \"/h\"\n",
		}
		for name, content := range files {
			t.Run(name, func(t *testing.T) {
				s := newSettings(t)
				path := writeFile(t, dir, name, content)
				require.NoError(t, s.Load(path, nil, loadOpts()))
				assert.Equal(t, path, s.FilePath())

				depth, err := s.Int64("max_depth")
				require.NoError(t, err)
				assert.Equal(t, int64(64), depth)

				home, err := s.String("files.home")
				require.NoError(t, err)
				assert.Equal(t, "/h", home)

				origin, _ := s.Origin("files.home")
				assert.Equal(t, SourceFile, origin)
				origin, _ = s.Origin("files.work_dir")
				assert.Equal(t, SourceDefault, origin)
			})
		}
	})

	t.Run("Precedence", func(t *testing.T) {
		path := writeFile(t, dir, "prec.toml", "max_depth = 10\ncache_size = 10\ntime_zone = \"Asia/Tokyo\"\n")
		t.Setenv("BRIDGETEST_MAX_DEPTH", "20")
		t.Setenv("BRIDGETEST_CACHE_SIZE", "20")

		s := newSettings(t)
		require.NoError(t, s.Load(path, []string{"--max_depth=30", "--log.level", "debug"}, loadOpts()))

		var opts Options
		require.NoError(t, s.Scan(&opts))
		assert.Equal(t, 30, opts.MaxDepth)
		assert.Equal(t, 20, opts.CacheSize)
		assert.Equal(t, "Asia/Tokyo", opts.TimeZone)
		assert.Equal(t, "debug", opts.Log.Level)

		for path, want := range map[string]Source{
			"max_depth":  SourceCLI,
			"cache_size": SourceEnv,
			"time_zone":  SourceFile,
			"log.format": SourceDefault,
		} {
			origin, _ := s.Origin(path)
			assert.Equal(t, want, origin, path)
		}

		reversed := loadOpts()
		reversed.Sources = []Source{SourceFile, SourceEnv, SourceCLI, SourceDefault}
		s = newSettings(t)
		require.NoError(t, s.Load(path, []string{"--max_depth=30"}, reversed))
		depth, err := s.Int64("max_depth")
		require.NoError(t, err)
		assert.Equal(t, int64(10), depth)
	})

	t.Run("EnvWhitelistAndTransform", func(t *testing.T) {
		t.Setenv("CUSTOM_time_zone", "Europe/Paris")
		t.Setenv("CUSTOM_max_depth", "7")

		opts := loadOpts()
		opts.EnvTransform = func(path string) string { return "CUSTOM_" + path }
		opts.EnvWhitelist = map[string]bool{"time_zone": true}

		s := newSettings(t)
		require.NoError(t, s.Load("", nil, opts))
		zone, err := s.String("time_zone")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Paris", zone)
		depth, err := s.Int64("max_depth")
		require.NoError(t, err)
		assert.Equal(t, int64(DefaultMaxDepth), depth)
	})

	t.Run("MissingFile", func(t *testing.T) {
		s := newSettings(t)
		err := s.Load(filepath.Join(dir, "absent.toml"), []string{"--max_depth=5"}, loadOpts())
		assert.ErrorIs(t, err, ErrConfigNotFound)
		depth, err := s.Int64("max_depth")
		require.NoError(t, err)
		assert.Equal(t, int64(5), depth)
	})

	t.Run("InvalidFile", func(t *testing.T) {
		s := newSettings(t)
		path := writeFile(t, dir, "broken.conf", "[[[")
		err := s.Load(path, nil, loadOpts())
		assert.ErrorIs(t, err, ErrFileFormat)

		path = writeFile(t, dir, "broken.toml", "max_depth = ")
		assert.Error(t, s.Load(path, nil, loadOpts()))

		opts := loadOpts()
		opts.MaxFileSize = 4
		path = writeFile(t, dir, "large.toml", "max_depth = 64\n")
		assert.Error(t, s.Load(path, nil, opts))
	})

	t.Run("InvalidArgs", func(t *testing.T) {
		s := newSettings(t)
		err := s.Load("", []string{"--bad key=1"}, loadOpts())
		assert.ErrorIs(t, err, ErrCLIParse)
	})
}

// TestSettingsTypedAccess tests the typed getters
func TestSettingsTypedAccess(t *testing.T) {
	s := NewSettings()
	require.NoError(t, s.Register("n", 3))
	require.NoError(t, s.Register("f", 0.5))
	require.NoError(t, s.Register("b", "yes"))
	require.NoError(t, s.Register("d", 2*time.Second))
	require.NoError(t, s.Register("text", "hello"))

	n, err := s.Int64("n")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	f, err := s.Float64("n")
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	f, err = s.Float64("f")
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	b, err := s.Bool("b")
	require.NoError(t, err)
	assert.True(t, b)

	d, err := s.String("d")
	require.NoError(t, err)
	assert.Equal(t, "2s", d)

	_, err = s.Int64("text")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = s.Bool("text")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = s.String("missing")
	assert.Error(t, err)
}

// TestSettingsSave tests TOML output and reloading it
func TestSettingsSave(t *testing.T) {
	s := NewSettings()
	require.NoError(t, s.RegisterStruct("", testOptions()))
	require.NoError(t, s.Set("max_depth", SourceCLI, 64))
	require.NoError(t, s.Set("match_timeout", SourceCLI, 3*time.Second))

	var buf bytes.Buffer
	require.NoError(t, s.WriteTOML(&buf))
	assert.Contains(t, buf.String(), "max_depth = 64")
	assert.Contains(t, buf.String(), "[files]")
	assert.Contains(t, buf.String(), `match_timeout = "3s"`)

	path := filepath.Join(t.TempDir(), "nested", "saved.toml")
	require.NoError(t, s.Save(path))

	reloaded := NewSettings()
	require.NoError(t, reloaded.RegisterStruct("", testOptions()))
	require.NoError(t, reloaded.Load(path, nil, DefaultLoadOptions()))

	var opts Options
	require.NoError(t, reloaded.Scan(&opts))
	assert.Equal(t, 64, opts.MaxDepth)
	assert.Equal(t, 3*time.Second, opts.MatchTimeout)
	assert.Equal(t, "/work", opts.Files.WorkDir)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}
