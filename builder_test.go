// FILE: lixenwraith/bridge/builder_test.go
package bridge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder tests engine construction from layered settings
func TestBuilder(t *testing.T) {
	t.Run("DefaultsOnly", func(t *testing.T) {
		e, err := NewBuilder().
			WithDefaults(testOptions()).
			WithEnvPrefix("BRIDGETEST_").
			Build()
		require.NoError(t, err)
		assert.Equal(t, time.UTC, e.Location())
		assert.Equal(t, DefaultMaxDepth, e.Options().MaxDepth)
		assert.NotNil(t, e.Cache())
	})

	t.Run("AllSources", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "bridge.toml", "time_zone = \"Europe/Paris\"\ninbound_types = \"dates\"\n[files]\nhome = \"/srv\"\n")
		t.Setenv("BRIDGETEST_CACHE_SIZE", "4")

		b := NewBuilder().
			WithDefaults(testOptions()).
			WithEnvPrefix("BRIDGETEST_").
			WithFile(path).
			WithArgs([]string{"--max_depth=32", "--outbound_types", "reals"})
		e, err := b.Build()
		require.NoError(t, err)

		opts := e.Options()
		assert.Equal(t, "Europe/Paris", e.Location().String())
		assert.Equal(t, 32, opts.MaxDepth)
		assert.Equal(t, 4, opts.CacheSize)
		assert.Equal(t, "/srv", e.Resolver().Home)

		resolved, err := e.Resolver().Resolve("~/x")
		require.NoError(t, err)
		assert.Equal(t, "/srv/x", resolved)

		// inbound files are off, so an alias passes through
		out, err := e.ConvertInbound(Alias("Macintosh HD:tmp:"), "")
		require.NoError(t, err)
		assert.Equal(t, KindAlias, out.Kind())

		origin, ok := b.Settings().Origin("cache_size")
		assert.True(t, ok)
		assert.Equal(t, SourceEnv, origin)
	})

	t.Run("Overrides", func(t *testing.T) {
		e, err := NewBuilder().
			WithDefaults(testOptions()).
			WithArgs([]string{"--max_depth=32", "--time_zone=Asia/Tokyo"}).
			WithMaxDepth(8).
			WithTimeZone("America/New_York").
			Build()
		require.NoError(t, err)
		assert.Equal(t, 8, e.Options().MaxDepth)
		assert.Equal(t, "America/New_York", e.Location().String())

		_, err = e.ConvertInbound(nest(Int(1), 9), "")
		assert.ErrorIs(t, err, ErrDepthExceeded)
	})

	t.Run("Validators", func(t *testing.T) {
		var called []string
		_, err := NewBuilder().
			WithDefaults(testOptions()).
			WithValidator(func(o *Options) error {
				called = append(called, "first")
				return nil
			}).
			WithValidator(nil).
			WithValidator(func(o *Options) error {
				called = append(called, "second")
				if o.MaxDepth > 100 {
					return errors.New("too deep")
				}
				return nil
			}).
			Build()
		assert.ErrorContains(t, err, "too deep")
		assert.Equal(t, []string{"first", "second"}, called)
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		_, err := NewBuilder().
			WithDefaults(testOptions()).
			WithArgs([]string{"--time_zone=Nowhere/City"}).
			Build()
		assert.Error(t, err)

		_, err = NewBuilder().
			WithDefaults(testOptions()).
			WithArgs([]string{"--log.format=xml"}).
			Build()
		assert.Error(t, err)

		assert.Panics(t, func() {
			NewBuilder().WithDefaults(testOptions()).WithMaxDepth(-1).MustBuild()
		})
	})

	t.Run("MissingFileNotFatal", func(t *testing.T) {
		e, err := NewBuilder().
			WithDefaults(testOptions()).
			WithFile(filepath.Join(t.TempDir(), "absent.toml")).
			Build()
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, e)
		assert.Equal(t, DefaultMaxDepth, e.Options().MaxDepth)
	})

	t.Run("CacheInjection", func(t *testing.T) {
		cache, err := NewCache(2)
		require.NoError(t, err)
		e, err := NewBuilder().WithDefaults(testOptions()).WithCache(cache).Build()
		require.NoError(t, err)
		assert.Same(t, cache, e.Cache())

		e, err = NewBuilder().WithDefaults(testOptions()).WithCache(nil).Build()
		require.NoError(t, err)
		assert.Nil(t, e.Cache())
		_, err = e.FindMatches(`a`, "aa", "")
		assert.NoError(t, err)
	})

	t.Run("Sources", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bridge.toml", "max_depth = 16\n")
		e, err := NewBuilder().
			WithDefaults(testOptions()).
			WithFile(path).
			WithArgs([]string{"--max_depth=32"}).
			WithSources(SourceFile, SourceCLI, SourceDefault).
			Build()
		require.NoError(t, err)
		assert.Equal(t, 16, e.Options().MaxDepth)
	})

	t.Run("EnvWhitelist", func(t *testing.T) {
		t.Setenv("BRIDGETEST_MAX_DEPTH", "9")
		t.Setenv("BRIDGETEST_CACHE_SIZE", "9")
		e, err := NewBuilder().
			WithDefaults(testOptions()).
			WithEnvPrefix("BRIDGETEST_").
			WithEnvWhitelist("cache_size").
			Build()
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxDepth, e.Options().MaxDepth)
		assert.Equal(t, 9, e.Options().CacheSize)
	})
}

// TestQuick tests the one-call constructors
func TestQuick(t *testing.T) {
	e, err := Quick(filepath.Join(t.TempDir(), "absent.toml"), "BRIDGETEST_", []string{"--time_zone=UTC"}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, e.Location())

	path := writeFile(t, t.TempDir(), "bad.toml", "max_depth = ")
	_, err = Quick(path, "BRIDGETEST_", nil, nil)
	assert.Error(t, err)
	assert.Panics(t, func() { MustQuick(path, "BRIDGETEST_", nil) })

	e = MustQuick("", "BRIDGETEST_", []string{"--cache_size=3"})
	assert.Equal(t, 3, e.Options().CacheSize)
}

// TestFileDiscovery tests settings file lookup
func TestFileDiscovery(t *testing.T) {
	dir := t.TempDir()
	located := writeFile(t, dir, "bridgetest.yaml", "max_depth: 12\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bridgetest.toml"), 0755))

	opts := DefaultDiscoveryOptions("bridgetest")
	opts.UseCurrentDir = false
	opts.UseXDG = false

	t.Run("SearchPaths", func(t *testing.T) {
		o := opts
		o.Paths = []string{filepath.Join(dir, "none"), dir}
		assert.Equal(t, []string{filepath.Join(dir, "none"), dir}, o.Directories())

		// the folder named like a settings file is skipped
		file, ok := o.Locate(nil)
		require.True(t, ok)
		assert.Equal(t, SettingsFile{Path: located, Origin: FileSearched}, file)

		b := NewBuilder().WithDefaults(testOptions()).WithFileDiscovery(o)
		assert.Equal(t, file, b.File())
		e, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, 12, e.Options().MaxDepth)
	})

	t.Run("ExplicitPaths", func(t *testing.T) {
		file, _ := opts.Locate([]string{"--config", "/x.toml"})
		assert.Equal(t, SettingsFile{Path: "/x.toml", Origin: FileExplicit}, file)
		file, _ = opts.Locate([]string{"--config=/y.toml"})
		assert.Equal(t, "/y.toml", file.Path)

		t.Setenv("BRIDGETEST_CONFIG", "/z.toml")
		file, _ = opts.Locate(nil)
		assert.Equal(t, SettingsFile{Path: "/z.toml", Origin: FileFromEnv}, file)
		file, _ = opts.Locate([]string{"--config", "/x.toml"})
		assert.Equal(t, FileExplicit, file.Origin)
	})

	t.Run("XDG", func(t *testing.T) {
		xdg := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(xdg, "bridgetest"), 0755))
		want := writeFile(t, filepath.Join(xdg, "bridgetest"), "bridgetest.toml", "")
		t.Setenv("XDG_CONFIG_HOME", xdg)
		t.Setenv("XDG_CONFIG_DIRS", "/opt/a"+string(filepath.ListSeparator)+"/opt/b")

		o := opts
		o.UseXDG = true
		assert.Equal(t, []string{
			filepath.Join(xdg, "bridgetest"),
			filepath.Join("/opt/a", "bridgetest"),
			filepath.Join("/opt/b", "bridgetest"),
		}, o.Directories())

		file, ok := o.Locate(nil)
		require.True(t, ok)
		assert.Equal(t, want, file.Path)
	})

	t.Run("NothingFound", func(t *testing.T) {
		_, ok := opts.Locate(nil)
		assert.False(t, ok)

		b := NewBuilder().WithFile("/kept.toml").WithFileDiscovery(opts)
		assert.Equal(t, SettingsFile{Path: "/kept.toml", Origin: FileExplicit}, b.File())
	})
}
