// FILE: lixenwraith/bridge/enumerate_test.go
package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTree creates files under root, making parent folders as needed
func makeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0644))
	}
}

// TestItemsIn tests folder enumeration
func TestItemsIn(t *testing.T) {
	e := newTestEngine(t, "UTC")
	root := t.TempDir()
	makeTree(t, root,
		".hidden",
		"B.app/Contents/x",
		"a.txt",
		"sub/c.txt",
		"sub/.secret/d.txt",
	)

	files := func(names ...string) Value {
		items := make([]Value, len(names))
		for i, n := range names {
			items[i] = File(filepath.Join(root, filepath.FromSlash(n)))
		}
		return Sequence(items...)
	}

	tests := []struct {
		name string
		opts EnumerateOptions
		want Value
	}{
		{
			name: "TopLevel",
			opts: EnumerateOptions{},
			want: files(".hidden", "B.app", "a.txt", "sub"),
		},
		{
			name: "VisibleFiles",
			opts: EnumerateOptions{SkipHidden: true, Kind: ItemsFiles},
			want: files("B.app", "a.txt"),
		},
		{
			name: "Folders",
			opts: EnumerateOptions{Kind: ItemsFolders},
			want: files("sub"),
		},
		{
			name: "RecursiveSkippingPackages",
			opts: EnumerateOptions{Recursive: true, SkipHidden: true, SkipInsidePackages: true},
			want: files("B.app", "a.txt", "sub", "sub/c.txt"),
		},
		{
			name: "RecursiveFiles",
			opts: EnumerateOptions{Recursive: true, Kind: ItemsFiles},
			want: files(".hidden", "B.app", "B.app/Contents/x", "a.txt", "sub/.secret/d.txt", "sub/c.txt"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ItemsIn(root, tt.opts)
			require.NoError(t, err)
			assertValue(t, tt.want, got)
		})
	}

	t.Run("AsPaths", func(t *testing.T) {
		got, err := e.ItemsIn(root, EnumerateOptions{Kind: ItemsFolders, AsPaths: true})
		require.NoError(t, err)
		assertValue(t, Sequence(Text(filepath.Join(root, "sub"))), got)
	})

	t.Run("FileURL", func(t *testing.T) {
		got, err := e.ItemsIn("file://"+filepath.ToSlash(filepath.Join(root, "sub")), EnumerateOptions{SkipHidden: true})
		require.NoError(t, err)
		assertValue(t, files("sub/c.txt"), got)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := e.ItemsIn(filepath.Join(root, "missing"), EnumerateOptions{})
		assert.Error(t, err)

		_, err = e.ItemsIn(filepath.Join(root, "a.txt"), EnumerateOptions{})
		assert.Error(t, err)
	})
}
