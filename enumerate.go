// FILE: lixenwraith/bridge/enumerate.go
package bridge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ItemKind selects which entries ItemsIn returns.
type ItemKind int

const (
	ItemsAll     ItemKind = iota
	ItemsFiles            // files and packages
	ItemsFolders          // folders that are not packages
)

// EnumerateOptions controls a directory listing.
type EnumerateOptions struct {
	Recursive          bool
	SkipHidden         bool
	SkipInsidePackages bool
	AsPaths            bool // Text paths instead of File values
	Kind               ItemKind
}

// packageExtensions are directory extensions listed as single items.
var packageExtensions = map[string]bool{
	".app": true, ".bundle": true, ".framework": true, ".plugin": true,
	".kext": true, ".pkg": true, ".mpkg": true, ".scptd": true,
	".rtfd": true, ".pages": true, ".numbers": true, ".key": true,
	".xcodeproj": true, ".photoslibrary": true, ".prefpane": true,
}

func isPackage(name string) bool {
	return packageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ItemsIn lists the entries of the folder at ref, which may be any
// reference the resolver accepts.
func (e *Engine) ItemsIn(ref string, opts EnumerateOptions) (Value, error) {
	root, err := e.resolver.Resolve(ref)
	if err != nil {
		return Null(), err
	}
	info, err := os.Stat(root)
	if err != nil {
		return Null(), fmt.Errorf("failed to stat '%s': %w", root, err)
	}
	if !info.IsDir() {
		return Null(), fmt.Errorf("'%s' is not a folder", root)
	}

	out := make([]Value, 0)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			e.logger.Debug("skipping unreadable entry", "path", p, "error", err)
			return nil
		}
		if p == root {
			return nil
		}

		name := d.Name()
		dir := d.IsDir()
		pkg := dir && isPackage(name)
		if opts.SkipHidden && strings.HasPrefix(name, ".") {
			if dir {
				return filepath.SkipDir
			}
			return nil
		}

		include := true
		switch opts.Kind {
		case ItemsFiles:
			include = !dir || pkg
		case ItemsFolders:
			include = dir && !pkg
		}
		if include {
			if opts.AsPaths {
				out = append(out, Text(p))
			} else {
				out = append(out, File(p))
			}
		}

		if dir && (!opts.Recursive || (pkg && opts.SkipInsidePackages)) {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return Null(), fmt.Errorf("failed to enumerate '%s': %w", root, err)
	}
	return sequenceOf(out), nil
}
