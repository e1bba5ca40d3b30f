// FILE: lixenwraith/bridge/location.go
package bridge

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DefaultRootVolume is the HFS name of the startup volume.
const DefaultRootVolume = "Macintosh HD"

// Resolver turns symbolic location references into canonical absolute paths.
// It performs no file system access.
type Resolver struct {
	Home       string // expansion of "~"
	WorkDir    string // base of relative paths
	RootVolume string // HFS volume mounted at "/"
}

// Resolve returns the canonical absolute POSIX path of ref.
// Accepted forms are file:// URLs, "~" paths, HFS colon paths, and absolute
// or relative POSIX paths.
func (r Resolver) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrLocationUnresolvable)
	}

	switch {
	case strings.HasPrefix(ref, "file:"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrLocationUnresolvable, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: remote host %q", ErrLocationUnresolvable, u.Host)
		}
		if !strings.HasPrefix(u.Path, "/") {
			return "", fmt.Errorf("%w: relative file URL %q", ErrLocationUnresolvable, ref)
		}
		return path.Clean(u.Path), nil

	case ref == "~" || strings.HasPrefix(ref, "~/"):
		if r.Home == "" {
			return "", fmt.Errorf("%w: no home directory for %q", ErrLocationUnresolvable, ref)
		}
		return path.Clean(path.Join(r.Home, ref[1:])), nil

	case strings.HasPrefix(ref, "/"):
		return path.Clean(ref), nil

	case isHFSPath(ref):
		return r.fromHFS(ref), nil

	default:
		if r.WorkDir == "" {
			return "", fmt.Errorf("%w: no working directory for %q", ErrLocationUnresolvable, ref)
		}
		return path.Clean(path.Join(r.WorkDir, ref)), nil
	}
}

// isHFSPath reports whether ref is a colon-separated volume path.
// "Volume:" and "Volume:dir:file" qualify; a leading colon or no colon does not.
func isHFSPath(ref string) bool {
	i := strings.IndexByte(ref, ':')
	return i > 0
}

// fromHFS converts "Volume:dir:file" to a POSIX path.
func (r Resolver) fromHFS(ref string) string {
	parts := strings.Split(ref, ":")
	volume := parts[0]

	root := "/"
	if volume != r.rootVolume() {
		root = path.Join("/Volumes", volume)
	}

	elems := []string{root}
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		// "/" inside an HFS name is ":" on disk
		elems = append(elems, strings.ReplaceAll(p, "/", ":"))
	}
	return path.Clean(path.Join(elems...))
}

func (r Resolver) rootVolume() string {
	if r.RootVolume == "" {
		return DefaultRootVolume
	}
	return r.RootVolume
}

// URLFrom returns the file:// URL of a canonical path.
func URLFrom(p string) string {
	u := url.URL{Scheme: "file", Path: path.Clean(p)}
	return u.String()
}

// HFSPathFrom returns the HFS colon path of a canonical path.
// trailingColon appends ":" to mark a folder.
func (r Resolver) HFSPathFrom(p string, trailingColon bool) string {
	p = path.Clean(p)
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")

	volume := r.rootVolume()
	if len(parts) >= 2 && parts[0] == "Volumes" {
		volume = parts[1]
		parts = parts[2:]
	} else if p == "/" {
		parts = nil
	}

	elems := []string{volume}
	for _, part := range parts {
		elems = append(elems, strings.ReplaceAll(part, ":", "/"))
	}
	out := strings.Join(elems, ":")
	if len(parts) == 0 || trailingColon {
		out += ":"
	}
	return out
}
