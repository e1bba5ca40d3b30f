// FILE: lixenwraith/bridge/walk.go
package bridge

import (
	"fmt"
	"log/slog"
	"strconv"
)

// DefaultMaxDepth is the container nesting ceiling for a conversion.
const DefaultMaxDepth = 512

// Walker rebuilds a value graph, converting leaves on the way.
// A Walker holds no per-call state and is safe for concurrent use.
type Walker struct {
	scalars  *ScalarConverter
	maxDepth int
	logger   *slog.Logger
}

// NewWalker creates a walker. maxDepth <= 0 selects DefaultMaxDepth.
func NewWalker(scalars *ScalarConverter, maxDepth int, logger *slog.Logger) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Walker{scalars: scalars, maxDepth: maxDepth, logger: logger}
}

// MaxDepth returns the nesting ceiling.
func (w *Walker) MaxDepth() int {
	return w.maxDepth
}

// Walk returns a new graph of the same shape as v with every leaf in cats
// converted in direction dir. The input is never modified.
func (w *Walker) Walk(v Value, dir Direction, cats CategorySet) (Value, error) {
	st := &walkState{w: w, dir: dir, cats: cats}
	out := st.walk(v, 0, "")
	if st.err != nil {
		w.logger.Warn("conversion aborted",
			"direction", dir.String(),
			"path", st.errPath,
			"error", st.err)
		return Null(), st.err
	}
	return out, nil
}

// walkState carries one traversal; the first structural error stops it.
type walkState struct {
	w       *Walker
	dir     Direction
	cats    CategorySet
	err     error
	errPath string
}

func (st *walkState) walk(v Value, depth int, at string) Value {
	if st.err != nil {
		return Null()
	}

	switch v.kind {
	case KindSequence:
		if depth >= st.w.maxDepth {
			st.fail(at, depth)
			return Null()
		}
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = st.walk(item, depth+1, at+"["+strconv.Itoa(i)+"]")
		}
		return Value{kind: KindSequence, items: items}

	case KindMapping:
		if depth >= st.w.maxDepth {
			st.fail(at, depth)
			return Null()
		}
		entries := make([]Entry, len(v.entries))
		for i, e := range v.entries {
			entries[i] = Entry{Key: e.Key, Value: st.walk(e.Value, depth+1, joinPath(at, e.Key))}
		}
		return Value{kind: KindMapping, entries: entries}

	default:
		out := st.w.scalars.absorb(v, st.dir, st.cats, at)
		if out.kind == KindBytes && v.kind == KindBytes {
			// passed through: detach from the input graph
			out.bytesVal = cloneBytes(v.bytesVal)
		}
		return out
	}
}

func (st *walkState) fail(at string, depth int) {
	st.err = fmt.Errorf("%w: depth %d at %q (max %d)", ErrDepthExceeded, depth+1, at, st.w.maxDepth)
	st.errPath = at
}

// joinPath appends a mapping key to a dotted path.
func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
