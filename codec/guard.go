package codec

import (
	"github.com/wirebeam/graphcodec/errors"
)

// guardEntry is one in-progress descent: the identity of the value being
// encoded (zero when the value cannot cycle) and the attribute name that led
// into it.
type guardEntry struct {
	attr string
	id   identity
}

// recursionGuard is the depth-scoped stack of in-progress descents. It is
// exclusively owned by one session's call chain: one entry per live frame,
// so its size equals the current recursion depth at any instant. The stack
// doubles as the attribute path for error reports.
type recursionGuard struct {
	stack []guardEntry
	limit int
}

// enter pushes a frame for a descent into value identity id via attribute
// attr. It reports cycle=true, without pushing, when the same identity is
// already on the stack at a shallower depth; the caller must then encode
// null and must not call exit. A depth past the limit is a fatal error.
func (g *recursionGuard) enter(attr string, id identity) (cycle bool, err error) {
	// Cycle scan first: a back edge found exactly at the depth limit is
	// still a severed edge, not a depth failure.
	if id != (identity{}) {
		for i := range g.stack {
			if g.stack[i].id == id {
				return true, nil
			}
		}
	}
	if len(g.stack) >= g.limit {
		return false, errors.DepthExceeded(g.path(attr), len(g.stack)+1, g.limit)
	}
	g.stack = append(g.stack, guardEntry{attr: attr, id: id})
	return false, nil
}

// exit pops the current frame. Must be called exactly once per successful
// enter, on every return path.
func (g *recursionGuard) exit() {
	g.stack = g.stack[:len(g.stack)-1]
}

// wouldCycle reports whether descending into id right now would be cut off
// as a cycle, without pushing a frame. Used to pre-filter bean properties
// before their container count is fixed.
func (g *recursionGuard) wouldCycle(id identity) bool {
	if id == (identity{}) {
		return false
	}
	for i := range g.stack {
		if g.stack[i].id == id {
			return true
		}
	}
	return false
}

// depth returns the current recursion depth.
func (g *recursionGuard) depth() int {
	return len(g.stack)
}

// path returns the attribute path of the current descent, optionally
// extended with a pending attribute. Root and unnamed frames are skipped.
func (g *recursionGuard) path(pending ...string) []string {
	out := make([]string, 0, len(g.stack)+len(pending))
	for i := range g.stack {
		if g.stack[i].attr != "" {
			out = append(out, g.stack[i].attr)
		}
	}
	for _, p := range pending {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
