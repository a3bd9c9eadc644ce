package conf

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a configuration node.
type Kind int

const (
	KindInvalid Kind = iota

	// KindScalar - a single string/int/float/bool leaf
	KindScalar

	// KindList - an ordered sequence, replaced wholesale on merge
	KindList

	// KindMap - a keyed section, deep-merged across layers
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Tree is the immutable, merged, hierarchical configuration model. A tree
// is built once from its layers and never partially mutated; a reload
// builds a whole new tree and swaps it in, so concurrent readers never
// observe an intermediate state.
type Tree struct {
	root *node
}

type node struct {
	kind   Kind
	scalar any // string | bool | int64 | float64 | nil
	list   []*node
	fields map[string]*node
	keys   []string // sorted field keys for deterministic iteration
}

// Empty returns a tree with no values.
func Empty() *Tree {
	return &Tree{root: &node{kind: KindMap, fields: map[string]*node{}}}
}

// FromMap normalizes a pre-parsed layer (the map[string]any shape produced
// by yaml.v3 and friends) into a tree. The conf package never parses file
// formats itself; sources hand it this shape.
func FromMap(m map[string]any) *Tree {
	return &Tree{root: normalizeMap(m)}
}

func normalizeMap(m map[string]any) *node {
	n := &node{kind: KindMap, fields: make(map[string]*node, len(m))}
	for k, v := range m {
		n.fields[k] = normalize(v)
		n.keys = append(n.keys, k)
	}
	sort.Strings(n.keys)
	return n
}

func normalize(v any) *node {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		// Legacy YAML decoders produce interface keys.
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprintf("%v", k)] = val
		}
		return normalizeMap(m)
	case []any:
		n := &node{kind: KindList, list: make([]*node, 0, len(t))}
		for _, item := range t {
			n.list = append(n.list, normalize(item))
		}
		return n
	case nil:
		return &node{kind: KindScalar, scalar: nil}
	case bool:
		return &node{kind: KindScalar, scalar: t}
	case string:
		return &node{kind: KindScalar, scalar: t}
	case int:
		return &node{kind: KindScalar, scalar: int64(t)}
	case int8:
		return &node{kind: KindScalar, scalar: int64(t)}
	case int16:
		return &node{kind: KindScalar, scalar: int64(t)}
	case int32:
		return &node{kind: KindScalar, scalar: int64(t)}
	case int64:
		return &node{kind: KindScalar, scalar: t}
	case uint:
		return &node{kind: KindScalar, scalar: int64(t)}
	case uint8:
		return &node{kind: KindScalar, scalar: int64(t)}
	case uint16:
		return &node{kind: KindScalar, scalar: int64(t)}
	case uint32:
		return &node{kind: KindScalar, scalar: int64(t)}
	case uint64:
		return &node{kind: KindScalar, scalar: int64(t)}
	case float32:
		return &node{kind: KindScalar, scalar: float64(t)}
	case float64:
		return &node{kind: KindScalar, scalar: t}
	default:
		return &node{kind: KindScalar, scalar: fmt.Sprintf("%v", t)}
	}
}

// Merge deep-merges overlay onto base and returns the combined tree.
// Map sections merge recursively with the overlay's leaves winning on
// conflict; lists and scalars from the overlay replace the base value
// wholesale. Merging is associative in layer application order.
func Merge(base, overlay *Tree) *Tree {
	if base == nil {
		base = Empty()
	}
	if overlay == nil {
		return base
	}
	return &Tree{root: mergeNodes(base.root, overlay.root)}
}

func mergeNodes(base, overlay *node) *node {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}
	if base.kind != KindMap || overlay.kind != KindMap {
		// Later layer wins; lists are never concatenated element-wise.
		return overlay
	}

	merged := &node{kind: KindMap, fields: make(map[string]*node, len(base.fields)+len(overlay.fields))}
	for k, v := range base.fields {
		merged.fields[k] = v
	}
	for k, v := range overlay.fields {
		merged.fields[k] = mergeNodes(base.fields[k], v)
	}
	for k := range merged.fields {
		merged.keys = append(merged.keys, k)
	}
	sort.Strings(merged.keys)
	return merged
}

// lookup walks the tree by dot-separated path segments.
func (t *Tree) lookup(path string) (*node, bool) {
	if t == nil || t.root == nil {
		return nil, false
	}
	if path == "" {
		return t.root, true
	}

	cur := t.root
	for seg := range strings.SplitSeq(path, ".") {
		if cur.kind != KindMap {
			return nil, false
		}
		next, ok := cur.fields[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Has reports whether a value exists at the dot-separated path.
func (t *Tree) Has(path string) bool {
	_, ok := t.lookup(path)
	return ok
}

// Sub returns the subtree rooted at path. The second return is false when
// the path is absent.
func (t *Tree) Sub(path string) (*Tree, bool) {
	n, ok := t.lookup(path)
	if !ok {
		return nil, false
	}
	return &Tree{root: n}, true
}

// KindAt returns the node kind at path, KindInvalid when absent.
func (t *Tree) KindAt(path string) Kind {
	n, ok := t.lookup(path)
	if !ok {
		return KindInvalid
	}
	return n.kind
}

// Keys returns every addressable dot-path in the tree, intermediate map
// keys included, sorted.
func (t *Tree) Keys() []string {
	if t == nil || t.root == nil {
		return nil
	}
	var out []string
	collectKeys("", t.root, &out)
	sort.Strings(out)
	return out
}

// KeysWithPrefix returns the addressable paths beginning with prefix.
func (t *Tree) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range t.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func collectKeys(prefix string, n *node, out *[]string) {
	if n.kind != KindMap {
		return
	}
	for _, k := range n.keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		*out = append(*out, full)
		collectKeys(full, n.fields[k], out)
	}
}

// Raw exports the value at path in the plain map[string]any / []any /
// scalar shape it was built from. Returns false when absent.
func (t *Tree) Raw(path string) (any, bool) {
	n, ok := t.lookup(path)
	if !ok {
		return nil, false
	}
	return export(n), true
}

func export(n *node) any {
	switch n.kind {
	case KindScalar:
		return n.scalar
	case KindList:
		out := make([]any, 0, len(n.list))
		for _, item := range n.list {
			out = append(out, export(item))
		}
		return out
	case KindMap:
		out := make(map[string]any, len(n.fields))
		for k, v := range n.fields {
			out[k] = export(v)
		}
		return out
	default:
		return nil
	}
}

// found describes a node for TypeMismatchError messages.
func (n *node) found() string {
	if n.kind != KindScalar {
		return n.kind.String()
	}
	if n.scalar == nil {
		return "null"
	}
	return fmt.Sprintf("%T(%v)", n.scalar, n.scalar)
}
