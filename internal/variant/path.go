package variant

import (
	"errors"
	"strings"
)

// PathSeparator joins "Attribute: Value" segments in a rendered path.
const PathSeparator = " → "

var ErrEmptyPath = errors.New("variant path is empty")

// Segment is one attribute/value step of a path from root to leaf.
type Segment struct {
	Attribute string
	Value     string
}

func (s Segment) String() string {
	if s.Attribute == "" {
		return s.Value
	}
	return s.Attribute + ": " + s.Value
}

func (s Segment) matches(attribute, value string) bool {
	// An untagged selection ("Large") matches the value under any attribute.
	if strings.TrimSpace(s.Attribute) != "" && !labelsMatch(s.Attribute, attribute) {
		return false
	}
	return labelsMatch(s.Value, value)
}

// Path is the root-to-leaf sequence of segments identifying one leaf.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, PathSeparator)
}

// LeafKey is the value labels from root to leaf joined by PathSeparator. For
// a single-level tree it is just the value ("Large"). Reconciliation uses it
// as the variant value of a check-in line.
func (p Path) LeafKey() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Value
	}
	return strings.Join(parts, PathSeparator)
}

// PathQuantity is one leaf of a flattened tree.
type PathQuantity struct {
	Path     Path
	Quantity int
}

// FlattenToPaths returns one entry per leaf, in tree order (pre-order,
// siblings as given). Order is stable, never sorted.
func FlattenToPaths(tree Tree) []PathQuantity {
	var out []PathQuantity
	flatten(tree, nil, &out)
	return out
}

func flatten(nodes []Node, prefix Path, out *[]PathQuantity) {
	for _, n := range nodes {
		for _, v := range n.Values {
			p := make(Path, len(prefix), len(prefix)+1)
			copy(p, prefix)
			p = append(p, Segment{Attribute: n.Attribute, Value: v.Label})

			if b, ok := v.Content.(Branch); ok {
				flatten(b.SubVariants, p, out)
				continue
			}
			*out = append(*out, PathQuantity{Path: p, Quantity: v.Quantity()})
		}
	}
}

// FlattenToMap is FlattenToPaths keyed by rendered path string. Use
// FlattenToPaths when order matters.
func FlattenToMap(tree Tree) map[string]int {
	leaves := FlattenToPaths(tree)
	out := make(map[string]int, len(leaves))
	for _, l := range leaves {
		out[l.Path.String()] += l.Quantity
	}
	return out
}

// ParsePath parses "Size: Large → Color: Red". "->" and a spaced " > " are
// accepted as separators too; a bare ">" stays part of the label, so
// ParsePath(p.String()) gives back p. A segment without a colon is taken as a
// bare value.
func ParsePath(s string) (Path, error) {
	s = strings.ReplaceAll(s, "->", "→")
	s = strings.ReplaceAll(s, " > ", "→")

	var p Path
	for _, raw := range strings.Split(s, "→") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		seg := Segment{Value: raw}
		if attr, val, ok := strings.Cut(raw, ":"); ok {
			seg = Segment{Attribute: strings.TrimSpace(attr), Value: strings.TrimSpace(val)}
		}
		if seg.Value == "" {
			continue
		}
		p = append(p, seg)
	}

	if len(p) == 0 {
		return nil, ErrEmptyPath
	}
	return p, nil
}

// FirstSegment returns only the first attribute/value pair of a compound
// selection. Shipments store a single-level selection per item even when the
// catalog tree is deeper.
func FirstSegment(s string) (Segment, bool) {
	p, err := ParsePath(s)
	if err != nil {
		return Segment{}, false
	}
	return p[0], true
}

// SetLeafQuantity sets the leaf addressed by path to quantity, clamped at 0.
// A multi-segment path is walked from the root; a single segment matches the
// first attribute/value pair at any depth. It returns the tree unchanged and
// false when nothing matches or the match is not a leaf.
func SetLeafQuantity(tree Tree, path Path, quantity int) (Tree, bool) {
	if len(path) == 0 {
		return tree, false
	}

	out := Clone(tree)
	var target *Value
	if len(path) == 1 {
		target = findFirst(out, path[0])
	} else {
		target = walk(out, path)
	}
	if target == nil || !target.IsLeaf() {
		return tree, false
	}

	target.Content = Leaf{Quantity: max(quantity, 0)}
	return out, true
}

// DecrementLeafQuantity subtracts amount from the first leaf matching
// attribute/value at any depth, clamped at 0. No match (or a first match that
// is a branch) leaves the tree unchanged and returns false: shipment
// selections are allowed to drift from catalog labels.
func DecrementLeafQuantity(tree Tree, attribute, value string, amount int) (Tree, bool) {
	out := Clone(tree)
	target := findFirst(out, Segment{Attribute: attribute, Value: value})
	if target == nil || !target.IsLeaf() {
		return tree, false
	}

	remaining := target.Quantity() - amount
	target.Content = Leaf{Quantity: max(remaining, 0)}
	return out, true
}

// findFirst does a pre-order search and returns a pointer into nodes.
func findFirst(nodes []Node, seg Segment) *Value {
	for i := range nodes {
		n := &nodes[i]
		for j := range n.Values {
			v := &n.Values[j]
			if seg.matches(n.Attribute, v.Label) {
				return v
			}
			if b, ok := v.Content.(Branch); ok {
				if found := findFirst(b.SubVariants, seg); found != nil {
					return found
				}
			}
		}
	}
	return nil
}

func walk(nodes []Node, path Path) *Value {
	seg := path[0]
	for i := range nodes {
		n := &nodes[i]
		for j := range n.Values {
			v := &n.Values[j]
			if !seg.matches(n.Attribute, v.Label) {
				continue
			}
			if len(path) == 1 {
				return v
			}
			if b, ok := v.Content.(Branch); ok {
				if found := walk(b.SubVariants, path[1:]); found != nil {
					return found
				}
			}
		}
	}
	return nil
}
