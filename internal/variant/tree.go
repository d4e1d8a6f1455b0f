// Package variant models a product's attribute/value hierarchy (for example
// Size → Color → Material). Quantity lives only on leaves; every other level
// is derived by summing the leaves beneath it.
//
// All functions are pure: they never modify their arguments and return fresh
// copies.
package variant

import (
	"strings"
)

// Tree is a product's full variant document: its top-level attribute nodes.
type Tree []Node

// Node is one attribute level with its ordered values.
type Node struct {
	Attribute string
	Values    []Value
}

// Value is one labelled option of an attribute. Its Content is either a Leaf
// carrying a quantity or a Branch carrying nested attribute nodes.
type Value struct {
	Label   string
	Content Content
}

// Content is implemented by Leaf and Branch only.
type Content interface {
	isContent()
}

type Leaf struct {
	Quantity int
}

type Branch struct {
	SubVariants []Node
}

func (Leaf) isContent()   {}
func (Branch) isContent() {}

// NewLeaf is shorthand for a leaf value.
func NewLeaf(label string, quantity int) Value {
	return Value{Label: label, Content: Leaf{Quantity: quantity}}
}

// NewBranch is shorthand for a value with nested attributes.
func NewBranch(label string, sub ...Node) Value {
	return Value{Label: label, Content: Branch{SubVariants: sub}}
}

// IsLeaf reports whether v carries a quantity directly. A value with no
// content is treated as an empty leaf.
func (v Value) IsLeaf() bool {
	_, isBranch := v.Content.(Branch)
	return !isBranch
}

// Quantity is the aggregate for v: its own quantity for a leaf, the sum of
// its subtree for a branch.
func (v Value) Quantity() int {
	switch c := v.Content.(type) {
	case Leaf:
		return c.Quantity
	case Branch:
		return TotalQuantity(c.SubVariants)
	default:
		return 0
	}
}

// Quantity is the sum over all values of the node.
func (n Node) Quantity() int {
	total := 0
	for _, v := range n.Values {
		total += v.Quantity()
	}
	return total
}

// TotalQuantity sums every leaf quantity in the tree. A branch never
// contributes anything of its own. An empty tree is 0.
func TotalQuantity(tree Tree) int {
	total := 0
	for _, n := range tree {
		total += n.Quantity()
	}
	return total
}

// IsEmpty reports whether the tree has no attribute nodes.
func (t Tree) IsEmpty() bool {
	return len(t) == 0
}

// Clone deep-copies the tree.
func Clone(tree Tree) Tree {
	return mapLeaves(tree, func(q int) int { return q })
}

// CloneWithZeroedQuantities copies labels and nesting and sets every leaf to 0.
// Used to seed a check-in form from an existing catalog shape.
func CloneWithZeroedQuantities(tree Tree) Tree {
	return mapLeaves(tree, func(int) int { return 0 })
}

func mapLeaves(tree Tree, fn func(int) int) Tree {
	if tree == nil {
		return nil
	}
	out := make(Tree, len(tree))
	for i, n := range tree {
		out[i] = mapNode(n, fn)
	}
	return out
}

func mapNode(n Node, fn func(int) int) Node {
	values := make([]Value, len(n.Values))
	for i, v := range n.Values {
		values[i] = Value{Label: v.Label}
		switch c := v.Content.(type) {
		case Branch:
			values[i].Content = Branch{SubVariants: mapLeaves(c.SubVariants, fn)}
		case Leaf:
			values[i].Content = Leaf{Quantity: fn(c.Quantity)}
		default:
			values[i].Content = Leaf{Quantity: fn(0)}
		}
	}
	return Node{Attribute: n.Attribute, Values: values}
}

// labelsMatch compares labels the way upstream data entry needs: case
// insensitive and ignoring surrounding whitespace.
func labelsMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
