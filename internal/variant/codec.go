package variant

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Wire shapes of the persisted variant document.
type nodeJSON struct {
	Attribute string      `json:"attribute"`
	Values    []valueJSON `json:"values"`
}

type valueJSON struct {
	Value       string     `json:"value"`
	Quantity    int        `json:"quantity"`
	SubVariants []nodeJSON `json:"subVariants"`
}

func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(t))
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw []nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tree, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

func toJSON(nodes []Node) []nodeJSON {
	out := make([]nodeJSON, len(nodes))
	for i, n := range nodes {
		values := make([]valueJSON, len(n.Values))
		for j, v := range n.Values {
			values[j] = valueJSON{Value: v.Label, SubVariants: []nodeJSON{}}
			switch c := v.Content.(type) {
			case Branch:
				values[j].SubVariants = toJSON(c.SubVariants)
			case Leaf:
				values[j].Quantity = c.Quantity
			}
		}
		out[i] = nodeJSON{Attribute: n.Attribute, Values: values}
	}
	return out
}

func fromJSON(raw []nodeJSON) (Tree, error) {
	out := make(Tree, len(raw))
	for i, n := range raw {
		values := make([]Value, len(n.Values))
		for j, v := range n.Values {
			// A value with children is a branch; its own quantity is ignored.
			if len(v.SubVariants) > 0 {
				sub, err := fromJSON(v.SubVariants)
				if err != nil {
					return nil, err
				}
				values[j] = Value{Label: v.Value, Content: Branch{SubVariants: sub}}
				continue
			}
			if v.Quantity < 0 {
				return nil, fmt.Errorf("variant %q: negative quantity %d", v.Value, v.Quantity)
			}
			values[j] = Value{Label: v.Value, Content: Leaf{Quantity: v.Quantity}}
		}
		out[i] = Node{Attribute: n.Attribute, Values: values}
	}
	return out, nil
}

// Value stores the tree as a jsonb document. A nil tree is stored as [].
func (t Tree) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *Tree) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = Tree{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("variant tree: cannot scan %T", src)
	}
	if len(data) == 0 {
		*t = Tree{}
		return nil
	}
	return t.UnmarshalJSON(data)
}

// ValidationError describes the first malformed entry found by Validate.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

var ErrInvalidTree = errors.New("invalid variant tree")

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTree
}

// Validate rejects empty attribute or value labels and negative leaf
// quantities. Callers use it before persisting user input.
func Validate(tree Tree) error {
	return validate(tree, nil)
}

func validate(nodes []Node, prefix Path) error {
	for _, n := range nodes {
		if strings.TrimSpace(n.Attribute) == "" {
			return &ValidationError{Path: prefix.String(), Message: "variant attribute is empty"}
		}
		for _, v := range n.Values {
			p := append(append(Path{}, prefix...), Segment{Attribute: n.Attribute, Value: v.Label})
			if strings.TrimSpace(v.Label) == "" {
				return &ValidationError{Path: p.String(), Message: "variant value is empty"}
			}
			switch c := v.Content.(type) {
			case Leaf:
				if c.Quantity < 0 {
					return &ValidationError{Path: p.String(), Message: "quantity cannot be negative"}
				}
			case Branch:
				if err := validate(c.SubVariants, p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
