package treelai

import "strconv"

// Kind is the shape of a document node.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is one value of a parsed document.
//
// Scalars keep their literal text in Value ("true"/"false" for booleans, the
// number literal for numbers). Mappings keep their keys in document order.
type Node struct {
	Kind  Kind
	Value string
	Pairs []Pair
	Items []*Node
}

// Pair is one key/value entry of a mapping.
type Pair struct {
	Key   string
	Value *Node
}

// NewString returns a string node.
func NewString(s string) *Node {
	return &Node{Kind: KindString, Value: s}
}

// NewNumber returns a number node for the given literal.
func NewNumber(literal string) *Node {
	return &Node{Kind: KindNumber, Value: literal}
}

// NewBool returns a boolean node.
func NewBool(b bool) *Node {
	return &Node{Kind: KindBool, Value: strconv.FormatBool(b)}
}

// NewNull returns a null node.
func NewNull() *Node {
	return &Node{Kind: KindNull}
}

// NewMapping returns a mapping node with the given pairs in order.
func NewMapping(pairs ...Pair) *Node {
	return &Node{Kind: KindMapping, Pairs: pairs}
}

// NewSequence returns a sequence node.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

// P is shorthand for building a Pair.
func P(key string, value *Node) Pair {
	return Pair{Key: key, Value: value}
}

// Get returns the value stored under key in a mapping.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindMapping {
		return nil, false
	}
	for _, p := range n.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (n *Node) Set(key string, value *Node) {
	for i := range n.Pairs {
		if n.Pairs[i].Key == key {
			n.Pairs[i].Value = value
			return
		}
	}
	n.Pairs = append(n.Pairs, Pair{Key: key, Value: value})
}

// IsTrue reports whether n is the boolean true.
func (n *Node) IsTrue() bool {
	return n != nil && n.Kind == KindBool && n.Value == "true"
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Value: n.Value}
	if n.Pairs != nil {
		c.Pairs = make([]Pair, len(n.Pairs))
		for i, p := range n.Pairs {
			c.Pairs[i] = Pair{Key: p.Key, Value: p.Value.Clone()}
		}
	}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			c.Items[i] = item.Clone()
		}
	}
	return c
}

// Equal reports whether a and b have the same shape, keys, key order and values.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindMapping:
		if len(a.Pairs) != len(b.Pairs) {
			return false
		}
		for i := range a.Pairs {
			if a.Pairs[i].Key != b.Pairs[i].Key || !Equal(a.Pairs[i].Value, b.Pairs[i].Value) {
				return false
			}
		}
		return true
	case KindSequence:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindNull:
		return true
	}
	return a.Value == b.Value
}

// NodeClass is the role a node plays during a traversal.
type NodeClass int

const (
	ClassOther NodeClass = iota // number, bool, null
	ClassScalar
	ClassMapping
	ClassSequence
	ClassOverride
)

// Classify resolves the traversal role of n. An override is a mapping whose
// translation_hash entry is the boolean true, so it is checked first.
func Classify(n *Node) NodeClass {
	if n == nil {
		return ClassOther
	}
	switch n.Kind {
	case KindMapping:
		if marker, ok := n.Get(KeyTranslationHash); ok && marker.IsTrue() {
			return ClassOverride
		}
		return ClassMapping
	case KindSequence:
		return ClassSequence
	case KindString:
		return ClassScalar
	}
	return ClassOther
}

// overrideString returns the string value of an override control key.
// Missing keys and non-string values report false.
func overrideString(n *Node, key string) (string, bool) {
	v, ok := n.Get(key)
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Value, true
}
