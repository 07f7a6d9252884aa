package tst

// Kid selects one of the three child slots of a Node.
type Kid int

const (
	// Low holds keys whose next unit sorts before the split char.
	Low Kid = iota
	// Equal continues the match on the next unit of the key.
	Equal
	// High holds keys whose next unit sorts after the split char.
	High
)

// Node is a single ternary search trie node. Each child is owned by exactly one parent.
type Node struct {
	splitChar uint16
	kids      [3]*Node
	value     float32
	hasValue  bool
}

// NewNode returns an empty node discriminating on c.
func NewNode(c uint16) *Node {
	return &Node{splitChar: c}
}

// SplitChar returns the UTF-16 code unit this node discriminates on.
func (n *Node) SplitChar() uint16 {
	return n.splitChar
}

// SetSplitChar is used by decoders that allocate a node before reading its char.
func (n *Node) SetSplitChar(c uint16) {
	n.splitChar = c
}

// Child returns the node in slot k, or nil.
func (n *Node) Child(k Kid) *Node {
	return n.kids[k]
}

// SetChild attaches child in slot k, replacing any previous subtree.
func (n *Node) SetChild(k Kid, child *Node) {
	n.kids[k] = child
}

// Value returns the weight stored on the node, if the node terminates a key.
func (n *Node) Value() (float32, bool) {
	return n.value, n.hasValue
}

// SetValue marks the node as the end of a key with weight v.
func (n *Node) SetValue(v float32) {
	n.value = v
	n.hasValue = true
}

// ClearValue removes the key ending at this node. Its children are kept.
func (n *Node) ClearValue() {
	n.value = 0
	n.hasValue = false
}

// Empty reports a node that carries no value and has no children.
func (n *Node) Empty() bool {
	return !n.hasValue && n.kids[Low] == nil && n.kids[Equal] == nil && n.kids[High] == nil
}
