package sprig

// Node is the scene graph element actions operate on. A single flat struct
// serves every node kind; Label wraps one.
//
// Nodes are reference counted. A parent retains each child it holds and
// releases it on removal; the action manager and scheduler retain the nodes
// they run work for.
type Node struct {
	Ref

	// Identity
	Name string
	Tag  int
	Type NodeType

	// Hierarchy
	parent   *Node
	children []*Node

	// Transform (local)
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
	PivotX   float64
	PivotY   float64

	// Visibility
	Visible bool
	Alpha   float64

	// Sprite flags (NodeTypeSprite)
	FlipX bool
	FlipY bool

	ZIndex   int
	UserData any

	// finalizers of wrapping types (Label) run before the children go
	onDestroy func()
}

// nodeDefaults sets the field values shared by all constructors.
func nodeDefaults(rt *Runtime, n *Node, self Object) {
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Visible = true
	n.init(rt, self, n.finalizeNode)
}

// NewContainer creates an autoreleased group node with no visual output.
func NewContainer(rt *Runtime, name string) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(rt, n, n)
	return Autorelease(n)
}

// NewSprite creates an autoreleased sprite node. Sprites carry the flip
// flags FlipX/FlipY actions toggle.
func NewSprite(rt *Runtime, name string) *Node {
	n := &Node{Name: name, Type: NodeTypeSprite}
	nodeDefaults(rt, n, n)
	return Autorelease(n)
}

func (n *Node) finalizeNode() {
	if n.onDestroy != nil {
		n.onDestroy()
	}
	for _, child := range n.children {
		child.parent = nil
		child.Release()
	}
	n.children = nil
	n.parent = nil
	n.UserData = nil
}

// --- Visibility, opacity, flip ---

// SetVisible shows or hides the node.
func (n *Node) SetVisible(v bool) { n.Visible = v }

// IsVisible reports whether the node is visible.
func (n *Node) IsVisible() bool { return n.Visible }

// SetAlpha sets the node opacity in [0, 1].
func (n *Node) SetAlpha(a float64) { n.Alpha = a }

// SetFlipX sets the horizontal flip flag.
func (n *Node) SetFlipX(f bool) { n.FlipX = f }

// SetFlipY sets the vertical flip flag.
func (n *Node) SetFlipY(f bool) { n.FlipY = f }

// --- Tree manipulation ---

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.parent }

// AddChild appends child to this node's children and retains it.
// If child already has a parent, it is removed from that parent first
// without cleanup.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("sprig: cannot add nil child")
	}
	if n.rt.debug {
		debugCheckDestroyed(n, "AddChild (parent)")
		debugCheckDestroyed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("sprig: adding child would create a cycle")
	}
	child.Retain()
	if child.parent != nil {
		child.parent.RemoveChild(child, false)
	}
	child.parent = n
	n.children = append(n.children, child)
	if n.rt.debug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node and releases it. When cleanup
// is true the child's actions and scheduled callbacks are stopped first.
// Panics if child.Parent() != n.
func (n *Node) RemoveChild(child *Node, cleanup bool) {
	if n.rt.debug {
		debugCheckDestroyed(n, "RemoveChild (parent)")
		debugCheckDestroyed(child, "RemoveChild (child)")
	}
	if child.parent != n {
		panic("sprig: child's parent is not this node")
	}
	if cleanup {
		child.Cleanup()
	}
	n.removeChildByPtr(child)
	child.parent = nil
	child.Release()
}

// RemoveFromParent detaches this node from its parent with cleanup.
func (n *Node) RemoveFromParent() {
	n.RemoveFromParentAndCleanup(true)
}

// RemoveFromParentAndCleanup detaches this node from its parent, optionally
// stopping its actions and scheduled callbacks. No-op without a parent.
func (n *Node) RemoveFromParentAndCleanup(cleanup bool) {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChild(n, cleanup)
}

// RemoveAllChildren detaches and releases every child, with optional cleanup.
func (n *Node) RemoveAllChildren(cleanup bool) {
	children := n.children
	n.children = nil
	for _, child := range children {
		if cleanup {
			child.Cleanup()
		}
		child.parent = nil
		child.Release()
	}
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildByTag returns the first child with the given tag, or nil.
func (n *Node) ChildByTag(tag int) *Node {
	for _, c := range n.children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Cleanup stops every action and scheduled callback of this node and its
// descendants.
func (n *Node) Cleanup() {
	n.rt.actions.RemoveAllActionsFromTarget(n)
	n.rt.scheduler.UnscheduleAllForTarget(n)
	for _, child := range n.children {
		child.Cleanup()
	}
}

// --- Actions and scheduling ---

// RunAction starts action on this node and returns it.
func (n *Node) RunAction(action Action) Action {
	n.rt.actions.AddAction(action, n, false)
	return action
}

// StopAllActions removes every action running on this node.
func (n *Node) StopAllActions() {
	n.rt.actions.RemoveAllActionsFromTarget(n)
}

// StopAction removes one action from this node.
func (n *Node) StopAction(action Action) {
	n.rt.actions.RemoveAction(action)
}

// ActionByTag returns the running action with the given tag, or nil.
func (n *Node) ActionByTag(tag int) Action {
	return n.rt.actions.ActionByTag(tag, n)
}

// NumberOfRunningActions counts the actions running on this node.
func (n *Node) NumberOfRunningActions() int {
	return n.rt.actions.NumberOfRunningActions(n)
}

// Schedule registers fn under key, fired every interval seconds.
func (n *Node) Schedule(key string, fn func(dt float32), interval float32, repeat uint32, delay float32) {
	n.rt.scheduler.Schedule(n, key, fn, interval, repeat, delay, false)
}

// Unschedule removes the callback registered under key.
func (n *Node) Unschedule(key string) {
	n.rt.scheduler.Unschedule(n, key)
}

// PauseSchedulerAndActions suspends this node's timers and actions.
func (n *Node) PauseSchedulerAndActions() {
	n.rt.scheduler.PauseTarget(n)
	n.rt.actions.PauseTarget(n)
}

// ResumeSchedulerAndActions resumes this node's timers and actions.
func (n *Node) ResumeSchedulerAndActions() {
	n.rt.scheduler.ResumeTarget(n)
	n.rt.actions.ResumeTarget(n)
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
