package selection

// Context is the selection state of one event-execution thread. A child
// context spawned for a nested call (a common event) shares the cell owned
// by its root, so writes in the child are visible to every ancestor.
type Context struct {
	parent   *Context
	root     *Context
	selected int // meaningful on the root only
	resolver *Resolver
	closed   bool
}

// Spawn creates a child context sharing this context's root selection.
func (c *Context) Spawn() *Context {
	return &Context{parent: c, root: c.root, resolver: c.resolver}
}

func (c *Context) Parent() *Context { return c.parent }
func (c *Context) Root() *Context   { return c.root }
func (c *Context) IsRoot() bool     { return c.root == c }

// Selected returns the lineup position stored at the root.
func (c *Context) Selected() int { return c.root.selected }

func (c *Context) set(pos int) { c.root.selected = pos }

// Close ends the thread. Closing a root unregisters it from map-transfer
// resets; closing a child is a no-op.
func (c *Context) Close() {
	if !c.IsRoot() || c.closed {
		return
	}
	c.closed = true
	delete(c.resolver.roots, c)
}
