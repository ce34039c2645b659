package sprig

// AutoreleasePool collects deferred releases. Each Add records one
// registration; Drain performs exactly one Release per registration.
type AutoreleasePool struct {
	objects []Object
	// pending holds the registrations being released by an in-progress
	// Drain, so a destroyed object can be scrubbed from it.
	pending  []Object
	draining bool
}

// Add registers one deferred release of obj.
func (p *AutoreleasePool) Add(obj Object) {
	obj.base().autoreleaseCount++
	p.objects = append(p.objects, obj)
}

// Len returns the number of registrations waiting for the next drain.
func (p *AutoreleasePool) Len() int {
	return len(p.objects)
}

// Contains reports whether obj has a registration waiting in this pool.
func (p *AutoreleasePool) Contains(obj Object) bool {
	for _, o := range p.objects {
		if o == obj {
			return true
		}
	}
	return false
}

// Drain releases every registration in order and empties the pool.
// Objects autoreleased while draining land in the emptied pool and wait for
// the next drain. A nested Drain of the same pool is a no-op.
func (p *AutoreleasePool) Drain() {
	if p.draining {
		return
	}
	p.draining = true
	p.pending = p.objects
	p.objects = nil
	for i := range p.pending {
		obj := p.pending[i]
		if obj == nil {
			continue
		}
		p.pending[i] = nil
		obj.base().autoreleaseCount--
		obj.Release()
	}
	p.pending = nil
	p.draining = false
}

// remove clears every registration of obj, including ones an in-progress
// drain has not reached yet.
func (p *AutoreleasePool) remove(obj Object) {
	for i, o := range p.pending {
		if o == obj {
			p.pending[i] = nil
		}
	}
	kept := p.objects[:0]
	for _, o := range p.objects {
		if o != obj {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < len(p.objects); i++ {
		p.objects[i] = nil
	}
	p.objects = kept
}

// PoolManager is the stack of autorelease pools for one runtime. The bottom
// pool always exists.
type PoolManager struct {
	stack []*AutoreleasePool
}

func newPoolManager() *PoolManager {
	return &PoolManager{stack: []*AutoreleasePool{{}}}
}

// Top returns the pool that receives new registrations.
func (m *PoolManager) Top() *AutoreleasePool {
	return m.stack[len(m.stack)-1]
}

// Push starts a new innermost pool and returns it.
func (m *PoolManager) Push() *AutoreleasePool {
	p := &AutoreleasePool{}
	m.stack = append(m.stack, p)
	return p
}

// Pop drains the innermost pool and removes it. The bottom pool is drained
// but never removed.
func (m *PoolManager) Pop() {
	m.Top().Drain()
	if len(m.stack) > 1 {
		m.stack[len(m.stack)-1] = nil
		m.stack = m.stack[:len(m.stack)-1]
	}
}

// Drain drains the innermost pool without removing it.
func (m *PoolManager) Drain() {
	m.Top().Drain()
}

// Depth returns the number of pools on the stack.
func (m *PoolManager) Depth() int {
	return len(m.stack)
}

// removeObject drops every registration of a destroyed object.
func (m *PoolManager) removeObject(obj Object) {
	for _, p := range m.stack {
		p.remove(obj)
	}
	obj.base().autoreleaseCount = 0
}
