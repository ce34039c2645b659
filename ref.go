package sprig

import "fmt"

// Object is implemented by every reference-counted engine value. Concrete
// types get it by embedding Ref and calling its init from their constructor.
type Object interface {
	ID() uint32
	Retain()
	Release()
	RetainCount() uint32
	IsDestroyed() bool
	// Self returns the outermost object embedding the Ref.
	Self() Object

	// Script bridge bookkeeping, used by ScriptEngine implementations.
	ScriptRef() int
	BindScriptRef(id int)
	ScriptUserData() int
	SetScriptUserData(id int)

	base() *Ref
}

// Ref is the manual reference count carried by every engine object.
//
// A new Ref starts at count 1, owned by its creator. Retain and Release
// adjust the count; the object is destroyed synchronously when the count
// reaches zero, which happens exactly once. Autorelease hands one release to
// the runtime's current AutoreleasePool.
type Ref struct {
	rt               *Runtime
	self             Object
	finalize         func()
	id               uint32
	refs             uint32
	autoreleaseCount uint32
	scriptRef        int
	scriptUserData   int
	destroyed        bool
}

// init wires the Ref to its runtime and outer object. finalize runs once
// when the count reaches zero, before the script bridge is notified.
func (r *Ref) init(rt *Runtime, self Object, finalize func()) {
	if rt == nil {
		panic("sprig: object created without a runtime")
	}
	r.rt = rt
	r.self = self
	r.finalize = finalize
	r.id = rt.nextObjectID()
	r.refs = 1
}

func (r *Ref) base() *Ref { return r }

// Self returns the outermost object embedding this Ref, so a *Node embedded
// in a *Label yields the *Label.
func (r *Ref) Self() Object { return r.self }

// ID returns the runtime-unique object id.
func (r *Ref) ID() uint32 { return r.id }

// Runtime returns the runtime the object was created against.
func (r *Ref) Runtime() *Runtime { return r.rt }

// Retain adds one owner. Panics if the object was already destroyed.
func (r *Ref) Retain() {
	if r.refs == 0 {
		panic(fmt.Sprintf("sprig: retain on released object %d", r.id))
	}
	r.refs++
}

// Release drops one owner and destroys the object when none remain.
// Panics if the count is already zero.
func (r *Ref) Release() {
	if r.refs == 0 {
		panic(fmt.Sprintf("sprig: release on released object %d", r.id))
	}
	r.refs--
	if r.refs == 0 {
		r.destroy()
	}
}

// Autorelease registers one deferred release with the current pool.
func (r *Ref) Autorelease() {
	r.rt.pools.Top().Add(r.self)
}

// RetainCount returns the current reference count.
func (r *Ref) RetainCount() uint32 { return r.refs }

// AutoreleaseCount returns how many pending pool releases the object has.
func (r *Ref) AutoreleaseCount() uint32 { return r.autoreleaseCount }

// IsSingleReference reports whether the creator is the only owner.
func (r *Ref) IsSingleReference() bool { return r.refs == 1 }

// IsDestroyed reports whether the count has reached zero.
func (r *Ref) IsDestroyed() bool { return r.destroyed }

// ScriptRef returns the id of the script-side proxy bound to this object,
// or 0 when no script runtime references it.
func (r *Ref) ScriptRef() int { return r.scriptRef }

// BindScriptRef records that a script runtime holds a proxy for this object.
// Script engines call this when they first hand the object to script code.
func (r *Ref) BindScriptRef(id int) { r.scriptRef = id }

// ScriptUserData returns the script-side user data id, or 0.
func (r *Ref) ScriptUserData() int { return r.scriptUserData }

// SetScriptUserData replaces the script-side user data id. The previous id,
// if any, is removed from the active engine first.
func (r *Ref) SetScriptUserData(id int) {
	if r.scriptUserData != 0 {
		if e := r.rt.scripts.ScriptEngine(); e != nil {
			e.RemoveScriptUserData(r.scriptUserData)
		}
		r.scriptUserData = 0
	}
	r.scriptUserData = id
}

func (r *Ref) destroy() {
	if r.finalize != nil {
		r.finalize()
	}
	if r.autoreleaseCount > 0 {
		r.rt.pools.removeObject(r.self)
	}

	engine := r.rt.scripts.ScriptEngine()
	if r.scriptUserData != 0 {
		if engine != nil {
			engine.RemoveScriptUserData(r.scriptUserData)
		}
		r.scriptUserData = 0
	}
	// Proxies must be invalidated before the object is considered gone.
	if r.scriptRef != 0 {
		if engine != nil {
			engine.ExecuteObjectDestructor(r.self)
			engine.RemoveScriptObject(r.self)
		}
		r.scriptRef = 0
	} else if engine != nil && engine.ScriptType() == ScriptTypeJavaScript {
		engine.RemoveScriptObject(r.self)
	}
	r.destroyed = true
}

// Autorelease registers obj with the current pool and returns it unchanged.
func Autorelease[T Object](obj T) T {
	obj.base().Autorelease()
	return obj
}

// Boxed is a reference-counted wrapper around a plain value, used as a
// CallFuncO payload and for handing values to script code.
type Boxed[T any] struct {
	Ref
	Value T
}

// Unboxer is an object wrapping a plain value. Script engines hand the
// value itself to handlers instead of an object proxy.
type Unboxer interface {
	Object
	Unbox() any
}

// Unbox returns the wrapped value.
func (b *Boxed[T]) Unbox() any { return b.Value }

// NewBoxed returns an autoreleased Boxed holding v.
func NewBoxed[T any](rt *Runtime, v T) *Boxed[T] {
	b := &Boxed[T]{Value: v}
	b.init(rt, b, nil)
	return Autorelease(b)
}
