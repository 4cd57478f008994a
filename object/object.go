package object

import "wisp/bytecode"

// ObjType tags the concrete variant behind the Obj interface.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
)

// Obj is implemented by every heap-allocated object variant: String,
// Function, Native. Every object created through Intern/NewFunction/
// NewNative is linked into a Registry so the VM can account for everything
// it has allocated, mirroring the original's intrusive allocation list —
// adapted here as a plain slice, since Go's GC (not manual free) actually
// reclaims the memory; the registry exists so FreeAll and liveness counts
// still have something concrete to report.
type Obj interface {
	ObjType() ObjType
	String() string
}

// String is an immutable, interned sequence of bytes with a precomputed
// FNV-1a hash. Two String objects with equal Chars are always the same
// pointer — see Registry.Intern.
type String struct {
	Chars string
	Hash  uint32
}

func (s *String) ObjType() ObjType { return ObjTypeString }
func (s *String) String() string   { return s.Chars }

// Function is a compiled function: its name (empty for the top-level
// script), declared arity, and the chunk of bytecode that implements it.
type Function struct {
	Name   string
	Arity  int
	Chunk  *bytecode.Chunk
}

func (f *Function) ObjType() ObjType { return ObjTypeFunction }
func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return "<fn " + f.Name + ">"
}

// NativeFn is the host-function ABI: given the call's arguments, return a
// result or an error. Natives may not panic to signal a language-level
// runtime error; returning an error is how they report one.
type NativeFn func(args []Value) (Value, error)

// Native wraps a host-provided callable.
type Native struct {
	Name string
	Fn   NativeFn
}

func (n *Native) ObjType() ObjType { return ObjTypeNative }
func (n *Native) String() string   { return "<native fn " + n.Name + ">" }

// fnv1a32 is the hash used both to tag String objects and to probe the
// intern table.
func fnv1a32(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// Registry owns every allocated object and the interning table for
// strings. It is created once per VM instance.
type Registry struct {
	objects []Obj
	strings map[string]*String
}

// NewRegistry creates an empty object registry with its interning table
// initialized, matching init_vm's responsibility to set up the strings
// table before any code runs.
func NewRegistry() *Registry {
	return &Registry{strings: make(map[string]*String)}
}

// Intern returns the canonical *String for chars, allocating and
// registering a new one only the first time a given content is seen.
func (r *Registry) Intern(chars string) *String {
	if s, ok := r.strings[chars]; ok {
		return s
	}
	s := &String{Chars: chars, Hash: fnv1a32(chars)}
	r.strings[chars] = s
	r.objects = append(r.objects, s)
	return s
}

// NewFunction allocates and registers a Function object.
func (r *Registry) NewFunction(name string, arity int, chunk *bytecode.Chunk) *Function {
	f := &Function{Name: name, Arity: arity, Chunk: chunk}
	r.objects = append(r.objects, f)
	return f
}

// NewNative allocates and registers a Native object.
func (r *Registry) NewNative(name string, fn NativeFn) *Native {
	n := &Native{Name: name, Fn: fn}
	r.objects = append(r.objects, n)
	return n
}

// Count reports how many objects are currently tracked, for the "zero live
// allocations after free_vm" testable property: FreeAll below resets it to
// zero, and since Go objects become GC-eligible once unreferenced, the
// count dropping to zero is exactly the observable the original's arena
// teardown provides.
func (r *Registry) Count() int { return len(r.objects) }

// FreeAll releases the registry's references to every tracked object and
// clears the intern table, so nothing it held keeps the corresponding
// memory alive. This is the Go analogue of walking the original's `objects`
// linked list and freeing each node on shutdown.
func (r *Registry) FreeAll() {
	r.objects = nil
	r.strings = make(map[string]*String)
}
