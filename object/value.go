// Package object implements the tagged Value union and the heap-object
// variants (strings, functions, natives) that live behind it. It also owns
// string interning, since interning is a property of how String values
// compare for equality, not of any one subsystem that uses them.
package object

import "fmt"

// Kind tags a Value's payload.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is the VM's tagged union: Nil | Bool | Number | Obj. Equality
// requires matching tags; Number compares by IEEE-754 ==, Obj by
// referential identity except for String, which is interned so referential
// identity coincides with content equality.
type Value struct {
	kind   Kind
	b      bool
	number float64
	obj    Obj
}

func Nil() Value               { return Value{kind: KindNil} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Number(n float64) Value   { return Value{kind: KindNumber, number: n} }
func FromObj(o Obj) Value      { return Value{kind: KindObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Obj        { return v.obj }

// IsString reports whether v holds a *String object.
func (v Value) IsString() bool {
	_, ok := v.obj.(*String)
	return v.kind == KindObj && ok
}

// AsString returns the underlying Go string of a *String value. Callers
// must check IsString first.
func (v Value) AsString() string {
	return v.obj.(*String).Chars
}

// IsFunction reports whether v holds a *Function object.
func (v Value) IsFunction() bool {
	_, ok := v.obj.(*Function)
	return v.kind == KindObj && ok
}

func (v Value) AsFunction() *Function { return v.obj.(*Function) }

// IsNative reports whether v holds a *Native object.
func (v Value) IsNative() bool {
	_, ok := v.obj.(*Native)
	return v.kind == KindObj && ok
}

func (v Value) AsNative() *Native { return v.obj.(*Native) }

// IsFalsey implements the language's truthiness rule: nil and false are the
// only falsey values. Everything else — 0, "", functions — is truthy.
func IsFalsey(v Value) bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements the VM's EQUAL opcode. Same-tag required; Nil == Nil,
// Bool compares by value, Number by ==, and Obj by referential identity
// (which, for interned strings, is the same as content equality).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.number == b.number
	case KindObj:
		return a.obj == b.obj
	}
	return false
}

// String renders a Value the way PRINT and the REPL do.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObj:
		return v.obj.String()
	}
	return "<invalid value>"
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
