package object

import "testing"

func TestIsFalsey(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil(), true},
		{"false", Bool(false), true},
		{"true", Bool(true), false},
		{"zero", Number(0), false},
		{"empty string", FromObj(&String{Chars: ""}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFalsey(tt.v); got != tt.want {
				t.Errorf("IsFalsey(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	reg := NewRegistry()
	s1 := reg.Intern("hi")
	s2 := reg.Intern("hi")

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil == nil", Nil(), Nil(), true},
		{"same number", Number(3), Number(3), true},
		{"different number", Number(3), Number(4), false},
		{"number != bool", Number(0), Bool(false), false},
		{"interned strings", FromObj(s1), FromObj(s2), true},
		{"distinct objects", FromObj(&String{Chars: "x"}), FromObj(&String{Chars: "x"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Number(3), "3"},
		{Number(3.5), "3.5"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRegistryInternReturnsCanonicalPointer(t *testing.T) {
	reg := NewRegistry()
	a := reg.Intern("hello")
	b := reg.Intern("hello")
	if a != b {
		t.Fatalf("Intern returned distinct pointers for equal contents")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (one allocation for two identical interns)", reg.Count())
	}
}

func TestRegistryFreeAllResetsCount(t *testing.T) {
	reg := NewRegistry()
	reg.Intern("a")
	reg.NewFunction("f", 0, nil)
	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}
	reg.FreeAll()
	if reg.Count() != 0 {
		t.Errorf("Count() after FreeAll() = %d, want 0", reg.Count())
	}
}
