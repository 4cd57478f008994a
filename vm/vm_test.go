package vm

import (
	"strings"
	"testing"

	"wisp/object"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	registry := object.NewRegistry()
	machine := New(registry, false)
	var out strings.Builder
	machine.Stdout = &out
	err := machine.Interpret(source)
	return out.String(), err
}

func TestArithmeticAndPrint(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`print 1 + 2;`, "3\n"},
		{`print (2 + 3) * 4;`, "20\n"},
		{`print "a" + "b";`, "ab\n"},
		{`print 10 / 4;`, "2.5\n"},
		{`print !false;`, "true\n"},
		{`print nil;`, "nil\n"},
		{`print 1 == 1.0;`, "true\n"},
		{`print 1 < 2 and 2 < 3;`, "true\n"},
		{`print true or nonexistent;`, "true\n"}, // short-circuit: right side never runs, so the undefined global is never looked up
	}

	for _, tt := range tests {
		out, err := run(t, tt.source)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.source, err)
		}
		if out != tt.want {
			t.Errorf("%q: got %q, want %q", tt.source, out, tt.want)
		}
	}
}

func TestGlobalsAndLocals(t *testing.T) {
	source := `
		var a = 1;
		{
			var a = 2;
			print a;
		}
		print a;
	`
	out, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2\n1\n" {
		t.Errorf("got %q", out)
	}
}

func TestControlFlow(t *testing.T) {
	source := `
		var sum = 0;
		for (var i = 0; i < 5; i = i + 1) {
			sum = sum + i;
		}
		print sum;
	`
	out, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "10\n" {
		t.Errorf("got %q", out)
	}
}

func TestRecursiveFunction(t *testing.T) {
	source := `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`
	out, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "55\n" {
		t.Errorf("got %q", out)
	}
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	rerr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if !strings.Contains(rerr.Message, "Undefined variable 'nope'") {
		t.Errorf("unexpected message: %s", rerr.Message)
	}
	if len(rerr.Trace) != 1 || !strings.Contains(rerr.Trace[0], "in script") {
		t.Errorf("unexpected trace: %v", rerr.Trace)
	}
}

func TestTypeErrorOnAdd(t *testing.T) {
	_, err := run(t, `print 1 + "a";`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "Operands must be two numbers or two strings.") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		fun f(a, b) { return a + b; }
		f(1);
	`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "Expected 2 arguments but got 1.") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "true\n" {
		t.Errorf("got %q", out)
	}
}
