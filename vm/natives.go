package vm

import (
	"time"

	"wisp/object"
)

// nativeClock is the language's one native function: seconds elapsed since
// an unspecified epoch, as a float. It is used to benchmark scripts, never
// to derive a wall-clock date.
func nativeClock(args []object.Value) (object.Value, error) {
	return object.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
}

func (vm *VM) defineNative(name string, fn object.NativeFn) {
	vm.globals[name] = object.FromObj(vm.registry.NewNative(name, fn))
}
