// Package ir defines the intermediate representation of the compiler: a
// Program of Instructions forming a DAG over typed tensor shapes.
//
// An Operator describes an operation independently of its position in any
// program. Concrete operators live in the ops package; the ir package only
// depends on the interface, so operator libraries can be supplied by targets
// without introducing import cycles.
package ir

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// Operator is the capability every operation must provide: a stable name and
// a pure shape computation. ComputeShape panics with a shape-mismatch error
// when the inputs violate the operator's preconditions.
type Operator interface {
	Name() string
	ComputeShape(inputs []shapes.Shape) shapes.Shape
}

// Computable is implemented by operators that can be evaluated on the host.
// Operators without it are placeholders until lowering and raise a
// not-computable error when asked to execute (see Instruction.Eval).
type Computable interface {
	Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument
}

// Finalizer is implemented by operators that need a post-compile hook, run
// once after the pass pipeline.
type Finalizer interface {
	Finalize()
}

// Aliasing is implemented by operators whose output shares the buffer of one
// of their inputs. OutputAlias returns the input index written into, or -1
// when the output is a fresh buffer. Memory coloring relies on this contract
// for in-place operators.
type Aliasing interface {
	OutputAlias(inputs []shapes.Shape) int
}

// OutputAlias returns the aliased input index of op, or -1 when op does not
// alias.
func OutputAlias(op Operator, inputs []shapes.Shape) int {
	if aliasing, ok := op.(Aliasing); ok {
		return aliasing.OutputAlias(inputs)
	}
	return -1
}

// OpEqual returns whether two operators are equal: same name and all
// reflected fields match.
func OpEqual(a, b Operator) bool {
	if a.Name() != b.Name() {
		return false
	}
	return reflect.DeepEqual(opValue(a).Interface(), opValue(b).Interface())
}

// OpString pretty-prints an operator as `name[field=value,...]`, the fields
// taken by reflection in declaration order. Operators implementing
// fmt.Stringer override the default format.
func OpString(op Operator) string {
	if stringer, ok := op.(fmt.Stringer); ok {
		return stringer.String()
	}
	value := opValue(op)
	if value.Kind() != reflect.Struct {
		return op.Name()
	}
	var parts []string
	structType := value.Type()
	for ii := 0; ii < structType.NumField(); ii++ {
		field := structType.Field(ii)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", fieldKey(field.Name), value.Field(ii).Interface()))
	}
	if len(parts) == 0 {
		return op.Name()
	}
	return fmt.Sprintf("%s[%s]", op.Name(), strings.Join(parts, ","))
}

func opValue(op Operator) reflect.Value {
	value := reflect.ValueOf(op)
	for value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	return value
}

func fieldKey(name string) string {
	return strings.ToLower(name[:1]) + name[1:]
}
