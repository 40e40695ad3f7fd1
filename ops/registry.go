package ops

import (
	"github.com/gomlx/exceptions"

	"github.com/tensorc/tensorc/types/shapes"
)

// Operator mirrors the capability set the ir package dispatches on. It is
// redeclared here so the registry does not depend on ir.
type Operator interface {
	Name() string
	ComputeShape(inputs []shapes.Shape) shapes.Shape
}

var registry = map[string]func() Operator{}

// Register makes an operator constructor available by name, so targets can
// supply lowered variants discovered at compile time. Registering a name
// twice panics.
func Register(name string, factory func() Operator) {
	if _, found := registry[name]; found {
		exceptions.Panicf("operator %q registered twice", name)
	}
	registry[name] = factory
}

// Lookup returns a fresh operator value for the given name. It panics with
// a bad-cast error for unknown names, the same failure as accessing a
// type-erased operator wrongly.
func Lookup(name string) Operator {
	factory, found := registry[name]
	if !found {
		exceptions.Panicf("bad-cast: unknown operator %q", name)
	}
	return factory()
}

// Registered returns whether an operator with the given name exists.
func Registered(name string) bool {
	_, found := registry[name]
	return found
}

func init() {
	Register("transpose", func() Operator { return Transpose{} })
	Register("contiguous", func() Operator { return Contiguous{} })
	Register("reshape", func() Operator { return Reshape{} })
	Register("squeeze", func() Operator { return Squeeze{} })
	Register("unsqueeze", func() Operator { return Unsqueeze{} })
	Register("slice", func() Operator { return Slice{} })
	Register("concat", func() Operator { return Concat{} })
	Register("identity", func() Operator { return Identity{} })
	Register("dot", func() Operator { return Dot{} })
	Register("reduce_sum", func() Operator { return ReduceSum{} })
	Register("reduce_max", func() Operator { return ReduceMax{} })
	Register("softmax", func() Operator { return Softmax{} })
	Register("sin", func() Operator { return Sin{} })
	Register("cos", func() Operator { return Cos{} })
	Register("exp", func() Operator { return Exp{} })
	Register("log", func() Operator { return Log{} })
	Register("abs", func() Operator { return Abs{} })
	Register("neg", func() Operator { return Neg{} })
	Register("tanh", func() Operator { return Tanh{} })
	Register("sqrt", func() Operator { return Sqrt{} })
	Register("rsqrt", func() Operator { return Rsqrt{} })
	Register("add", func() Operator { return Add{} })
	Register("sub", func() Operator { return Sub{} })
	Register("mul", func() Operator { return Mul{} })
	Register("div", func() Operator { return Div{} })
	Register("pow", func() Operator { return Pow{} })
	Register("allocate", func() Operator { return Allocate{} })
	Register("load", func() Operator { return Load{} })
	Register("pass", func() Operator { return Pass{} })
	Register("nop", func() Operator { return Nop{} })
}
