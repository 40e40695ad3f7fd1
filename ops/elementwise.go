package ops

import (
	"math"

	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// unaryShape is the shape rule shared by all unary elementwise operators: a
// packed input keeps its layout (the kernel writes through the same
// strides), any other layout produces a standard output.
func unaryShape(name string, inputs []shapes.Shape) shapes.Shape {
	check(name, inputs).Has(1)
	in := inputs[0]
	if in.IsPacked() {
		return in.Clone()
	}
	return in.Normalize()
}

func unaryCompute(outShape shapes.Shape, in *arguments.Argument, fn func(float64) float64) *arguments.Argument {
	out := arguments.New(outShape)
	for linear := 0; linear < outShape.Elements(); linear++ {
		multi := in.Shape().Multi(linear)
		arguments.Set(out, fn(arguments.At[float64](in, multi...)), outShape.Multi(linear)...)
	}
	return out
}

func binaryShape(name string, inputs []shapes.Shape) shapes.Shape {
	check(name, inputs).Has(2).SameType().SameDims()
	return inputs[0].Normalize()
}

func binaryCompute(outShape shapes.Shape, inputs []*arguments.Argument, fn func(a, b float64) float64) *arguments.Argument {
	out := arguments.New(outShape)
	for linear := 0; linear < outShape.Elements(); linear++ {
		multi := outShape.Multi(linear)
		a := arguments.At[float64](inputs[0], inputs[0].Shape().Multi(linear)...)
		b := arguments.At[float64](inputs[1], inputs[1].Shape().Multi(linear)...)
		arguments.Set(out, fn(a, b), multi...)
	}
	return out
}

type Sin struct{}

func (op Sin) Name() string { return "sin" }
func (op Sin) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("sin", inputs)
}
func (op Sin) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Sin)
}

type Cos struct{}

func (op Cos) Name() string { return "cos" }
func (op Cos) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("cos", inputs)
}
func (op Cos) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Cos)
}

type Exp struct{}

func (op Exp) Name() string { return "exp" }
func (op Exp) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("exp", inputs)
}
func (op Exp) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Exp)
}

type Log struct{}

func (op Log) Name() string { return "log" }
func (op Log) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("log", inputs)
}
func (op Log) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Log)
}

type Abs struct{}

func (op Abs) Name() string { return "abs" }
func (op Abs) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("abs", inputs)
}
func (op Abs) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Abs)
}

type Neg struct{}

func (op Neg) Name() string { return "neg" }
func (op Neg) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("neg", inputs)
}
func (op Neg) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], func(v float64) float64 { return -v })
}

type Tanh struct{}

func (op Tanh) Name() string { return "tanh" }
func (op Tanh) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("tanh", inputs)
}
func (op Tanh) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Tanh)
}

type Sqrt struct{}

func (op Sqrt) Name() string { return "sqrt" }
func (op Sqrt) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("sqrt", inputs)
}
func (op Sqrt) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], math.Sqrt)
}

type Rsqrt struct{}

func (op Rsqrt) Name() string { return "rsqrt" }
func (op Rsqrt) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return unaryShape("rsqrt", inputs)
}
func (op Rsqrt) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return unaryCompute(outShape, inputs[0], func(v float64) float64 { return 1 / math.Sqrt(v) })
}

type Add struct{}

func (op Add) Name() string { return "add" }
func (op Add) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return binaryShape("add", inputs)
}
func (op Add) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return binaryCompute(outShape, inputs, func(a, b float64) float64 { return a + b })
}

type Sub struct{}

func (op Sub) Name() string { return "sub" }
func (op Sub) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return binaryShape("sub", inputs)
}
func (op Sub) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return binaryCompute(outShape, inputs, func(a, b float64) float64 { return a - b })
}

type Mul struct{}

func (op Mul) Name() string { return "mul" }
func (op Mul) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return binaryShape("mul", inputs)
}
func (op Mul) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return binaryCompute(outShape, inputs, func(a, b float64) float64 { return a * b })
}

type Div struct{}

func (op Div) Name() string { return "div" }
func (op Div) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return binaryShape("div", inputs)
}
func (op Div) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return binaryCompute(outShape, inputs, func(a, b float64) float64 { return a / b })
}

type Pow struct{}

func (op Pow) Name() string { return "pow" }
func (op Pow) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return binaryShape("pow", inputs)
}
func (op Pow) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return binaryCompute(outShape, inputs, math.Pow)
}
