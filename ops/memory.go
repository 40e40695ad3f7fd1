package ops

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// Allocate stands for a transient buffer of the given shape. It takes no
// inputs; the lowering passes (eliminate-allocation or memory coloring)
// rewrite it into a view of a fused buffer.
type Allocate struct {
	Shape shapes.Shape
}

func (op Allocate) Name() string { return "allocate" }

func (op Allocate) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("allocate", inputs).Has(0)
	return op.Shape.Clone()
}

func (op Allocate) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return arguments.New(outShape)
}

// Load is a typed view into a byte buffer at a fixed offset. Its output
// aliases the buffer input.
type Load struct {
	Shape  shapes.Shape
	Offset int
}

func (op Load) Name() string { return "load" }

func (op Load) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("load", inputs).Has(1)
	buffer := inputs[0]
	if op.Offset < 0 || op.Offset+op.Shape.Bytes() > buffer.Bytes() {
		exceptions.Panicf("shape-mismatch: load: view %s at offset %d overruns buffer %s of %d bytes",
			op.Shape, op.Offset, buffer, buffer.Bytes())
	}
	return op.Shape.Clone()
}

func (op Load) OutputAlias(inputs []shapes.Shape) int { return 0 }

func (op Load) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return inputs[0].Sub(op.Offset, outShape)
}

// Pass forwards its first input and writes in place, a stand-in for lowered
// kernels that consume the remaining inputs as workspace.
type Pass struct{}

func (op Pass) Name() string { return "pass" }

func (op Pass) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("pass", inputs).HasAtLeast(1)
	return inputs[0].Clone()
}

func (op Pass) OutputAlias(inputs []shapes.Shape) int { return 0 }

// Nop orders its inputs without reading them; it produces a scalar token and
// takes part in neither liveness nor scheduling.
type Nop struct{}

func (op Nop) Name() string { return "nop" }

func (op Nop) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return shapes.Make(dtypes.Float32)
}
