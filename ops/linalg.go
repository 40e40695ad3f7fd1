package ops

import (
	"slices"

	"github.com/gomlx/exceptions"

	"github.com/tensorc/tensorc/types/shapes"
)

// Dot is a batched matrix multiplication over the last two axes. Leading
// (batch) axes must agree.
type Dot struct{}

func (op Dot) Name() string { return "dot" }

func (op Dot) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("dot", inputs).Has(2).SameType().SameRank()
	a, b := inputs[0], inputs[1]
	if a.Rank() < 2 {
		exceptions.Panicf("shape-mismatch: dot: inputs must have rank >= 2, got %s", a)
	}
	for axis := 0; axis < a.Rank()-2; axis++ {
		if a.Lens[axis] != b.Lens[axis] {
			exceptions.Panicf("shape-mismatch: dot: batch lengths disagree: %s vs %s", a, b)
		}
	}
	if a.Dim(-1) != b.Dim(-2) {
		exceptions.Panicf("shape-mismatch: dot: inner lengths disagree: %s vs %s", a, b)
	}
	lens := slices.Clone(a.Lens)
	lens[len(lens)-1] = b.Dim(-1)
	return a.WithLens(lens...)
}

// reduceShape keeps the rank, setting the reduced axes to length one.
func reduceShape(name string, axes []int, inputs []shapes.Shape) shapes.Shape {
	check(name, inputs).Has(1).Standard()
	in := inputs[0]
	lens := slices.Clone(in.Lens)
	for _, axis := range axes {
		axis = normalizeAxis(name, axis, in.Rank())
		lens[axis] = 1
	}
	return in.WithLens(lens...)
}

// ReduceSum sums over the given axes, keeping them with length one.
type ReduceSum struct {
	Axes []int
}

func (op ReduceSum) Name() string { return "reduce_sum" }

func (op ReduceSum) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return reduceShape("reduce_sum", op.Axes, inputs)
}

// ReduceMax takes the maximum over the given axes, keeping them with length
// one.
type ReduceMax struct {
	Axes []int
}

func (op ReduceMax) Name() string { return "reduce_max" }

func (op ReduceMax) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	return reduceShape("reduce_max", op.Axes, inputs)
}

// Softmax normalizes along one axis. Requires a single standard input and
// keeps its shape.
type Softmax struct {
	Axis int
}

func (op Softmax) Name() string { return "softmax" }

func (op Softmax) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("softmax", inputs).Has(1).Standard()
	normalizeAxis("softmax", op.Axis, inputs[0].Rank())
	return inputs[0].Clone()
}
