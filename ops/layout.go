package ops

import (
	"slices"

	"github.com/gomlx/exceptions"

	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// Transpose permutes the axes of its input. The result is a view: lengths
// and strides are permuted, the buffer is untouched.
type Transpose struct {
	Perm []int
}

func (op Transpose) Name() string { return "transpose" }

func (op Transpose) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("transpose", inputs).Has(1)
	in := inputs[0]
	if len(op.Perm) != in.Rank() || !shapes.IsPermutation(op.Perm) {
		exceptions.Panicf("shape-mismatch: transpose: %v is not a permutation of the %d axes of %s", op.Perm, in.Rank(), in)
	}
	return in.Permute(op.Perm)
}

func (op Transpose) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return arguments.NewFromBytes(outShape, inputs[0].Bytes())
}

// Contiguous materializes any layout into a standard row-major buffer.
type Contiguous struct{}

func (op Contiguous) Name() string { return "contiguous" }

func (op Contiguous) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("contiguous", inputs).Has(1)
	return inputs[0].Normalize()
}

func (op Contiguous) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return inputs[0].Contiguous()
}

// Reshape reinterprets a packed input with new lengths. One entry of Dims
// may be -1, its value is inferred from the element count.
type Reshape struct {
	Dims []int
}

func (op Reshape) Name() string { return "reshape" }

func (op Reshape) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("reshape", inputs).Has(1).Packed()
	in := inputs[0]
	lens := slices.Clone(op.Dims)
	wildcard := -1
	known := 1
	for axis, len_ := range lens {
		if len_ == -1 {
			if wildcard >= 0 {
				exceptions.Panicf("shape-mismatch: reshape: only one -1 length allowed, got %v", op.Dims)
			}
			wildcard = axis
			continue
		}
		if len_ < 0 {
			exceptions.Panicf("shape-mismatch: reshape: invalid lengths %v", op.Dims)
		}
		known *= len_
	}
	if wildcard >= 0 {
		if known == 0 || in.Elements()%known != 0 {
			exceptions.Panicf("shape-mismatch: reshape: cannot infer -1 in %v from %s", op.Dims, in)
		}
		lens[wildcard] = in.Elements() / known
		known *= lens[wildcard]
	}
	if known != in.Elements() {
		exceptions.Panicf("shape-mismatch: reshape: %v has %d elements, input %s has %d", op.Dims, known, in, in.Elements())
	}
	return in.WithLens(lens...)
}

func (op Reshape) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return arguments.NewFromBytes(outShape, inputs[0].Contiguous().Bytes())
}

// Squeeze removes axes of length one. With no axes given, every length-one
// axis is removed.
type Squeeze struct {
	Axes []int
}

func (op Squeeze) Name() string { return "squeeze" }

func (op Squeeze) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("squeeze", inputs).Has(1).Packed()
	in := inputs[0]
	drop := make(map[int]bool, len(op.Axes))
	for _, axis := range op.Axes {
		axis = normalizeAxis("squeeze", axis, in.Rank())
		if in.Lens[axis] != 1 {
			exceptions.Panicf("shape-mismatch: squeeze: axis %d of %s has length %d", axis, in, in.Lens[axis])
		}
		drop[axis] = true
	}
	var lens []int
	for axis, len_ := range in.Lens {
		if drop[axis] || (len(op.Axes) == 0 && len_ == 1) {
			continue
		}
		lens = append(lens, len_)
	}
	return in.WithLens(lens...)
}

func (op Squeeze) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return arguments.NewFromBytes(outShape, inputs[0].Contiguous().Bytes())
}

// Unsqueeze inserts axes of length one at the given positions of the output.
type Unsqueeze struct {
	Axes []int
}

func (op Unsqueeze) Name() string { return "unsqueeze" }

func (op Unsqueeze) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("unsqueeze", inputs).Has(1).Packed()
	in := inputs[0]
	outRank := in.Rank() + len(op.Axes)
	insert := make(map[int]bool, len(op.Axes))
	for _, axis := range op.Axes {
		axis = normalizeAxis("unsqueeze", axis, outRank)
		if insert[axis] {
			exceptions.Panicf("shape-mismatch: unsqueeze: duplicate axis in %v", op.Axes)
		}
		insert[axis] = true
	}
	lens := make([]int, 0, outRank)
	next := 0
	for axis := 0; axis < outRank; axis++ {
		if insert[axis] {
			lens = append(lens, 1)
			continue
		}
		lens = append(lens, in.Lens[next])
		next++
	}
	return in.WithLens(lens...)
}

func (op Unsqueeze) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return arguments.NewFromBytes(outShape, inputs[0].Contiguous().Bytes())
}

// Slice restricts the given axes to [start, end). The result is a view with
// the input's strides, so it is generally not packed.
type Slice struct {
	Axes   []int
	Starts []int
	Ends   []int
}

func (op Slice) Name() string { return "slice" }

func (op Slice) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("slice", inputs).Has(1)
	in := inputs[0]
	if len(op.Axes) != len(op.Starts) || len(op.Axes) != len(op.Ends) {
		exceptions.Panicf("shape-mismatch: slice: axes, starts and ends must have the same length")
	}
	lens := slices.Clone(in.Lens)
	for ii, axis := range op.Axes {
		axis = normalizeAxis("slice", axis, in.Rank())
		start, end := op.Starts[ii], op.Ends[ii]
		if start < 0 || end > in.Lens[axis] || start > end {
			exceptions.Panicf("shape-mismatch: slice: range [%d,%d) out of bounds for axis %d of %s", start, end, axis, in)
		}
		lens[axis] = end - start
	}
	return shapes.MakeWithStrides(in.DType, lens, in.Strides)
}

func (op Slice) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	in := inputs[0]
	offset := 0
	for ii, axis := range op.Axes {
		axis = normalizeAxis("slice", axis, in.Shape().Rank())
		offset += op.Starts[ii] * in.Shape().Strides[axis]
	}
	offset *= int(in.DType().Memory())
	return arguments.NewFromBytes(outShape, in.Bytes()[offset:])
}

// Concat joins inputs along one axis. All inputs must agree on dtype, rank
// and every other axis length; the output is standard.
type Concat struct {
	Axis int
}

func (op Concat) Name() string { return "concat" }

func (op Concat) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("concat", inputs).HasAtLeast(1).SameType().SameRank()
	first := inputs[0]
	axis := normalizeAxis("concat", op.Axis, first.Rank())
	lens := slices.Clone(first.Lens)
	for _, in := range inputs[1:] {
		for other := range lens {
			if other != axis && in.Lens[other] != first.Lens[other] {
				exceptions.Panicf("shape-mismatch: concat: lengths disagree off axis %d: %s", axis, shapes.ConcatShapes(inputs))
			}
		}
		lens[axis] += in.Lens[axis]
	}
	return first.WithLens(lens...)
}

// Identity forwards its input unchanged, including the layout.
type Identity struct{}

func (op Identity) Name() string { return "identity" }

func (op Identity) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	check("identity", inputs).Has(1)
	return inputs[0].Clone()
}

func (op Identity) Compute(outShape shapes.Shape, inputs []*arguments.Argument) *arguments.Argument {
	return arguments.NewFromBytes(outShape, inputs[0].Bytes())
}
