// Package ops provides the concrete operator library: layout operators
// (transpose, contiguous, reshape, slice, concat), elementwise math, linear
// algebra, reductions and the memory operators (allocate, load) that the
// lowering passes introduce.
//
// Every operator is a small value struct whose exported fields are its
// attributes; equality and printing go through reflection (see ir.OpEqual
// and ir.OpString). Operators validate their inputs in ComputeShape through
// the fluent checker in this file, raising shape-mismatch errors.
package ops

import (
	"github.com/gomlx/exceptions"

	"github.com/tensorc/tensorc/types/shapes"
)

// checker accumulates input validations for one operator. Every method
// panics with a shape-mismatch error on violation and returns the checker so
// calls chain.
type checker struct {
	name   string
	inputs []shapes.Shape
}

func check(name string, inputs []shapes.Shape) *checker {
	return &checker{name: name, inputs: inputs}
}

func (c *checker) fail(format string, args ...any) {
	args = append([]any{c.name, shapes.ConcatShapes(c.inputs)}, args...)
	exceptions.Panicf("shape-mismatch: %s(%s): "+format, args...)
}

// Has checks the exact number of inputs.
func (c *checker) Has(n int) *checker {
	if len(c.inputs) != n {
		c.fail("expected %d inputs, got %d", n, len(c.inputs))
	}
	return c
}

// HasAtLeast checks a minimum number of inputs.
func (c *checker) HasAtLeast(n int) *checker {
	if len(c.inputs) < n {
		c.fail("expected at least %d inputs, got %d", n, len(c.inputs))
	}
	return c
}

// SameType checks all inputs share one element type.
func (c *checker) SameType() *checker {
	for _, s := range c.inputs[1:] {
		if s.DType != c.inputs[0].DType {
			c.fail("inputs must have the same element type")
		}
	}
	return c
}

// SameDims checks all inputs share the same lengths.
func (c *checker) SameDims() *checker {
	for _, s := range c.inputs[1:] {
		if !s.EqualDimensions(c.inputs[0]) {
			c.fail("inputs must have the same lengths")
		}
	}
	return c
}

// SameRank checks all inputs share the same rank.
func (c *checker) SameRank() *checker {
	for _, s := range c.inputs[1:] {
		if s.Rank() != c.inputs[0].Rank() {
			c.fail("inputs must have the same rank")
		}
	}
	return c
}

// Standard checks every input has a standard row-major layout.
func (c *checker) Standard() *checker {
	for _, s := range c.inputs {
		if !s.IsStandard() {
			c.fail("inputs must have a standard layout")
		}
	}
	return c
}

// Packed checks every input is packed.
func (c *checker) Packed() *checker {
	for _, s := range c.inputs {
		if !s.IsPacked() {
			c.fail("inputs must be packed")
		}
	}
	return c
}

func normalizeAxis(name string, axis, rank int) int {
	adjusted := axis
	if adjusted < 0 {
		adjusted += rank
	}
	if adjusted < 0 || adjusted >= rank {
		exceptions.Panicf("shape-mismatch: %s: axis %d out of range for rank %d", name, axis, rank)
	}
	return adjusted
}
