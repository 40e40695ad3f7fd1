// Package shapes defines Shape and associated tools.
//
// Shape represents the type of a tensor value flowing through a compiler
// program: the element type (DType), the lengths of each axis and the strides
// used to map a multi-dimensional index to a position in the underlying
// buffer. Strides are expressed in elements, not bytes.
//
// Contrary to most tensor libraries, strides are first-class here: passes
// reason about the layout of a value (standard, packed, broadcasted or
// transposed) to decide which rewrites are legal. The predicates are:
//
//   - Standard: strides are exactly the row-major strides of the lengths.
//   - Packed: the value occupies a gapless region, i.e. the number of
//     elements equals the element space spanned by the strides.
//   - Broadcasted: some axis with length > 1 has stride 0, so distinct
//     multi-indices map to the same element.
//   - Transposed: packed but not standard, the layout is a permutation of a
//     row-major layout.
//   - Scalar: all lengths are 1 (including the rank 0 case).
//
// DType is the enumeration defined in github.com/gomlx/gopjrt/dtypes. Go
// float16 support uses the github.com/x448/float16 implementation.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gopjrt/dtypes"
)

// Shape represents the type of a value in a program: element type, axis
// lengths and strides (in elements).
//
// Use Make or MakeWithStrides to create one. The zero value is invalid.
type Shape struct {
	DType   DType
	Lens    []int
	Strides []int
}

// Make returns a standard (row-major) Shape with the given lengths.
func Make(dtype DType, lens ...int) Shape {
	for _, len_ := range lens {
		if len_ < 0 {
			exceptions.Panicf("shapes.Make(%s, %v): axes lengths cannot be negative", dtype, lens)
		}
	}
	return Shape{DType: dtype, Lens: slices.Clone(lens), Strides: RowMajorStrides(lens)}
}

// MakeWithStrides returns a Shape with explicit strides. It panics if lens
// and strides disagree in length.
func MakeWithStrides(dtype DType, lens, strides []int) Shape {
	if len(lens) != len(strides) {
		exceptions.Panicf("shapes.MakeWithStrides(%s): %d lens but %d strides", dtype, len(lens), len(strides))
	}
	for _, len_ := range lens {
		if len_ < 0 {
			exceptions.Panicf("shapes.MakeWithStrides(%s, %v, %v): axes lengths cannot be negative", dtype, lens, strides)
		}
	}
	return Shape{DType: dtype, Lens: slices.Clone(lens), Strides: slices.Clone(strides)}
}

// Scalar returns a rank 0 shape for the given Go type.
func Scalar[T Number]() Shape {
	return Shape{DType: FromGenericsType[T]()}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: InvalidDType}
}

// RowMajorStrides returns the strides of a standard row-major layout over
// the given lengths. The last axis has stride 1.
func RowMajorStrides(lens []int) []int {
	strides := make([]int, len(lens))
	stride := 1
	for axis := len(lens) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= lens[axis]
	}
	return strides
}

// Ok returns whether this is a valid Shape. The zero Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Lens) }

// Dim returns the length of the given axis. Negative axes count from the
// end, so Dim(-1) is the last axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Lens[adjustedAxis]
}

// Elements returns the number of elements addressed by the shape, the
// product of all lengths.
func (s Shape) Elements() (count int) {
	count = 1
	for _, len_ := range s.Lens {
		count *= len_
	}
	return
}

// ElementSpace returns the size in elements of the smallest buffer the shape
// can address, 1 + sum of (len-1)*stride. Zero if any axis has length 0.
func (s Shape) ElementSpace() int {
	space := 1
	for axis, len_ := range s.Lens {
		if len_ == 0 {
			return 0
		}
		space += (len_ - 1) * s.Strides[axis]
	}
	return space
}

// Bytes returns the memory needed to store a packed value of this shape.
func (s Shape) Bytes() int {
	return s.Elements() * int(s.DType.Memory())
}

// IsStandard returns whether the strides are exactly the row-major strides
// of the lengths.
func (s Shape) IsStandard() bool {
	return s.Ok() && slices.Equal(s.Strides, RowMajorStrides(s.Lens))
}

// IsPacked returns whether the shape addresses a gapless region, that is its
// element count equals its element space.
func (s Shape) IsPacked() bool {
	return s.Ok() && s.Elements() == s.ElementSpace()
}

// IsBroadcasted returns whether some axis with length > 1 has stride 0.
func (s Shape) IsBroadcasted() bool {
	for axis, stride := range s.Strides {
		if stride == 0 && s.Lens[axis] > 1 {
			return true
		}
	}
	return false
}

// IsTransposed returns whether the shape is packed but not standard.
func (s Shape) IsTransposed() bool {
	return s.IsPacked() && !s.IsStandard()
}

// IsScalar returns whether all axes have length 1, including the rank 0 case.
func (s Shape) IsScalar() bool {
	if !s.Ok() {
		return false
	}
	for _, len_ := range s.Lens {
		if len_ != 1 {
			return false
		}
	}
	return true
}

// Index maps a multi-dimensional index to the linear position in the
// underlying buffer, the dot product of the index with the strides.
func (s Shape) Index(multi []int) int {
	if len(multi) != s.Rank() {
		exceptions.Panicf("Shape.Index: index of rank %d given to shape %s", len(multi), s)
	}
	linear := 0
	for axis, m := range multi {
		if m < 0 || m >= s.Lens[axis] {
			exceptions.Panicf("Shape.Index: index %v out-of-bounds for shape %s at axis %d", multi, s, axis)
		}
		linear += m * s.Strides[axis]
	}
	return linear
}

// Multi is the inverse of Index for standard shapes: it maps a position in
// the logical row-major order back to a multi-dimensional index. For
// non-standard shapes it still walks the logical row-major order, so
// s.Index(s.Multi(i)) dereferences element i of the logical ordering.
func (s Shape) Multi(linear int) []int {
	multi := make([]int, s.Rank())
	for axis := s.Rank() - 1; axis >= 0; axis-- {
		if s.Lens[axis] == 0 {
			exceptions.Panicf("Shape.Multi(%d): shape %s has no elements", linear, s)
		}
		multi[axis] = linear % s.Lens[axis]
		linear /= s.Lens[axis]
	}
	return multi
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements stringer, pretty-prints the shape. The strides suffix is
// omitted for standard layouts.
func (s Shape) String() string {
	if !s.Ok() {
		return "(invalid)"
	}
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	if s.IsStandard() {
		return fmt.Sprintf("(%s)%v", s.DType, s.Lens)
	}
	return fmt.Sprintf("(%s)%v@%v", s.DType, s.Lens, s.Strides)
}

// Equal compares two shapes for equality: dtype, lengths and strides.
func (s Shape) Equal(s2 Shape) bool {
	return s.DType == s2.DType && slices.Equal(s.Lens, s2.Lens) && slices.Equal(s.Strides, s2.Strides)
}

// EqualDimensions compares the lengths only. DTypes and strides can differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Lens, s2.Lens)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Lens: slices.Clone(s.Lens), Strides: slices.Clone(s.Strides)}
}

// WithLens returns a standard shape with the same dtype and the given lengths.
func (s Shape) WithLens(lens ...int) Shape {
	return Make(s.DType, lens...)
}

// Normalize returns the standard shape with the same dtype and lengths,
// discarding any non-standard strides.
func (s Shape) Normalize() Shape {
	return Make(s.DType, s.Lens...)
}

// HasShape is an interface for objects that have an associated Shape.
type HasShape interface {
	Shape() Shape
}

// Permute returns the shape viewed through the given axes permutation:
// output axis i has the length and stride of input axis perm[i].
func (s Shape) Permute(perm []int) Shape {
	if len(perm) != s.Rank() {
		exceptions.Panicf("Shape.Permute(%v): permutation rank does not match shape %s", perm, s)
	}
	if !IsPermutation(perm) {
		exceptions.Panicf("Shape.Permute(%v): not a permutation of [0,%d)", perm, s.Rank())
	}
	lens := make([]int, s.Rank())
	strides := make([]int, s.Rank())
	for axis, src := range perm {
		lens[axis] = s.Lens[src]
		strides[axis] = s.Strides[src]
	}
	return Shape{DType: s.DType, Lens: lens, Strides: strides}
}

// IsPermutation returns whether perm contains each value in [0, len(perm))
// exactly once.
func IsPermutation(perm []int) bool {
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// InvertPermutation returns the permutation q such that q[perm[i]] == i.
func InvertPermutation(perm []int) []int {
	inverse := make([]int, len(perm))
	for axis, p := range perm {
		inverse[p] = axis
	}
	return inverse
}

// FindPermutation returns the permutation that, applied with Permute to this
// shape, orders its axes by decreasing stride, so a transposed shape comes
// out standard. Axes with equal strides are ordered by decreasing length,
// then by axis.
func (s Shape) FindPermutation() []int {
	perm := make([]int, s.Rank())
	for axis := range perm {
		perm[axis] = axis
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		if s.Strides[a] != s.Strides[b] {
			return s.Strides[b] - s.Strides[a]
		}
		return s.Lens[b] - s.Lens[a]
	})
	return perm
}

// ReorderDims applies the permutation to a list of axis values: output
// position i receives dims[perm[i]].
func ReorderDims(perm, dims []int) []int {
	if len(perm) != len(dims) {
		exceptions.Panicf("shapes.ReorderDims: %d perm entries but %d dims", len(perm), len(dims))
	}
	out := make([]int, len(dims))
	for axis, p := range perm {
		out[axis] = dims[p]
	}
	return out
}

// ConcatShapes returns the shapes joined in a pretty-printed list, used in
// error messages.
func ConcatShapes(shapes []Shape) string {
	parts := make([]string, 0, len(shapes))
	for _, shape := range shapes {
		parts = append(parts, shape.String())
	}
	return strings.Join(parts, ", ")
}
