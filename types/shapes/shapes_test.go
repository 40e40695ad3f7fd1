package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, []int{2, 3}, s.Lens)
	assert.Equal(t, []int{3, 1}, s.Strides)
	assert.Equal(t, 6, s.Elements())
	assert.Equal(t, 24, s.Bytes())
	assert.Equal(t, 3, s.Dim(1))
	assert.Equal(t, 3, s.Dim(-1))
	assert.Equal(t, "(Float32)[2 3]", s.String())

	assert.True(t, Make(dtypes.Int8).IsScalar())
	assert.False(t, Invalid().Ok())
	assert.Panics(t, func() { Make(dtypes.Float32, -1) })
	assert.Panics(t, func() { MakeWithStrides(dtypes.Float32, []int{2, 3}, []int{1}) })
}

func TestPredicates(t *testing.T) {
	std := Make(dtypes.Float32, 2, 3)
	assert.True(t, std.IsStandard())
	assert.True(t, std.IsPacked())
	assert.False(t, std.IsTransposed())
	assert.False(t, std.IsBroadcasted())

	transposed := std.Permute([]int{1, 0})
	assert.Equal(t, []int{3, 2}, transposed.Lens)
	assert.Equal(t, []int{1, 3}, transposed.Strides)
	assert.False(t, transposed.IsStandard())
	assert.True(t, transposed.IsPacked())
	assert.True(t, transposed.IsTransposed())

	broadcasted := MakeWithStrides(dtypes.Float32, []int{2, 3}, []int{0, 1})
	assert.True(t, broadcasted.IsBroadcasted())
	assert.False(t, broadcasted.IsPacked())
	assert.False(t, broadcasted.IsTransposed())

	sliced := MakeWithStrides(dtypes.Float32, []int{2, 2}, []int{3, 1})
	assert.False(t, sliced.IsPacked())
	assert.False(t, sliced.IsStandard())

	scalarish := Make(dtypes.Float32, 1, 1)
	assert.True(t, scalarish.IsScalar())
}

func TestIndexAndMulti(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	assert.Equal(t, 0, s.Index([]int{0, 0}))
	assert.Equal(t, 5, s.Index([]int{1, 2}))
	assert.Equal(t, []int{1, 2}, s.Multi(5))
	for linear := 0; linear < s.Elements(); linear++ {
		assert.Equal(t, linear, s.Index(s.Multi(linear)))
	}
	assert.Panics(t, func() { s.Index([]int{0}) })
	assert.Panics(t, func() { s.Index([]int{2, 0}) })

	// For a transposed view, Index(Multi(i)) walks the logical order through
	// the permuted strides.
	tr := s.Permute([]int{1, 0})
	assert.Equal(t, 3, tr.Index(tr.Multi(1)))
}

func TestEqualAndClone(t *testing.T) {
	a := Make(dtypes.Float32, 2, 3)
	b := Make(dtypes.Float32, 2, 3)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Make(dtypes.Float64, 2, 3)))
	assert.False(t, a.Equal(a.Permute([]int{1, 0})))
	assert.True(t, a.EqualDimensions(Make(dtypes.Int32, 2, 3)))

	c := a.Clone()
	c.Lens[0] = 7
	assert.Equal(t, 2, a.Lens[0])

	tr := a.Permute([]int{1, 0})
	assert.True(t, tr.Normalize().Equal(Make(dtypes.Float32, 3, 2)))
}

func TestElementSpace(t *testing.T) {
	assert.Equal(t, 6, Make(dtypes.Float32, 2, 3).ElementSpace())
	sliced := MakeWithStrides(dtypes.Float32, []int{2, 2}, []int{3, 1})
	assert.Equal(t, 5, sliced.ElementSpace())
	empty := Make(dtypes.Float32, 0, 3)
	assert.Equal(t, 0, empty.ElementSpace())
	assert.True(t, empty.IsPacked())
}

func TestPermutations(t *testing.T) {
	require.True(t, IsPermutation([]int{2, 0, 1}))
	require.False(t, IsPermutation([]int{0, 0, 1}))
	require.False(t, IsPermutation([]int{0, 3}))

	assert.Equal(t, []int{1, 2, 0}, InvertPermutation([]int{2, 0, 1}))

	s := Make(dtypes.Float32, 2, 3, 4)
	perm := []int{2, 0, 1}
	permuted := s.Permute(perm)
	assert.Equal(t, []int{4, 2, 3}, permuted.Lens)
	// FindPermutation recovers the layout permutation of the transposed view.
	assert.Equal(t, []int{1, 2, 0}, permuted.FindPermutation())
	assert.Equal(t, []int{0, 1, 2}, s.FindPermutation())

	assert.Equal(t, []int{30, 10, 20}, ReorderDims([]int{2, 0, 1}, []int{10, 20, 30}))
}
