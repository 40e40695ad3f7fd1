package passes_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/passes"
)

func TestStackAllocations(t *testing.T) {
	cases := []struct {
		sizes     []int
		alignment int
		want      int
	}{
		{[]int{8, 40, 200}, 32, 992},
		{[]int{1, 2, 200}, 32, 864},
		{[]int{1, 2, 200}, 1, 812},
		{[]int{1, 2, 200}, 4, 812},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("sizes=%v/align=%d", tc.sizes, tc.alignment), func(t *testing.T) {
			p := buildAllocChain(tc.sizes...)
			passes.EliminateAllocation{Alignment: tc.alignment}.Apply(p)

			require.NoError(t, p.Validate())
			requireNoAllocate(t, p)
			assert.Equal(t, tc.want, p.Parameter("memory").Shape().Bytes())
			assert.True(t, p.Terminal().Shape().Equal(f32(tc.sizes[len(tc.sizes)-1])))
		})
	}
}

func TestStackOffsets(t *testing.T) {
	p := buildAllocChain(1, 2, 200)
	passes.EliminateAllocation{Alignment: 32}.Apply(p)
	require.NoError(t, p.Validate())

	var offsets []int
	for _, ins := range p.Instructions() {
		if load, ok := ins.Op().(ops.Load); ok {
			offsets = append(offsets, load.Offset)
		}
	}
	assert.Empty(t, cmp.Diff([]int{0, 32, 64}, offsets))
}

func TestStackNothingToDo(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(4))
	p.AddInstruction(ops.Sin{}, x)
	before := p.String()

	passes.EliminateAllocation{}.Apply(p)
	assert.Equal(t, before, p.String())
	assert.False(t, p.HasParameter("memory"))
}
