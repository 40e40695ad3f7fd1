package ir_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

func f32(lens ...int) shapes.Shape { return shapes.Make(dtypes.Float32, lens...) }

func TestBuildProgram(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 3))
	tr := p.AddInstruction(ops.Transpose{Perm: []int{1, 0}}, x)
	c := p.AddInstruction(ops.Contiguous{}, tr)

	require.NoError(t, p.Validate())
	assert.Equal(t, 3, p.NumInstructions())
	assert.Same(t, c, p.Terminal())
	assert.Equal(t, 0, p.Position(x))
	assert.True(t, tr.Shape().IsTransposed())
	assert.True(t, c.Shape().Equal(f32(3, 2)))
	assert.Equal(t, []*ir.Instruction{tr}, x.Outputs())
	assert.Same(t, x, p.Parameter("x"))
	assert.Panics(t, func() { p.Parameter("y") })
	assert.Panics(t, func() { p.AddParameter("x", f32(1)) })
}

func TestLiteralsInsertAtFront(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2))
	lit := p.AddLiteral(arguments.LiteralFromFlat(f32(2), []float32{1, 2}))
	sum := p.AddInstruction(ops.Add{}, x, lit)

	require.NoError(t, p.Validate())
	assert.Equal(t, 0, p.Position(lit))
	assert.Equal(t, 1, p.Position(x))
	assert.True(t, lit.IsLiteral())
	assert.Len(t, p.Literals(), 1)
	assert.Same(t, sum, p.Terminal())
}

func TestInsertAndMove(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 2))
	s := p.AddInstruction(ops.Sin{}, x)
	terminal := p.AddInstruction(ops.Neg{}, s)

	inserted := p.InsertInstruction(terminal, ops.Abs{}, s)
	require.NoError(t, p.Validate())
	assert.Equal(t, 2, p.Position(inserted))
	assert.Panics(t, func() { p.InsertInstruction(s, ops.Abs{}, terminal) })

	p.MoveInstruction(inserted, terminal)
	require.NoError(t, p.Validate())
	assert.Panics(t, func() { p.MoveInstruction(terminal, s) })
}

func TestReplaceInstruction(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 2))
	tr := p.AddInstruction(ops.Transpose{Perm: []int{1, 0}}, x)
	c := p.AddInstruction(ops.Contiguous{}, tr)
	terminal := p.AddInstruction(ops.Sin{}, c)

	p.ReplaceInstruction(c, tr)
	require.NoError(t, p.Validate())
	assert.Equal(t, []*ir.Instruction{tr}, terminal.Inputs())
	assert.Empty(t, c.Outputs())

	// Replacing with a dependent instruction would create a cycle.
	assert.Panics(t, func() { p.ReplaceInstruction(tr, terminal) })

	p.RemoveInstruction(c)
	require.NoError(t, p.Validate())
	assert.Equal(t, 3, p.NumInstructions())
	assert.Panics(t, func() { p.RemoveInstruction(tr) })
}

func TestShapeMismatchSurfacesAtMutation(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 3))
	y := p.AddParameter("y", f32(3, 3))
	assert.Panics(t, func() { p.AddInstruction(ops.Add{}, x, y) })
	assert.Equal(t, 2, p.NumInstructions())
}

func TestOpEqualAndString(t *testing.T) {
	assert.True(t, ir.OpEqual(ops.Transpose{Perm: []int{1, 0}}, ops.Transpose{Perm: []int{1, 0}}))
	assert.False(t, ir.OpEqual(ops.Transpose{Perm: []int{1, 0}}, ops.Transpose{Perm: []int{0, 1}}))
	assert.False(t, ir.OpEqual(ops.Contiguous{}, ops.Identity{}))

	assert.Equal(t, "transpose[perm=[1 0]]", ir.OpString(ops.Transpose{Perm: []int{1, 0}}))
	assert.Equal(t, "contiguous", ir.OpString(ops.Contiguous{}))
	assert.Equal(t, "concat[axis=2]", ir.OpString(ops.Concat{Axis: 2}))
}

func TestProgramString(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 2))
	tr := p.AddInstruction(ops.Transpose{Perm: []int{1, 0}}, x)
	_ = tr
	text := p.String()
	assert.Contains(t, text, "0 = @param[name=x] -> (Float32)[2 2]")
	assert.Contains(t, text, "1 = transpose[perm=[1 0]](0) -> (Float32)[2 2]@[1 2]")
}

func TestEval(t *testing.T) {
	p := ir.NewProgram()
	lit := p.AddLiteral(arguments.LiteralFromFlat(f32(2, 2), []float32{0, 1, 2, 3}))
	tr := p.AddInstruction(ops.Transpose{Perm: []int{1, 0}}, lit)
	c := p.AddInstruction(ops.Contiguous{}, tr)

	require.True(t, c.CanEval())
	out := c.Eval()
	assert.True(t, out.Shape().Equal(f32(2, 2)))
	assert.Equal(t, float32(2), arguments.At[float32](out, 0, 1))

	p2 := ir.NewProgram()
	x := p2.AddParameter("x", f32(2, 2))
	s := p2.AddInstruction(ops.Sin{}, x)
	assert.False(t, s.CanEval())
	assert.Panics(t, func() { s.Eval() })

	p3 := ir.NewProgram()
	l3 := p3.AddLiteral(arguments.LiteralFromFlat(f32(2, 2), []float32{0, 1, 2, 3}))
	d := p3.AddInstruction(ops.Dot{}, l3, l3)
	assert.False(t, d.CanEval())
	assert.Panics(t, func() { d.Eval() })
}

func TestAliasRoot(t *testing.T) {
	p := ir.NewProgram()
	scratch := p.AddParameter("scratch", shapes.Make(dtypes.Int8, 64))
	load := p.AddInstruction(ops.Load{Shape: f32(2, 2), Offset: 0}, scratch)
	passed := p.AddInstruction(ops.Pass{}, load)
	other := p.AddInstruction(ops.Sin{}, passed)

	assert.Same(t, scratch, load.AliasRoot())
	assert.Same(t, scratch, passed.AliasRoot())
	assert.Same(t, other, other.AliasRoot())
}

func TestStreamsAndEvents(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2))
	s := p.AddInstruction(ops.Sin{}, x)
	assert.Equal(t, ir.NoStream, s.Stream())
	s.SetStream(2)
	s.SetRecordEvent()
	s.SetWaitEvent()
	assert.Equal(t, 2, s.Stream())
	assert.True(t, s.RecordsEvent())
	assert.True(t, s.WaitsEvent())
}

func TestClone(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 2))
	tr := p.AddInstruction(ops.Transpose{Perm: []int{1, 0}}, x)
	tr.SetStream(1)
	p.AddInstruction(ops.Contiguous{}, tr)

	clone := p.Clone()
	require.NoError(t, clone.Validate())
	assert.Equal(t, p.String(), clone.String())
	assert.Equal(t, 1, clone.Instructions()[1].Stream())

	// Mutating the clone leaves the original untouched.
	clone.AddInstruction(ops.Sin{}, clone.Terminal())
	assert.Equal(t, 3, p.NumInstructions())
	assert.Equal(t, 4, clone.NumInstructions())
}
