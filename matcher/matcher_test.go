package matcher_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/matcher"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/types/shapes"
)

func f32(lens ...int) shapes.Shape { return shapes.Make(dtypes.Float32, lens...) }

// buildChain returns a program x -> transpose -> contiguous -> sin.
func buildChain(t *testing.T) (*ir.Program, []*ir.Instruction) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 3))
	tr := p.AddInstruction(ops.Transpose{Perm: []int{1, 0}}, x)
	c := p.AddInstruction(ops.Contiguous{}, tr)
	s := p.AddInstruction(ops.Sin{}, c)
	require.NoError(t, p.Validate())
	return p, []*ir.Instruction{x, tr, c, s}
}

func matches(m matcher.Matcher, ins *ir.Instruction) bool {
	_, ok := matcher.Match(m, ins)
	return ok
}

func TestName(t *testing.T) {
	_, chain := buildChain(t)
	assert.True(t, matches(matcher.Name("transpose"), chain[1]))
	assert.True(t, matches(matcher.Name("reshape", "contiguous"), chain[2]))
	assert.False(t, matches(matcher.Name("reshape"), chain[2]))
}

func TestCombinators(t *testing.T) {
	_, chain := buildChain(t)
	tr := chain[1]
	assert.True(t, matches(matcher.All(matcher.Name("transpose"), matcher.TransposeShape()), tr))
	assert.False(t, matches(matcher.All(matcher.Name("transpose"), matcher.Standard()), tr))
	assert.True(t, matches(matcher.Any(matcher.Name("dot"), matcher.Name("transpose")), tr))
	assert.True(t, matches(matcher.None(matcher.Name("dot")), tr))
}

func TestArgAndInputs(t *testing.T) {
	_, chain := buildChain(t)
	c := chain[2]
	assert.True(t, matches(matcher.Arg(0, matcher.Name("transpose")), c))
	assert.False(t, matches(matcher.Arg(1, matcher.Name("transpose")), c))
	assert.True(t, matches(matcher.Args(matcher.Name("transpose")), c))
	assert.False(t, matches(matcher.Args(matcher.Name("transpose"), matcher.Name("transpose")), c))
	assert.True(t, matches(matcher.AllOfInputs(matcher.Name("transpose")), c))
	assert.True(t, matches(matcher.NoneOfInputs(matcher.Name("dot")), c))
	assert.False(t, matches(matcher.AllOfInputs(matcher.Name("dot")), chain[0]))
}

func TestOutputs(t *testing.T) {
	_, chain := buildChain(t)
	tr := chain[1]
	assert.True(t, matches(matcher.AnyOfOutputs(matcher.Name("contiguous")), tr))
	assert.True(t, matches(matcher.AllOfOutputs(matcher.Name("contiguous")), tr))
	assert.True(t, matches(matcher.NoneOfOutputs(matcher.Name("dot")), tr))
	assert.True(t, matches(matcher.Used(), tr))
	assert.False(t, matches(matcher.Used(), chain[3]))
	assert.True(t, matches(matcher.OutputCount(1), tr))
}

func TestShapePredicates(t *testing.T) {
	p := ir.NewProgram()
	x := p.AddParameter("x", f32(2, 2))
	y := p.AddParameter("y", f32(2, 2))
	sum := p.AddInstruction(ops.Add{}, x, y)
	assert.True(t, matches(matcher.SameShapeAsArg(0), sum))
	assert.True(t, matches(matcher.SameInputShapes(), sum))
	assert.True(t, matches(matcher.Standard(), sum))
	assert.False(t, matches(matcher.Broadcasted(), sum))
}

func TestBind(t *testing.T) {
	_, chain := buildChain(t)
	c := chain[2]
	pattern := matcher.All(
		matcher.Name("contiguous"),
		matcher.Arg(0, matcher.Bind("trans", matcher.Name("transpose"))),
	)
	result, ok := matcher.Match(pattern, c)
	require.True(t, ok)
	assert.Same(t, chain[1], result.Anchor("trans"))
	assert.Nil(t, result.Anchor("missing"))
}

func TestSkipOutput(t *testing.T) {
	_, chain := buildChain(t)
	tr := chain[1]
	// sin is reachable from transpose by skipping past contiguous.
	m := matcher.SkipOutput(matcher.Name("contiguous"))(matcher.Name("sin"))
	assert.True(t, matches(m, tr))
	m = matcher.SkipOutput(matcher.Name("reshape"))(matcher.Name("sin"))
	assert.False(t, matches(m, tr))
}

type dropContiguous struct{ applied int }

func (r *dropContiguous) Matcher() matcher.Matcher {
	return matcher.All(matcher.Name("contiguous"), matcher.Arg(0, matcher.Bind("in", matcher.Name("transpose"))))
}

func (r *dropContiguous) Apply(p *ir.Program, result matcher.MatchResult) {
	r.applied++
	p.ReplaceInstruction(result.Ins, result.Anchor("in"))
}

func TestFindMatches(t *testing.T) {
	p, chain := buildChain(t)
	rewriter := &dropContiguous{}
	for _, ins := range p.Instructions() {
		matcher.FindMatches(p, ins, rewriter)
	}
	assert.Equal(t, 1, rewriter.applied)
	assert.Equal(t, []*ir.Instruction{chain[1]}, chain[3].Inputs())
}
