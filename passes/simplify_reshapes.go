package passes

import (
	"slices"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/matcher"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/types/shapes"
	"github.com/tensorc/tensorc/types/xslices"
)

// reshaperNames are the layout operators the chain folding looks through.
// Transposes and slices are excluded, they have their own rewrites.
var reshaperNames = []string{"reshape", "contiguous", "squeeze", "unsqueeze"}

// nopNames are the operators dropped outright when they don't change the
// shape.
var nopNames = append([]string{"transpose", "slice"}, reshaperNames...)

// SimplifyReshapes folds chains of layout operators: drops no-op reshapers,
// collapses a reshaper chain onto an earlier producer with the same shape,
// fuses stacked transposes into one and sinks a transpose below a concat.
// It runs to a fixed point and is idempotent.
type SimplifyReshapes struct{}

// Name implements Pass.
func (SimplifyReshapes) Name() string { return "simplify_reshapes" }

// Apply implements Pass.
func (SimplifyReshapes) Apply(p *ir.Program) {
	rewriters := []matcher.Rewriter{
		&nopReshaper{},
		&reshaperChain{},
		&transposeFusion{},
		&concatTransposeSink{},
	}
	for {
		before := p.String()
		for _, ins := range slices.Clone(p.Instructions()) {
			if ins == p.Terminal() && ins.Op().Name() == "contiguous" {
				continue
			}
			if ins != p.Terminal() && len(ins.Outputs()) == 0 {
				continue
			}
			matcher.FindMatches(p, ins, rewriters...)
		}
		DeadCodeElimination{}.Apply(p)
		if p.String() == before {
			return
		}
	}
}

// nopReshaper drops a reshaper whose output shape equals its input shape.
type nopReshaper struct{}

func (*nopReshaper) Matcher() matcher.Matcher {
	return matcher.All(matcher.Name(nopNames...), matcher.SameShapeAsArg(0))
}

func (*nopReshaper) Apply(p *ir.Program, result matcher.MatchResult) {
	p.ReplaceInstruction(result.Ins, result.Ins.Inputs()[0])
}

// reshaperChain folds the topmost reshaper of a chain onto the deepest
// producer in the chain carrying the same shape.
type reshaperChain struct{}

func (*reshaperChain) Matcher() matcher.Matcher {
	reshaper := matcher.Name(reshaperNames...)
	return matcher.All(reshaper, matcher.NoneOfOutputs(reshaper))
}

func (*reshaperChain) Apply(p *ir.Program, result matcher.MatchResult) {
	// The chain runs from the matched instruction down through reshapers,
	// including the first non-reshaper source.
	chain := []*ir.Instruction{result.Ins}
	for slices.Contains(reshaperNames, xslices.Last(chain).Op().Name()) {
		chain = append(chain, xslices.Last(chain).Inputs()[0])
	}
	for _, start := range chain {
		for ii := len(chain) - 1; ii >= 0; ii-- {
			deepest := chain[ii]
			if deepest == start {
				break
			}
			if deepest.Shape().Equal(start.Shape()) {
				p.ReplaceInstruction(start, deepest)
				return
			}
		}
	}
}

// transposeFusion composes a chain of transposes into a single one, or
// removes it entirely when the composition is the identity.
type transposeFusion struct{}

func (*transposeFusion) Matcher() matcher.Matcher {
	transpose := matcher.Name("transpose")
	return matcher.All(transpose,
		matcher.None(matcher.SkipOutput(matcher.Name("contiguous"))(transpose)))
}

func (*transposeFusion) Apply(p *ir.Program, result matcher.MatchResult) {
	ins := result.Ins
	dims := xslices.Iota(0, ins.Shape().Rank())
	count := 0
	cur := ins
	var source *ir.Instruction
	for {
		perm := cur.Op().(ops.Transpose).Perm
		for ii, d := range dims {
			dims[ii] = perm[d]
		}
		count++
		source = cur.Inputs()[0]
		// Look through contiguous for the next transpose below; the
		// source stays the direct input so an unrelated materialization
		// below the chain is kept.
		next := source
		for next.Op().Name() == "contiguous" {
			next = next.Inputs()[0]
		}
		if next.Op().Name() != "transpose" {
			break
		}
		cur = next
	}
	if count < 2 {
		return
	}
	if slices.Equal(dims, xslices.Iota(0, len(dims))) {
		p.ReplaceInstruction(ins, source)
		return
	}
	fused := p.InsertInstruction(ins, ops.Transpose{Perm: dims}, source)
	p.ReplaceInstruction(ins, fused)
}

// concatTransposeSink rewrites a concat whose inputs are all transposed the
// same way into a concat over the standard sources wrapped in one transpose.
type concatTransposeSink struct{}

func (*concatTransposeSink) Matcher() matcher.Matcher {
	return matcher.All(matcher.Name("concat"), matcher.AllOfInputs(matcher.TransposeShape()))
}

func (*concatTransposeSink) Apply(p *ir.Program, result matcher.MatchResult) {
	ins := result.Ins
	inputs := ins.Inputs()
	perm := inputs[0].Shape().FindPermutation()
	for _, input := range inputs[1:] {
		if !slices.Equal(input.Shape().FindPermutation(), perm) {
			return
		}
	}
	rank := inputs[0].Shape().Rank()
	axis := ins.Op().(ops.Concat).Axis
	if axis < 0 {
		axis += rank
	}
	inverse := shapes.InvertPermutation(perm)

	standard := make([]*ir.Instruction, len(inputs))
	for ii, input := range inputs {
		standard[ii] = p.InsertInstruction(ins, ops.Transpose{Perm: perm}, input)
	}
	concat := p.InsertInstruction(ins, ops.Concat{Axis: inverse[axis]}, standard...)
	sunk := p.InsertInstruction(ins, ops.Transpose{Perm: inverse}, concat)
	p.ReplaceInstruction(ins, sunk)
}
