// Package matcher implements the declarative pattern sub-language the
// rewrite passes use to spot instruction fragments.
//
// A Matcher is a predicate over an instruction, optionally capturing named
// anchors into the MatchResult while it runs. Matchers compose through the
// combinators in this package; matching is deterministic, left-to-right and
// non-backtracking per anchor.
package matcher

import (
	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/types"
)

// MatchResult is a matched instruction plus the anchors captured while the
// pattern ran.
type MatchResult struct {
	Ins     *ir.Instruction
	Anchors map[string]*ir.Instruction
}

// Anchor returns a captured instruction by name, nil if absent.
func (r MatchResult) Anchor(name string) *ir.Instruction {
	return r.Anchors[name]
}

// Matcher is a predicate over an instruction. It may record anchors into the
// result while matching.
type Matcher func(ins *ir.Instruction, result *MatchResult) bool

// Match runs the matcher against one instruction and returns the result.
func Match(m Matcher, ins *ir.Instruction) (MatchResult, bool) {
	result := MatchResult{Ins: ins, Anchors: make(map[string]*ir.Instruction)}
	if !m(ins, &result) {
		return MatchResult{}, false
	}
	return result, true
}

// Name matches when the operator name is one of the given names.
func Name(names ...string) Matcher {
	set := types.SetWith(names...)
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return set.Has(ins.Op().Name())
	}
}

// All matches when every sub-matcher matches.
func All(ms ...Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		for _, m := range ms {
			if !m(ins, result) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one sub-matcher matches.
func Any(ms ...Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		for _, m := range ms {
			if m(ins, result) {
				return true
			}
		}
		return false
	}
}

// None matches when no sub-matcher matches.
func None(ms ...Matcher) Matcher {
	any := Any(ms...)
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return !any(ins, result)
	}
}

// Arg descends to the k-th input.
func Arg(k int, m Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		inputs := ins.Inputs()
		if k >= len(inputs) {
			return false
		}
		return m(inputs[k], result)
	}
}

// Args matches when the instruction has exactly len(ms) inputs and each
// matches its corresponding matcher.
func Args(ms ...Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		inputs := ins.Inputs()
		if len(inputs) != len(ms) {
			return false
		}
		for ii, m := range ms {
			if !m(inputs[ii], result) {
				return false
			}
		}
		return true
	}
}

// AnyOfInputs matches when at least one input matches.
func AnyOfInputs(m Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		for _, input := range ins.Inputs() {
			if m(input, result) {
				return true
			}
		}
		return false
	}
}

// AllOfInputs matches when there is at least one input and all inputs match.
func AllOfInputs(m Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		if len(ins.Inputs()) == 0 {
			return false
		}
		for _, input := range ins.Inputs() {
			if !m(input, result) {
				return false
			}
		}
		return true
	}
}

// NoneOfInputs matches when no input matches.
func NoneOfInputs(m Matcher) Matcher {
	anyOf := AnyOfInputs(m)
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return !anyOf(ins, result)
	}
}

// AnyOfOutputs matches when at least one consumer matches.
func AnyOfOutputs(m Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		for _, output := range ins.Outputs() {
			if m(output, result) {
				return true
			}
		}
		return false
	}
}

// AllOfOutputs matches when there is at least one consumer and all match.
func AllOfOutputs(m Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		if len(ins.Outputs()) == 0 {
			return false
		}
		for _, output := range ins.Outputs() {
			if !m(output, result) {
				return false
			}
		}
		return true
	}
}

// NoneOfOutputs matches when no consumer matches.
func NoneOfOutputs(m Matcher) Matcher {
	anyOf := AnyOfOutputs(m)
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return !anyOf(ins, result)
	}
}

// SameShapeAsArg matches when the instruction's shape equals the shape of
// its k-th input.
func SameShapeAsArg(k int) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		inputs := ins.Inputs()
		if k >= len(inputs) {
			return false
		}
		return ins.Shape().Equal(inputs[k].Shape())
	}
}

// SameInputShapes matches when all inputs share one shape.
func SameInputShapes() Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		inputs := ins.Inputs()
		for _, input := range inputs[1:] {
			if !input.Shape().Equal(inputs[0].Shape()) {
				return false
			}
		}
		return true
	}
}

// TransposeShape matches when the instruction's shape is transposed.
func TransposeShape() Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return ins.Shape().IsTransposed()
	}
}

// Standard matches when the instruction's shape is standard.
func Standard() Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return ins.Shape().IsStandard()
	}
}

// Broadcasted matches when the instruction's shape is broadcasted.
func Broadcasted() Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return ins.Shape().IsBroadcasted()
	}
}

// Used matches instructions with at least one consumer.
func Used() Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return len(ins.Outputs()) > 0
	}
}

// OutputCount matches instructions with exactly n consumers.
func OutputCount(n int) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		return len(ins.Outputs()) == n
	}
}

// Bind captures the instruction under the given anchor name when the
// sub-matcher matches.
func Bind(name string, m Matcher) Matcher {
	return func(ins *ir.Instruction, result *MatchResult) bool {
		if !m(ins, result) {
			return false
		}
		result.Anchors[name] = ins
		return true
	}
}

// SkipOutput walks past consumers matching skip: the returned combinator
// matches when some consumer reachable through a chain of skip-matching
// instructions matches then. The walk is breadth-first, visiting consumers in
// the order of each instruction's Outputs list, so the first match is
// deterministic.
func SkipOutput(skip Matcher) func(then Matcher) Matcher {
	return func(then Matcher) Matcher {
		return func(ins *ir.Instruction, result *MatchResult) bool {
			frontier := ins.Outputs()
			for len(frontier) > 0 {
				var next []*ir.Instruction
				for _, out := range frontier {
					if then(out, result) {
						return true
					}
					if skip(out, result) {
						next = append(next, out.Outputs()...)
					}
				}
				frontier = next
			}
			return false
		}
	}
}

// Rewriter pairs a pattern with the rewrite it performs on a match.
type Rewriter interface {
	Matcher() Matcher
	Apply(p *ir.Program, result MatchResult)
}

// FindMatches applies each rewriter's pattern against the cursor
// instruction, left-to-right; the first one that matches gets its Apply
// invoked, which may mutate the program. At most one rewriter fires per
// cursor.
func FindMatches(p *ir.Program, ins *ir.Instruction, rewriters ...Rewriter) {
	for _, rewriter := range rewriters {
		result, ok := Match(rewriter.Matcher(), ins)
		if !ok {
			continue
		}
		rewriter.Apply(p, result)
		return
	}
}
