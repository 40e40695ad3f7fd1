package passes

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// EliminateContiguous removes materialization points that no consumer
// needs: a contiguous is dropped when every consumer computes the same
// output shape straight from the contiguous' input, and folded into a
// literal when its value is known at compile time. The terminal contiguous
// is always kept, it fixes the program's output layout.
type EliminateContiguous struct{}

// Name implements Pass.
func (EliminateContiguous) Name() string { return "eliminate_contiguous" }

// Apply implements Pass.
func (EliminateContiguous) Apply(p *ir.Program) {
	for _, ins := range slices.Clone(p.Instructions()) {
		if ins.Op().Name() != "contiguous" || ins == p.Terminal() {
			continue
		}
		input := ins.Inputs()[0]
		if consumersAccept(ins, input) {
			p.ReplaceInstruction(ins, input)
			continue
		}
		if ins.CanEval() {
			folded := p.AddLiteral(arguments.NewLiteral(ins.Eval()))
			p.ReplaceInstruction(ins, folded)
		}
	}
	DeadCodeElimination{}.Apply(p)
}

// consumersAccept reports whether every consumer of c, fed x in its place,
// still computes its current output shape.
func consumersAccept(c, x *ir.Instruction) bool {
	for _, consumer := range c.Outputs() {
		inputs := make([]shapes.Shape, len(consumer.Inputs()))
		for ii, in := range consumer.Inputs() {
			if in == c {
				inputs[ii] = x.Shape()
			} else {
				inputs[ii] = in.Shape()
			}
		}
		op := consumer.Op()
		shape := consumer.Shape()
		err := exceptions.TryCatch[error](func() {
			if !op.ComputeShape(inputs).Equal(shape) {
				panic(errors.New("output shape would change"))
			}
		})
		if err != nil {
			return false
		}
	}
	return true
}
