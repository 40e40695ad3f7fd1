package passes

import (
	"slices"

	"github.com/tensorc/tensorc/ir"
)

// DeadCodeElimination removes instructions nothing consumes. The terminal
// and parameters survive; unused literals do not.
type DeadCodeElimination struct{}

// Name implements Pass.
func (DeadCodeElimination) Name() string { return "dead_code_elimination" }

// Apply implements Pass. It walks the program backwards so a dead chain
// falls in one sweep, and repeats until nothing moves.
func (DeadCodeElimination) Apply(p *ir.Program) {
	for {
		removed := false
		instructions := slices.Clone(p.Instructions())
		for ii := len(instructions) - 1; ii >= 0; ii-- {
			ins := instructions[ii]
			if ins == p.Terminal() || ins.IsParameter() {
				continue
			}
			if len(ins.Outputs()) > 0 {
				continue
			}
			p.RemoveInstruction(ins)
			removed = true
		}
		if !removed {
			return
		}
	}
}
