package passes

import (
	"github.com/tensorc/tensorc/ir"
)

// useMap records, per instruction, the program positions at which its value
// is read. A read of an aliasing view counts against the view's alias root,
// so buffers stay live while any view of them is in use. Nop instructions
// do not read their inputs, except the terminal whose inputs are the
// program's outputs.
func useMap(p *ir.Program) map[*ir.Instruction][]int {
	terminal := p.Terminal()
	uses := make(map[*ir.Instruction][]int)
	for pos, ins := range p.Instructions() {
		if ins.Op().Name() == "nop" && ins != terminal {
			continue
		}
		for _, input := range ins.Inputs() {
			root := input.AliasRoot()
			uses[root] = append(uses[root], pos)
		}
	}
	return uses
}

// happensBefore builds the transitive closure of the scheduling order:
// program order between instructions tagged on the same stream, plus the
// edge from every record-event instruction to every later wait-event
// instruction. Untagged instructions carry no ordering of their own.
// hb[i][j] reports that position i completes before position j starts on
// every execution.
func happensBefore(p *ir.Program) [][]bool {
	instructions := p.Instructions()
	n := len(instructions)
	hb := make([][]bool, n)
	for ii := range hb {
		hb[ii] = make([]bool, n)
	}
	ordered := func(i, j int) bool {
		si, sj := instructions[i].Stream(), instructions[j].Stream()
		if si == sj && si != ir.NoStream {
			return true
		}
		return instructions[i].RecordsEvent() && instructions[j].WaitsEvent()
	}
	for jj := 0; jj < n; jj++ {
		for ii := 0; ii < jj; ii++ {
			if !ordered(ii, jj) {
				continue
			}
			hb[ii][jj] = true
			for kk := 0; kk < ii; kk++ {
				if hb[kk][ii] {
					hb[kk][jj] = true
				}
			}
		}
	}
	return hb
}
