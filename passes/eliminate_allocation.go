package passes

import (
	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/types/shapes"
)

// EliminateAllocation replaces every transient allocation with a view into
// one fused "memory" parameter, stacking the buffers back to back at
// aligned offsets. No reuse is attempted, see MemoryColoring for that.
type EliminateAllocation struct {
	// AllocOp is the operator name that marks an allocation. Defaults to
	// "allocate".
	AllocOp string

	// Alignment in bytes for each buffer's offset and padded size.
	// Defaults to 32.
	Alignment int
}

// Name implements Pass.
func (EliminateAllocation) Name() string { return "eliminate_allocation" }

// Apply implements Pass.
func (pass EliminateAllocation) Apply(p *ir.Program) {
	allocOp := pass.AllocOp
	if allocOp == "" {
		allocOp = "allocate"
	}
	align := pass.Alignment
	if align <= 0 {
		align = 32
	}

	var allocs []*ir.Instruction
	var offsets []int
	total := 0
	for _, ins := range p.Instructions() {
		if ins.Op().Name() != allocOp {
			continue
		}
		allocs = append(allocs, ins)
		offsets = append(offsets, total)
		total += alignUp(ins.Shape().Bytes(), align)
	}
	if len(allocs) == 0 {
		return
	}

	memory := p.AddParameter("memory", shapes.Make(dtypes.Int8, total))
	for ii, alloc := range allocs {
		load := p.InsertInstruction(alloc, ops.Load{Shape: alloc.Shape(), Offset: offsets[ii]}, memory)
		p.ReplaceInstruction(alloc, load)
		p.RemoveInstruction(alloc)
	}
	klog.V(1).Infof("eliminate_allocation: stacked %d buffers into %s", len(allocs), humanize.Bytes(uint64(total)))
}

// alignUp rounds n up to the next multiple of align.
func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
