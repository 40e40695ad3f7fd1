package passes

import (
	"math"
	"sort"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/types/shapes"
)

// MemoryColoring packs all transient allocations into one "scratch"
// parameter, reusing bytes between allocations whose live ranges do not
// overlap. Larger buffers are placed first (ties broken by program order)
// and each takes the lowest aligned offset where it fits, so the result is
// deterministic.
//
// Liveness is alias-aware: a buffer is live from its allocation to the last
// read of any view of it. The allocation backing the program output stays
// live forever and no later placement may share its bytes. With NumStreams
// > 1 and stream tags on the instructions, overlap is judged against the
// happens-before order instead of plain program order, so buffers on
// concurrent streams never share bytes.
type MemoryColoring struct {
	// AllocOp is the operator name that marks an allocation. Defaults to
	// "allocate".
	AllocOp string

	// Alignment in bytes for offsets and padded sizes. Defaults to 32.
	Alignment int

	// NumStreams enables concurrency-aware liveness when > 1.
	NumStreams int

	// Disabled turns the pass into a no-op.
	Disabled bool
}

// Name implements Pass.
func (MemoryColoring) Name() string { return "memory_coloring" }

// interval is one allocation's placement state.
type interval struct {
	ins      *ir.Instruction
	aligned  int
	allocPos int
	uses     []int
	birth    int // first-use position, streamed mode only
	end      int // last-use position, math.MaxInt when pinned
	pinned   bool
	offset   int
}

// Apply implements Pass.
func (pass MemoryColoring) Apply(p *ir.Program) {
	if pass.Disabled {
		return
	}
	allocOp := pass.AllocOp
	if allocOp == "" {
		allocOp = "allocate"
	}
	align := pass.Alignment
	if align <= 0 {
		align = 32
	}

	uses := useMap(p)
	pinnedRoot := p.Terminal().AliasRoot()
	var intervals []*interval
	var zeroes []*ir.Instruction
	for pos, ins := range p.Instructions() {
		if ins.Op().Name() != allocOp {
			continue
		}
		if ins.Shape().Bytes() == 0 {
			zeroes = append(zeroes, ins)
			continue
		}
		v := &interval{
			ins:      ins,
			aligned:  alignUp(ins.Shape().Bytes(), align),
			allocPos: pos,
			uses:     uses[ins],
			birth:    pos,
			end:      pos,
			pinned:   ins == pinnedRoot,
		}
		if len(v.uses) > 0 {
			v.birth = v.uses[0]
			v.end = v.uses[len(v.uses)-1]
		}
		if v.pinned {
			v.end = math.MaxInt
		}
		intervals = append(intervals, v)
	}
	if len(intervals) == 0 && len(zeroes) == 0 {
		return
	}

	streamed := pass.NumStreams > 1 && hasStreamTags(p)
	var hb [][]bool
	if streamed {
		hb = happensBefore(p)
	}
	conflict := func(a, b *interval) bool {
		if streamed {
			return !deadBefore(a, b.birth, hb) && !deadBefore(b, a.birth, hb)
		}
		return a.allocPos <= b.end && b.allocPos <= a.end
	}

	// Largest first, then program order; first fit at the lowest offset
	// not blocked by an already placed conflicting interval.
	order := make([]*interval, len(intervals))
	copy(order, intervals)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].aligned != order[j].aligned {
			return order[i].aligned > order[j].aligned
		}
		return order[i].allocPos < order[j].allocPos
	})
	var residents []*interval
	total := 0
	for _, v := range order {
		candidates := []int{0}
		for _, r := range residents {
			candidates = append(candidates, alignUp(r.offset+r.aligned, align))
		}
		sort.Ints(candidates)
		for _, offset := range candidates {
			blocked := false
			for _, r := range residents {
				if !r.pinned && !conflict(v, r) {
					continue
				}
				if offset < r.offset+r.aligned && r.offset < offset+v.aligned {
					blocked = true
					break
				}
			}
			if !blocked {
				v.offset = offset
				break
			}
		}
		residents = append(residents, v)
		total = max(total, v.offset+v.aligned)
	}

	scratch := p.AddParameter("scratch", shapes.Make(dtypes.Int8, total))
	replace := func(alloc *ir.Instruction, offset int) {
		load := p.InsertInstruction(alloc, ops.Load{Shape: alloc.Shape(), Offset: offset}, scratch)
		p.ReplaceInstruction(alloc, load)
		p.RemoveInstruction(alloc)
	}
	for _, v := range intervals {
		replace(v.ins, v.offset)
	}
	for _, alloc := range zeroes {
		replace(alloc, 0)
	}
	klog.V(1).Infof("memory_coloring: packed %d buffers into %s of scratch",
		len(intervals)+len(zeroes), humanize.Bytes(uint64(total)))
}

// deadBefore reports whether every use of v completes before the
// instruction at position pos starts, under the happens-before order. The
// program output is never dead.
func deadBefore(v *interval, pos int, hb [][]bool) bool {
	if v.pinned {
		return false
	}
	for _, use := range v.uses {
		if !hb[use][pos] {
			return false
		}
	}
	return true
}

func hasStreamTags(p *ir.Program) bool {
	for _, ins := range p.Instructions() {
		if ins.Stream() != ir.NoStream {
			return true
		}
	}
	return false
}
