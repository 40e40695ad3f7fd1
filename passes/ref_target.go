package passes

// RefTarget is the library's default lowering pipeline: fold layout
// operators, drop needless materialization points, then pack transient
// allocations into the scratch buffer (or just stack them when coloring is
// disabled, via the field or the environment flag).
type RefTarget struct {
	Alignment       int
	NumStreams      int
	DisableColoring bool
}

// NewRefTarget returns a RefTarget with the default knobs, honoring the
// environment flag.
func NewRefTarget() *RefTarget {
	return &RefTarget{Alignment: 32, DisableColoring: coloringDisabledByEnv()}
}

// Name implements Target.
func (t *RefTarget) Name() string { return "ref" }

// Context implements Target.
func (t *RefTarget) Context() *Context {
	align := t.Alignment
	if align <= 0 {
		align = 32
	}
	return &Context{Alignment: align, NumStreams: t.NumStreams}
}

// Passes implements Target.
func (t *RefTarget) Passes(ctx *Context) []Pass {
	var lowering Pass = MemoryColoring{Alignment: ctx.Alignment, NumStreams: ctx.NumStreams}
	if t.DisableColoring {
		lowering = EliminateAllocation{Alignment: ctx.Alignment}
	}
	return []Pass{
		SimplifyReshapes{},
		DeadCodeElimination{},
		EliminateContiguous{},
		DeadCodeElimination{},
		lowering,
		DeadCodeElimination{},
	}
}
