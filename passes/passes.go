// Package passes implements the compilation pipeline: deterministic
// program-to-program rewrites grouped into targets.
//
// A Pass mutates the program in place; Compile snapshots the program first
// and restores it when any pass panics, so compilation is all-or-nothing.
package passes

import (
	"os"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/tensorc/tensorc/ir"
)

// Pass is one deterministic rewrite of a program.
type Pass interface {
	Name() string
	Apply(p *ir.Program)
}

// Context carries the target knobs the passes read.
type Context struct {
	// Alignment in bytes for buffer offsets and sizes.
	Alignment int

	// NumStreams enables concurrency-aware liveness when > 1 and the
	// program carries stream tags.
	NumStreams int
}

// Target names a compilation pipeline.
type Target interface {
	Name() string
	Context() *Context
	Passes(ctx *Context) []Pass
}

// DisableColoringEnv, when set to a non-empty value other than "0", makes
// the default pipeline stack transient allocations instead of coloring
// them.
const DisableColoringEnv = "MIGRAPHX_DISABLE_MEMORY_COLORING"

func coloringDisabledByEnv() bool {
	value := os.Getenv(DisableColoringEnv)
	return value != "" && value != "0"
}

// Compile runs the target's pipeline over the program in place, then calls
// Finalize once on every operator implementing ir.Finalizer. If any pass
// fails the program is restored to its pre-compile state and the error is
// returned.
func Compile(p *ir.Program, target Target) error {
	snapshot := p.Clone()
	err := exceptions.TryCatch[error](func() {
		for _, pass := range target.Passes(target.Context()) {
			klog.V(1).Infof("target %s: running pass %s", target.Name(), pass.Name())
			pass.Apply(p)
			if err := p.Validate(); err != nil {
				exceptions.Panicf("internal-invariant: pass %s left the program inconsistent: %v", pass.Name(), err)
			}
		}
		for _, ins := range p.Instructions() {
			if finalizer, ok := ins.Op().(ir.Finalizer); ok {
				finalizer.Finalize()
			}
		}
	})
	if err != nil {
		p.ResetTo(snapshot)
		return errors.WithMessagef(err, "compiling for target %q", target.Name())
	}
	return nil
}
