// tensorc builds a chain of transient buffers, lowers it with the default
// pipeline and prints the program before and after. Useful to eyeball what
// the passes do without writing a test.
//
// Example:
//
//	tensorc -sizes 8,40,192 -alignment 32
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"k8s.io/klog/v2"

	"github.com/tensorc/tensorc/internal/must"
	"github.com/tensorc/tensorc/ir"
	"github.com/tensorc/tensorc/ops"
	"github.com/tensorc/tensorc/passes"
	"github.com/tensorc/tensorc/types/shapes"
)

var (
	flagSizes     = flag.String("sizes", "8,40,192", "Comma-separated lengths of the float32 buffers to chain.")
	flagAlignment = flag.Int("alignment", 32, "Byte alignment for buffer offsets.")
	flagStreams   = flag.Int("streams", 1, "Number of streams the target schedules for.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	p := ir.NewProgram()
	var prev *ir.Instruction
	for _, field := range strings.Split(*flagSizes, ",") {
		size := must.M1(strconv.Atoi(strings.TrimSpace(field)))
		buffer := p.AddInstruction(ops.Allocate{Shape: shapes.Make(dtypes.Float32, size)})
		if prev == nil {
			prev = p.AddInstruction(ops.Pass{}, buffer)
		} else {
			prev = p.AddInstruction(ops.Pass{}, buffer, prev)
		}
	}

	fmt.Println("Before:")
	fmt.Print(p.String())

	target := passes.NewRefTarget()
	target.Alignment = *flagAlignment
	target.NumStreams = *flagStreams
	must.M(passes.Compile(p, target))

	fmt.Println("After:")
	fmt.Print(p.String())
	for _, name := range []string{"scratch", "memory"} {
		if p.HasParameter(name) {
			fmt.Printf("%s: %d bytes\n", name, p.Parameter(name).Shape().Bytes())
		}
	}
}
