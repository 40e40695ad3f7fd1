package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"

	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// Reserved operator names for the builtin leaf instructions a Program
// creates itself.
const (
	ParamOpName   = "@param"
	LiteralOpName = "@literal"
)

// Instruction is one node of the IR DAG: an operator bound to input
// references and a cached output shape. Instructions live inside exactly one
// Program, which owns them; instructions hold non-owning references among
// themselves (inputs) and the reverse edges (outputs) are maintained by the
// Program on every mutation.
type Instruction struct {
	program *Program
	op      Operator
	shape   shapes.Shape

	inputs  []*Instruction
	outputs []*Instruction

	// paramName / literal are only set for the builtin leaf instructions.
	paramName string
	literal   *arguments.Literal

	// Device-side scheduling model: a stream id (NoStream when untagged)
	// and the event masks.
	stream       int
	recordsEvent bool
	waitsEvent   bool
}

// NoStream marks an instruction without a stream assignment.
const NoStream = -1

// Op returns the operator bound to this instruction.
func (ins *Instruction) Op() Operator { return ins.op }

// Shape returns the cached output shape.
func (ins *Instruction) Shape() shapes.Shape { return ins.shape }

// Inputs returns the instructions feeding this one. The returned slice is
// owned by the instruction, don't mutate it.
func (ins *Instruction) Inputs() []*Instruction { return ins.inputs }

// Outputs returns the instructions consuming this one, in a deterministic
// order (first-use order, updated on every mutation).
func (ins *Instruction) Outputs() []*Instruction { return ins.outputs }

// Program that owns this instruction.
func (ins *Instruction) Program() *Program { return ins.program }

// IsParameter returns whether this is a builtin parameter instruction.
func (ins *Instruction) IsParameter() bool { return ins.op.Name() == ParamOpName }

// IsLiteral returns whether this is a builtin literal instruction.
func (ins *Instruction) IsLiteral() bool { return ins.op.Name() == LiteralOpName }

// ParameterName returns the name of a parameter instruction. It panics on
// any other instruction.
func (ins *Instruction) ParameterName() string {
	if !ins.IsParameter() {
		exceptions.Panicf("instruction %s is not a parameter", ins)
	}
	return ins.paramName
}

// Literal returns the literal payload. It panics on non-literal instructions.
func (ins *Instruction) Literal() *arguments.Literal {
	if !ins.IsLiteral() {
		exceptions.Panicf("instruction %s is not a literal", ins)
	}
	return ins.literal
}

// Stream returns the stream id the instruction is scheduled on, or NoStream.
func (ins *Instruction) Stream() int { return ins.stream }

// SetStream tags the instruction with a stream id.
func (ins *Instruction) SetStream(stream int) { ins.stream = stream }

// SetRecordEvent marks that this instruction records an event when it
// completes.
func (ins *Instruction) SetRecordEvent() { ins.recordsEvent = true }

// SetWaitEvent marks that this instruction waits for recorded events before
// it starts.
func (ins *Instruction) SetWaitEvent() { ins.waitsEvent = true }

// RecordsEvent returns whether this instruction records an event.
func (ins *Instruction) RecordsEvent() bool { return ins.recordsEvent }

// WaitsEvent returns whether this instruction waits for events.
func (ins *Instruction) WaitsEvent() bool { return ins.waitsEvent }

// AliasRoot chases output aliasing transitively: if the operator writes into
// input k's buffer, the root is that input's root. An instruction without
// aliasing is its own root.
func (ins *Instruction) AliasRoot() *Instruction {
	alias := OutputAlias(ins.op, inputShapes(ins.inputs))
	if alias < 0 {
		return ins
	}
	if alias >= len(ins.inputs) {
		exceptions.Panicf("operator %s aliases input %d but has %d inputs", OpString(ins.op), alias, len(ins.inputs))
	}
	return ins.inputs[alias].AliasRoot()
}

// CanEval returns whether the instruction can be constant-evaluated: it is a
// literal, or a computable operator whose inputs can all be evaluated.
// Parameters cannot.
func (ins *Instruction) CanEval() bool {
	if ins.IsLiteral() {
		return true
	}
	if ins.IsParameter() {
		return false
	}
	if _, ok := ins.op.(Computable); !ok {
		return false
	}
	for _, input := range ins.inputs {
		if !input.CanEval() {
			return false
		}
	}
	return true
}

// Eval constant-evaluates the instruction. It panics with a not-computable
// error when the operator (or one of its ancestors) cannot execute on the
// host.
func (ins *Instruction) Eval() *arguments.Argument {
	if ins.IsLiteral() {
		return &ins.literal.Argument
	}
	if ins.IsParameter() {
		exceptions.Panicf("not-computable: parameter %q has no value at compile time", ins.paramName)
	}
	computable, ok := ins.op.(Computable)
	if !ok {
		exceptions.Panicf("not-computable: operator %s has no compute", OpString(ins.op))
	}
	inputs := make([]*arguments.Argument, len(ins.inputs))
	for ii, input := range ins.inputs {
		inputs[ii] = input.Eval()
	}
	return computable.Compute(ins.shape, inputs)
}

// String pretty-prints the instruction with its position in the program:
// `<idx> = <name>[field=value,...](<inputs>) -> <shape>`.
func (ins *Instruction) String() string {
	if ins == nil {
		return "Instruction(nil)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d = %s", ins.program.Position(ins), OpString(ins.op))
	if len(ins.inputs) > 0 {
		refs := make([]string, len(ins.inputs))
		for ii, input := range ins.inputs {
			refs[ii] = fmt.Sprintf("%d", ins.program.Position(input))
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(refs, ","))
	}
	fmt.Fprintf(&sb, " -> %s", ins.shape)
	return sb.String()
}

func inputShapes(inputs []*Instruction) []shapes.Shape {
	out := make([]shapes.Shape, len(inputs))
	for ii, input := range inputs {
		out[ii] = input.shape
	}
	return out
}

// dependsOn reports whether ins transitively depends on target through its
// forward edges.
func (ins *Instruction) dependsOn(target *Instruction) bool {
	if ins == target {
		return true
	}
	for _, input := range ins.inputs {
		if input.dependsOn(target) {
			return true
		}
	}
	return false
}

func (ins *Instruction) removeOutput(out *Instruction) {
	if idx := slices.Index(ins.outputs, out); idx >= 0 {
		ins.outputs = slices.Delete(ins.outputs, idx, idx+1)
	}
}

func (ins *Instruction) addOutput(out *Instruction) {
	if !slices.Contains(ins.outputs, out) {
		ins.outputs = append(ins.outputs, out)
	}
}

// paramOp is the builtin operator of parameter instructions.
type paramOp struct {
	name  string
	shape shapes.Shape
}

func (op paramOp) Name() string { return ParamOpName }
func (op paramOp) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	if len(inputs) != 0 {
		exceptions.Panicf("shape-mismatch: %s takes no inputs", ParamOpName)
	}
	return op.shape
}
func (op paramOp) String() string { return fmt.Sprintf("%s[name=%s]", ParamOpName, op.name) }

// literalOp is the builtin operator of literal instructions.
type literalOp struct {
	shape shapes.Shape
}

func (op literalOp) Name() string { return LiteralOpName }
func (op literalOp) ComputeShape(inputs []shapes.Shape) shapes.Shape {
	if len(inputs) != 0 {
		exceptions.Panicf("shape-mismatch: %s takes no inputs", LiteralOpName)
	}
	return op.shape
}
func (op literalOp) String() string { return LiteralOpName }
