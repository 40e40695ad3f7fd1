package ir

import (
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/tensorc/tensorc/types/arguments"
	"github.com/tensorc/tensorc/types/shapes"
)

// Program is the unit of ownership of the IR: an ordered sequence of
// instructions, an insertion-order registry of named parameters and the
// literal pool. All mutations go through the Program so the topological
// order and the reverse edges stay consistent.
//
// The terminal instruction is the last one in order; its shape is the
// program output.
type Program struct {
	instructions []*Instruction
	params       map[string]*Instruction
	paramOrder   []string
	literals     []*Instruction
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{params: make(map[string]*Instruction)}
}

// Instructions returns the instructions in program order. The returned
// slice is owned by the program, don't mutate it.
func (p *Program) Instructions() []*Instruction { return p.instructions }

// NumInstructions returns the number of instructions in the program.
func (p *Program) NumInstructions() int { return len(p.instructions) }

// Terminal returns the last instruction, the program's return value. Nil
// for an empty program.
func (p *Program) Terminal() *Instruction {
	if len(p.instructions) == 0 {
		return nil
	}
	return p.instructions[len(p.instructions)-1]
}

// Position returns the index of the instruction in program order, -1 if the
// instruction is not part of this program.
func (p *Program) Position(ins *Instruction) int {
	return slices.Index(p.instructions, ins)
}

// Parameter returns the parameter instruction registered under name. It
// panics with an unknown-parameter error if no such parameter exists.
func (p *Program) Parameter(name string) *Instruction {
	ins, found := p.params[name]
	if !found {
		exceptions.Panicf("unknown-parameter: no parameter %q in program", name)
	}
	return ins
}

// HasParameter returns whether a parameter with the given name exists.
func (p *Program) HasParameter(name string) bool {
	_, found := p.params[name]
	return found
}

// Parameters returns the parameter instructions in registration order.
func (p *Program) Parameters() []*Instruction {
	out := make([]*Instruction, 0, len(p.paramOrder))
	for _, name := range p.paramOrder {
		out = append(out, p.params[name])
	}
	return out
}

// Literals returns the literal instructions, in insertion order.
func (p *Program) Literals() []*Instruction { return p.literals }

// AddParameter registers a new named parameter. The instruction is inserted
// right after the leading block of leaf instructions so it precedes every
// compute instruction, even when registered late in a pass. Parameter names
// are unique within a program.
func (p *Program) AddParameter(name string, shape shapes.Shape) *Instruction {
	if _, found := p.params[name]; found {
		exceptions.Panicf("bad-graph: parameter %q already registered", name)
	}
	ins := &Instruction{
		program:   p,
		op:        paramOp{name: name, shape: shape},
		shape:     shape,
		paramName: name,
		stream:    NoStream,
	}
	p.instructions = slices.Insert(p.instructions, p.leafPrefixLen(), ins)
	p.params[name] = ins
	p.paramOrder = append(p.paramOrder, name)
	return ins
}

// leafPrefixLen is the length of the run of parameters and literals at the
// front of the program order.
func (p *Program) leafPrefixLen() int {
	for pos, ins := range p.instructions {
		if !ins.IsParameter() && !ins.IsLiteral() {
			return pos
		}
	}
	return len(p.instructions)
}

// AddLiteral attaches a literal to the program. The instruction is inserted
// at the front of the program order, literals are leaves and never depend on
// anything. Duplicates are not deduplicated.
func (p *Program) AddLiteral(lit *arguments.Literal) *Instruction {
	ins := &Instruction{
		program: p,
		op:      literalOp{shape: lit.Shape()},
		shape:   lit.Shape(),
		literal: lit,
		stream:  NoStream,
	}
	p.instructions = slices.Insert(p.instructions, 0, ins)
	p.literals = append(p.literals, ins)
	return ins
}

// AddInstruction validates the inputs, computes the output shape through the
// operator and appends the new instruction at the end of the program.
func (p *Program) AddInstruction(op Operator, inputs ...*Instruction) *Instruction {
	return p.insertAt(len(p.instructions), op, inputs)
}

// InsertInstruction is AddInstruction at an explicit cursor: the new
// instruction is placed immediately before the given one. All inputs must
// already appear before the cursor.
func (p *Program) InsertInstruction(before *Instruction, op Operator, inputs ...*Instruction) *Instruction {
	pos := p.Position(before)
	if pos < 0 {
		exceptions.Panicf("bad-graph: insertion cursor is not part of the program")
	}
	for _, input := range inputs {
		if p.Position(input) >= pos {
			exceptions.Panicf("bad-graph: input %s does not precede the insertion cursor", input)
		}
	}
	return p.insertAt(pos, op, inputs)
}

func (p *Program) insertAt(pos int, op Operator, inputs []*Instruction) *Instruction {
	for _, input := range inputs {
		if input == nil || input.program != p {
			exceptions.Panicf("bad-graph: input instruction belongs to another program")
		}
	}
	shape := op.ComputeShape(inputShapes(inputs))
	ins := &Instruction{
		program: p,
		op:      op,
		shape:   shape,
		inputs:  slices.Clone(inputs),
		stream:  NoStream,
	}
	for _, input := range inputs {
		input.addOutput(ins)
	}
	p.instructions = slices.Insert(p.instructions, pos, ins)
	return ins
}

// ReplaceInstruction redirects every consumer of old to use rep instead and
// recomputes consumer shapes transitively, so a rewrite that changes a shape
// propagates downstream (or panics with a shape-mismatch where an operator
// rejects the new input). Old is left dangling (no outputs) for a later
// dead-code elimination. It panics with a bad-graph error if the rewrite
// would create a cycle or break the topological order.
func (p *Program) ReplaceInstruction(old, rep *Instruction) {
	if old == rep {
		return
	}
	if p.Position(old) < 0 || p.Position(rep) < 0 {
		exceptions.Panicf("bad-graph: replacing instructions that are not part of the program")
	}
	if rep.dependsOn(old) {
		exceptions.Panicf("bad-graph: replacing %s with %s would create a cycle", old, rep)
	}
	repPos := p.Position(rep)
	for _, consumer := range slices.Clone(old.outputs) {
		if p.Position(consumer) < repPos {
			exceptions.Panicf("bad-graph: replacement %s does not precede consumer %s", rep, consumer)
		}
		for ii, input := range consumer.inputs {
			if input == old {
				consumer.inputs[ii] = rep
			}
		}
		old.removeOutput(consumer)
		rep.addOutput(consumer)
		p.recomputeShape(consumer)
	}
}

// recomputeShape refreshes the cached shape of ins after one of its inputs
// changed, cascading to its consumers when the shape actually moved.
func (p *Program) recomputeShape(ins *Instruction) {
	if ins.IsParameter() || ins.IsLiteral() {
		return
	}
	shape := ins.op.ComputeShape(inputShapes(ins.inputs))
	if shape.Equal(ins.shape) {
		return
	}
	ins.shape = shape
	for _, consumer := range ins.outputs {
		p.recomputeShape(consumer)
	}
}

// RemoveInstruction removes an instruction with no consumers from the
// program, unwiring it from its inputs.
func (p *Program) RemoveInstruction(ins *Instruction) {
	if len(ins.outputs) != 0 {
		exceptions.Panicf("bad-graph: removing %s which still has %d consumers", ins, len(ins.outputs))
	}
	pos := p.Position(ins)
	if pos < 0 {
		exceptions.Panicf("bad-graph: removing an instruction that is not part of the program")
	}
	for _, input := range ins.inputs {
		input.removeOutput(ins)
	}
	p.instructions = slices.Delete(p.instructions, pos, pos+1)
	if ins.IsParameter() {
		delete(p.params, ins.paramName)
		if idx := slices.Index(p.paramOrder, ins.paramName); idx >= 0 {
			p.paramOrder = slices.Delete(p.paramOrder, idx, idx+1)
		}
	}
	if ins.IsLiteral() {
		if idx := slices.Index(p.literals, ins); idx >= 0 {
			p.literals = slices.Delete(p.literals, idx, idx+1)
		}
	}
	ins.program = nil
}

// MoveInstruction relocates ins to the position immediately before the
// cursor, preserving topological legality: every input must end up earlier
// and every consumer later.
func (p *Program) MoveInstruction(ins, before *Instruction) {
	from := p.Position(ins)
	to := p.Position(before)
	if from < 0 || to < 0 {
		exceptions.Panicf("bad-graph: moving instructions that are not part of the program")
	}
	if from == to || from+1 == to {
		return
	}
	p.instructions = slices.Delete(p.instructions, from, from+1)
	if from < to {
		to--
	}
	p.instructions = slices.Insert(p.instructions, to, ins)
	for _, input := range ins.inputs {
		if p.Position(input) >= p.Position(ins) {
			exceptions.Panicf("bad-graph: moving %s before %s breaks the topological order", ins, before)
		}
	}
	for _, consumer := range ins.outputs {
		if p.Position(consumer) <= p.Position(ins) {
			exceptions.Panicf("bad-graph: moving %s before %s breaks the topological order", ins, before)
		}
	}
}

// Validate checks the program-wide invariants: topological ordering, shape
// coherence and reverse-edge consistency. It returns an error rather than
// panicking, tests and post-pass assertions use it.
func (p *Program) Validate() error {
	for pos, ins := range p.instructions {
		for _, input := range ins.inputs {
			inputPos := p.Position(input)
			if inputPos < 0 {
				return errors.Errorf("instruction %d has an input outside the program", pos)
			}
			if inputPos >= pos {
				return errors.Errorf("instruction %d at position %d has input at position %d", pos, pos, inputPos)
			}
			if !slices.Contains(input.outputs, ins) {
				return errors.Errorf("missing reverse edge from position %d to %d", inputPos, pos)
			}
		}
		for _, consumer := range ins.outputs {
			if !slices.Contains(consumer.inputs, ins) {
				return errors.Errorf("dangling reverse edge at position %d", pos)
			}
		}
		if !ins.IsParameter() && !ins.IsLiteral() {
			want := ins.op.ComputeShape(inputShapes(ins.inputs))
			if !ins.shape.Equal(want) {
				return errors.Errorf("shape of instruction %d is %s, operator computes %s", pos, ins.shape, want)
			}
		}
	}
	return nil
}

// String is the debug printer: one instruction per line in program order.
// This format is informational, not a wire format.
func (p *Program) String() string {
	var sb strings.Builder
	for _, ins := range p.instructions {
		sb.WriteString(ins.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Clone returns a deep copy of the program: fresh instructions with the same
// operators, wiring, parameter registry and scheduling tags. Operators and
// literal payloads are shared, they are immutable by contract.
func (p *Program) Clone() *Program {
	clone := NewProgram()
	mapping := make(map[*Instruction]*Instruction, len(p.instructions))
	for _, ins := range p.instructions {
		copied := &Instruction{
			program:      clone,
			op:           ins.op,
			shape:        ins.shape.Clone(),
			paramName:    ins.paramName,
			literal:      ins.literal,
			stream:       ins.stream,
			recordsEvent: ins.recordsEvent,
			waitsEvent:   ins.waitsEvent,
		}
		for _, input := range ins.inputs {
			copied.inputs = append(copied.inputs, mapping[input])
			mapping[input].addOutput(copied)
		}
		mapping[ins] = copied
		clone.instructions = append(clone.instructions, copied)
		if ins.IsParameter() {
			clone.params[ins.paramName] = copied
		}
		if ins.IsLiteral() {
			clone.literals = append(clone.literals, copied)
		}
	}
	clone.paramOrder = slices.Clone(p.paramOrder)
	return clone
}

// ResetTo makes p take over the contents of other, adopting its instructions.
// Other must not be used afterwards. Compilation uses this to restore a
// snapshot after a failed pass.
func (p *Program) ResetTo(other *Program) {
	p.instructions = other.instructions
	p.params = other.params
	p.paramOrder = other.paramOrder
	p.literals = other.literals
	for _, ins := range p.instructions {
		ins.program = p
	}
	other.instructions = nil
	other.params = nil
	other.paramOrder = nil
	other.literals = nil
}
