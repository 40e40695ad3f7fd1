// Package arguments defines Argument and Literal, the owning tensor buffers
// that flow through a program when it is evaluated, and the immutable
// constants attached to a program at construction time.
//
// An Argument pairs a shapes.Shape with a byte buffer. The buffer can be
// freshly owned (created by New), a caller-supplied slice taken without a
// copy (NewFromBytes), or borrowed from another Argument (created by Sub);
// in the last two cases the backing storage is shared.
package arguments

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/tensorc/tensorc/types/shapes"
)

// Argument is a tensor value: a shape plus the bytes it addresses.
//
// The buffer is indexed through the shape's strides, so a non-standard
// Argument is a view and its buffer may be larger than shape.Bytes().
type Argument struct {
	shape shapes.Shape
	data  []byte
}

// New creates an Argument with a freshly owned, zero initialized buffer.
func New(shape shapes.Shape) *Argument {
	if !shape.Ok() {
		exceptions.Panicf("arguments.New: invalid shape")
	}
	size := shape.ElementSpace() * int(shape.DType.Memory())
	return &Argument{shape: shape, data: make([]byte, size)}
}

// NewFromBytes creates an Argument over the given buffer, which must be
// large enough for the shape's element space. The buffer is not copied.
func NewFromBytes(shape shapes.Shape, data []byte) *Argument {
	size := shape.ElementSpace() * int(shape.DType.Memory())
	if len(data) < size {
		exceptions.Panicf("arguments.NewFromBytes: shape %s needs %d bytes, got %d", shape, size, len(data))
	}
	return &Argument{shape: shape, data: data}
}

// Shape of the argument.
func (a *Argument) Shape() shapes.Shape { return a.shape }

// DType of the argument's elements.
func (a *Argument) DType() dtypes.DType { return a.shape.DType }

// Bytes returns the backing buffer. Mutating it mutates the argument and
// any views sharing the buffer.
func (a *Argument) Bytes() []byte { return a.data }

// Sub returns a borrowed view into the argument's buffer, starting at the
// given byte offset and typed with the given shape. The backing storage is
// shared, not copied.
func (a *Argument) Sub(offset int, shape shapes.Shape) *Argument {
	size := shape.ElementSpace() * int(shape.DType.Memory())
	if offset < 0 || offset+size > len(a.data) {
		exceptions.Panicf("Argument.Sub: view %s at offset %d overruns buffer of %d bytes", shape, offset, len(a.data))
	}
	return &Argument{shape: shape, data: a.data[offset : offset+size]}
}

// Contiguous materializes the argument into a freshly owned buffer with a
// standard row-major layout.
func (a *Argument) Contiguous() *Argument {
	out := New(a.shape.Normalize())
	elemSize := int(a.shape.DType.Memory())
	for linear := 0; linear < a.shape.Elements(); linear++ {
		src := a.shape.Index(a.shape.Multi(linear)) * elemSize
		copy(out.data[linear*elemSize:(linear+1)*elemSize], a.data[src:src+elemSize])
	}
	return out
}

// Clone returns a deep copy with an owned buffer and the same shape.
func (a *Argument) Clone() *Argument {
	return &Argument{shape: a.shape.Clone(), data: bytes.Clone(a.data)}
}

// At reads the element at the given multi-dimensional index.
func At[T Number](a *Argument, multi ...int) T {
	pos := a.shape.Index(multi) * int(a.shape.DType.Memory())
	return T(decode(a.shape.DType, a.data[pos:]))
}

// Set writes the element at the given multi-dimensional index.
func Set[T Number](a *Argument, value T, multi ...int) {
	pos := a.shape.Index(multi) * int(a.shape.DType.Memory())
	encode(a.shape.DType, a.data[pos:], float64(value))
}

// Number constrains the Go types elements can be read as or written from.
type Number interface {
	~int8 | ~uint8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

func decode(dtype dtypes.DType, data []byte) float64 {
	switch dtype {
	case dtypes.Int8:
		return float64(int8(data[0]))
	case dtypes.Uint8:
		return float64(data[0])
	case dtypes.Int16:
		return float64(int16(binary.LittleEndian.Uint16(data)))
	case dtypes.Int32:
		return float64(int32(binary.LittleEndian.Uint32(data)))
	case dtypes.Int64:
		return float64(int64(binary.LittleEndian.Uint64(data)))
	case dtypes.Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(data)).Float32())
	case dtypes.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
	case dtypes.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data))
	}
	exceptions.Panicf("arguments: unsupported dtype %s", dtype)
	return 0
}

func encode(dtype dtypes.DType, data []byte, v float64) {
	switch dtype {
	case dtypes.Int8:
		data[0] = byte(int8(v))
	case dtypes.Uint8:
		data[0] = byte(uint8(v))
	case dtypes.Int16:
		binary.LittleEndian.PutUint16(data, uint16(int16(v)))
	case dtypes.Int32:
		binary.LittleEndian.PutUint32(data, uint32(int32(v)))
	case dtypes.Int64:
		binary.LittleEndian.PutUint64(data, uint64(int64(v)))
	case dtypes.Float16:
		binary.LittleEndian.PutUint16(data, float16.Fromfloat32(float32(v)).Bits())
	case dtypes.Float32:
		binary.LittleEndian.PutUint32(data, math.Float32bits(float32(v)))
	case dtypes.Float64:
		binary.LittleEndian.PutUint64(data, math.Float64bits(v))
	default:
		exceptions.Panicf("arguments: unsupported dtype %s", dtype)
	}
}

// Literal is an immutable Argument created during graph construction.
// Treat the buffer as read-only.
type Literal struct {
	Argument
}

// NewLiteral wraps an argument as a literal, materialized to a standard
// layout so bytewise comparison is canonical.
func NewLiteral(a *Argument) *Literal {
	if !a.shape.IsStandard() {
		a = a.Contiguous()
	}
	return &Literal{Argument: *a}
}

// LiteralFromFlat creates a literal of the given standard shape from a flat
// slice of values in row-major order.
func LiteralFromFlat[T Number](shape shapes.Shape, values []T) *Literal {
	if len(values) != shape.Elements() {
		exceptions.Panicf("arguments.LiteralFromFlat: shape %s has %d elements, got %d values", shape, shape.Elements(), len(values))
	}
	a := New(shape.Normalize())
	elemSize := int(a.shape.DType.Memory())
	for ii, v := range values {
		encode(a.shape.DType, a.data[ii*elemSize:], float64(v))
	}
	return &Literal{Argument: *a}
}

// Generate creates a deterministic pseudo-random literal for the given
// shape. The same shape and seed always produce the same bytes.
func Generate(shape shapes.Shape, seed uint64) *Literal {
	a := New(shape.Normalize())
	elemSize := int(a.shape.DType.Memory())
	state := seed*6364136223846793005 + 1442695040888963407
	for ii := 0; ii < shape.Elements(); ii++ {
		state = state*6364136223846793005 + 1442695040888963407
		// Small magnitudes keep every dtype representable.
		encode(a.shape.DType, a.data[ii*elemSize:], float64(int(state>>33)%256)/16.0)
	}
	return &Literal{Argument: *a}
}

// Equal compares two literals bytewise on their canonical layout.
func (l *Literal) Equal(other *Literal) bool {
	if !l.shape.Equal(other.shape) {
		return false
	}
	return bytes.Equal(l.data, other.data)
}

// Decode reads the whole literal into a flat float64 slice in row-major
// order. Meant for tests and debugging.
func (l *Literal) Decode() ([]float64, error) {
	if !l.shape.Ok() {
		return nil, errors.Errorf("cannot decode literal with invalid shape")
	}
	out := make([]float64, l.shape.Elements())
	elemSize := int(l.shape.DType.Memory())
	for ii := range out {
		pos := l.shape.Index(l.shape.Multi(ii)) * elemSize
		out[ii] = decode(l.shape.DType, l.data[pos:])
	}
	return out, nil
}
