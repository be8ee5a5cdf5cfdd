package l1samples

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer is a tagged union over the supported sample slices. Exactly one
// slice is populated, the one matching Type.
type Buffer struct {
	Type DataType
	U16  []uint16
	F32  []float32
	U8   []uint8
}

// Uint16Buffer wraps raw sensor counts.
func Uint16Buffer(v []uint16) Buffer { return Buffer{Type: DataTypeUint16, U16: v} }

// FloatBuffer wraps calibrated values.
func FloatBuffer(v []float32) Buffer { return Buffer{Type: DataTypeFloat, F32: v} }

// Uint8Buffer wraps 8-bit samples.
func Uint8Buffer(v []uint8) Buffer { return Buffer{Type: DataTypeUint8, U8: v} }

// Len returns the number of samples held.
func (b Buffer) Len() int {
	switch b.Type {
	case DataTypeUint16:
		return len(b.U16)
	case DataTypeFloat:
		return len(b.F32)
	case DataTypeUint8:
		return len(b.U8)
	}
	return 0
}

// IsNil reports whether the populated slice is nil.
func (b Buffer) IsNil() bool {
	switch b.Type {
	case DataTypeUint16:
		return b.U16 == nil
	case DataTypeFloat:
		return b.F32 == nil
	case DataTypeUint8:
		return b.U8 == nil
	}
	return true
}

// At returns sample i as float32.
func (b Buffer) At(i int) float32 {
	switch b.Type {
	case DataTypeUint16:
		return float32(b.U16[i])
	case DataTypeFloat:
		return b.F32[i]
	case DataTypeUint8:
		return float32(b.U8[i])
	}
	return 0
}

// DecodeLE decodes little-endian sample bytes of type t.
func DecodeLE(data []byte, t DataType) (Buffer, error) {
	size := t.Size()
	if size == 0 {
		return Buffer{}, fmt.Errorf("cannot decode samples of type %s", t)
	}
	if len(data)%size != 0 {
		return Buffer{}, fmt.Errorf("%d bytes is not a multiple of %d-byte %s samples", len(data), size, t)
	}
	n := len(data) / size
	switch t {
	case DataTypeUint16:
		v := make([]uint16, n)
		for i := range v {
			v[i] = binary.LittleEndian.Uint16(data[2*i:])
		}
		return Uint16Buffer(v), nil
	case DataTypeFloat:
		v := make([]float32, n)
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return FloatBuffer(v), nil
	default:
		return Uint8Buffer(append([]uint8(nil), data...)), nil
	}
}

// EncodeLE is the inverse of DecodeLE.
func EncodeLE(b Buffer) []byte {
	out := make([]byte, b.Len()*b.Type.Size())
	switch b.Type {
	case DataTypeUint16:
		for i, v := range b.U16 {
			binary.LittleEndian.PutUint16(out[2*i:], v)
		}
	case DataTypeFloat:
		for i, v := range b.F32 {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
	case DataTypeUint8:
		copy(out, b.U8)
	}
	return out
}
