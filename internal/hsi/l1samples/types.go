package l1samples

import (
	"fmt"
	"strings"
)

// DataType is the sample type of an input buffer. Values match the
// integers reported at the runtime boundary.
type DataType int

const (
	DataTypeUnknown DataType = 0
	DataTypeUint16  DataType = 1
	DataTypeFloat   DataType = 2
	DataTypeUint8   DataType = 3
)

func (t DataType) String() string {
	switch t {
	case DataTypeUint16:
		return "uint16"
	case DataTypeFloat:
		return "float"
	case DataTypeUint8:
		return "uint8"
	}
	return "unknown"
}

// Valid reports whether t names a concrete sample type.
func (t DataType) Valid() bool {
	return t == DataTypeUint16 || t == DataTypeFloat || t == DataTypeUint8
}

// Size returns the number of bytes per sample.
func (t DataType) Size() int {
	switch t {
	case DataTypeUint16:
		return 2
	case DataTypeFloat:
		return 4
	case DataTypeUint8:
		return 1
	}
	return 0
}

// ParseDataType accepts the names used in project and scan metadata.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint16", "u16":
		return DataTypeUint16, nil
	case "float", "float32", "f32":
		return DataTypeFloat, nil
	case "uint8", "u8", "byte":
		return DataTypeUint8, nil
	case "", "unknown":
		return DataTypeUnknown, nil
	}
	return DataTypeUnknown, fmt.Errorf("unknown data type %q", s)
}

// Layout is the band interleave of a buffer. Values match the integers
// reported at the runtime boundary.
type Layout int

const (
	LayoutUnknown Layout = 0
	LayoutBIP     Layout = 1 // spectrum by spectrum: bands, width, height
	LayoutBIL     Layout = 2 // frame by frame: width, bands, height
	LayoutBSQ     Layout = 3 // plane by plane: width, height, bands
)

func (l Layout) String() string {
	switch l {
	case LayoutBIP:
		return "BIP"
	case LayoutBIL:
		return "BIL"
	case LayoutBSQ:
		return "BSQ"
	}
	return "unknown"
}

// Valid reports whether l names a concrete layout.
func (l Layout) Valid() bool {
	return l == LayoutBIP || l == LayoutBIL || l == LayoutBSQ
}

// ParseLayout accepts BIP/BIL/BSQ in any case.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BIP":
		return LayoutBIP, nil
	case "BIL":
		return LayoutBIL, nil
	case "BSQ":
		return LayoutBSQ, nil
	case "", "UNKNOWN":
		return LayoutUnknown, nil
	}
	return LayoutUnknown, fmt.Errorf("unknown data layout %q", s)
}

// Geometry is the spatial and spectral extent of a buffer.
type Geometry struct {
	Width  int
	Height int
	Bands  int
}

// Pixels returns Width*Height.
func (g Geometry) Pixels() int { return g.Width * g.Height }

// Samples returns Width*Height*Bands.
func (g Geometry) Samples() int { return g.Width * g.Height * g.Bands }

// Valid reports whether every extent is positive.
func (g Geometry) Valid() bool { return g.Width > 0 && g.Height > 0 && g.Bands > 0 }

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d", g.Width, g.Height, g.Bands)
}

// Index returns the flat sample offset of (x, y, b) in layout l.
// The caller guarantees the coordinates are in range and l is valid.
func (l Layout) Index(g Geometry, x, y, b int) int {
	switch l {
	case LayoutBIP:
		return (y*g.Width+x)*g.Bands + b
	case LayoutBIL:
		return (y*g.Bands+b)*g.Width + x
	default: // BSQ
		return (b*g.Height+y)*g.Width + x
	}
}
