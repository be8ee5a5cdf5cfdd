package acquisition

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrTimeout is returned by NextFrame when no frame arrived in time.
	ErrTimeout = errors.New("frame timeout")
	// ErrEndOfStream is returned by NextFrame when a finite source is drained.
	ErrEndOfStream = errors.New("end of stream")
	// ErrNotStreaming is returned by NextFrame outside Start/Stop.
	ErrNotStreaming = errors.New("camera not streaming")
	// ErrUnknownFeature is returned for a feature name the device lacks.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrFeatureType is returned when a feature is read or set with the wrong type.
	ErrFeatureType = errors.New("feature type mismatch")
)

// FeatureKind is the value type of a device feature.
type FeatureKind int

const (
	FeatureInt FeatureKind = iota
	FeatureFloat
	FeatureBool
	FeatureString
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureInt:
		return "int"
	case FeatureFloat:
		return "float"
	case FeatureBool:
		return "bool"
	case FeatureString:
		return "string"
	}
	return "unknown"
}

// Value is a typed feature value.
type Value struct {
	Kind FeatureKind
	Int  int64
	Flt  float64
	Bool bool
	Str  string
}

// IntValue wraps an integer feature value.
func IntValue(v int64) Value { return Value{Kind: FeatureInt, Int: v} }

// FloatValue wraps a floating-point feature value.
func FloatValue(v float64) Value { return Value{Kind: FeatureFloat, Flt: v} }

// BoolValue wraps a boolean feature value.
func BoolValue(v bool) Value { return Value{Kind: FeatureBool, Bool: v} }

// StringValue wraps a string feature value.
func StringValue(v string) Value { return Value{Kind: FeatureString, Str: v} }

// Camera is a line-scan device delivering raw uint16 BIL frames of
// Width x Bands samples.
type Camera interface {
	Open() error
	Close() error
	Start() error
	Stop() error

	// NextFrame blocks until the next frame, the timeout or ctx ends.
	// The returned slice is owned by the caller.
	NextFrame(ctx context.Context, timeout time.Duration) ([]uint16, error)

	Width() int
	Bands() int
	Wavelengths() []float64

	Exposure() time.Duration
	SetExposure(d time.Duration) error
	FrameRate() float64
	SetFrameRate(hz float64) error

	Feature(name string) (Value, error)
	SetFeature(name string, v Value) error
}

// FrameProcessor consumes frames; the pipeline handle implements it.
type FrameProcessor interface {
	ProcessFrame(frame []uint16) error
}

// Replay pulls frames from cam into p until the camera is drained, ctx
// ends or p fails. It returns the number of frames processed. A drained
// source is not an error.
func Replay(ctx context.Context, cam Camera, p FrameProcessor, timeout time.Duration) (int, error) {
	if err := cam.Start(); err != nil {
		return 0, errors.Wrap(err, "start camera")
	}
	defer cam.Stop()

	n := 0
	for {
		frame, err := cam.NextFrame(ctx, timeout)
		if errors.Is(err, ErrEndOfStream) {
			return n, nil
		}
		if err != nil {
			return n, errors.Wrapf(err, "frame %d", n)
		}
		if err := p.ProcessFrame(frame); err != nil {
			return n, errors.Wrapf(err, "process frame %d", n)
		}
		n++
	}
}
