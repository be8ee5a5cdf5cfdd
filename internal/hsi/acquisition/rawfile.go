package acquisition

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/monitoring"
	"github.com/banshee-data/hyperspectral/internal/timeutil"
)

// RawFileSource replays a file of consecutive little-endian uint16 BIL
// frames. With a frame rate set, frames are paced at that rate;
// otherwise they are delivered as fast as they are read.
type RawFileSource struct {
	fsys  fsutil.FileSystem
	path  string
	width int
	bands int

	mu          sync.Mutex
	clock       timeutil.Clock
	file        io.ReadCloser
	streaming   bool
	frameRate   float64
	exposure    time.Duration
	wavelengths []float64
	features    map[string]Value
	next        time.Time
	frames      int
	buf         []byte
}

// NewRawFileSource returns a source for path holding frames of width x
// bands samples. Wavelengths are spread evenly over [first, last] nm.
func NewRawFileSource(fsys fsutil.FileSystem, path string, width, bands int, first, last float64) *RawFileSource {
	wl := make([]float64, bands)
	for i := range wl {
		if bands > 1 {
			wl[i] = first + (last-first)*float64(i)/float64(bands-1)
		} else {
			wl[i] = first
		}
	}
	return &RawFileSource{
		fsys:        fsys,
		clock:       timeutil.RealClock{},
		path:        path,
		width:       width,
		bands:       bands,
		wavelengths: wl,
		features: map[string]Value{
			"DeviceModelName": StringValue("raw-file"),
			"Binning":         IntValue(1),
			"ReverseX":        BoolValue(false),
			"Gain":            FloatValue(1),
		},
	}
}

// SetClock replaces the clock that paces frames.
func (s *RawFileSource) SetClock(c timeutil.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

func (s *RawFileSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width <= 0 || s.bands <= 0 {
		return errors.Errorf("invalid frame geometry %dx%d", s.width, s.bands)
	}
	if s.file != nil {
		return nil
	}
	f, err := s.fsys.Open(s.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", s.path)
	}
	s.file = f
	s.buf = make([]byte, s.width*s.bands*2)
	s.frames = 0
	monitoring.Logf("replaying %s as %dx%d uint16 BIL frames", s.path, s.width, s.bands)
	return nil
}

func (s *RawFileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *RawFileSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("camera not open")
	}
	s.streaming = true
	s.next = s.clock.Now()
	return nil
}

func (s *RawFileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	return nil
}

// NextFrame reads the next frame. A trailing partial frame ends the
// stream.
func (s *RawFileSource) NextFrame(ctx context.Context, timeout time.Duration) ([]uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streaming {
		return nil, ErrNotStreaming
	}

	if s.frameRate > 0 {
		wait := s.clock.Until(s.next)
		if timeout > 0 && wait > timeout {
			return nil, ErrTimeout
		}
		if wait > 0 {
			timer := s.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C():
			}
		}
		s.next = s.next.Add(time.Duration(float64(time.Second) / s.frameRate))
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(s.file, s.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			monitoring.Logf("%s drained after %d frames", s.path, s.frames)
			return nil, ErrEndOfStream
		}
		return nil, errors.Wrapf(err, "read frame %d", s.frames)
	}
	buf, err := l1samples.DecodeLE(s.buf, l1samples.DataTypeUint16)
	if err != nil {
		return nil, err
	}
	s.frames++
	return buf.U16, nil
}

func (s *RawFileSource) Width() int { return s.width }
func (s *RawFileSource) Bands() int { return s.bands }

func (s *RawFileSource) Wavelengths() []float64 {
	return append([]float64(nil), s.wavelengths...)
}

func (s *RawFileSource) Exposure() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposure
}

func (s *RawFileSource) SetExposure(d time.Duration) error {
	if d < 0 {
		return errors.Errorf("negative exposure %s", d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposure = d
	return nil
}

func (s *RawFileSource) FrameRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameRate
}

// SetFrameRate paces replay at hz frames per second; 0 disables pacing.
func (s *RawFileSource) SetFrameRate(hz float64) error {
	if hz < 0 {
		return errors.Errorf("negative frame rate %g", hz)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameRate = hz
	return nil
}

func (s *RawFileSource) Feature(name string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.features[name]
	if !ok {
		return Value{}, errors.Wrap(ErrUnknownFeature, name)
	}
	return v, nil
}

// SetFeature replaces an existing feature; the kind must not change.
func (s *RawFileSource) SetFeature(name string, v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.features[name]
	if !ok {
		return errors.Wrap(ErrUnknownFeature, name)
	}
	if cur.Kind != v.Kind {
		return errors.Wrapf(ErrFeatureType, "%s is %s, got %s", name, cur.Kind, v.Kind)
	}
	s.features[name] = v
	return nil
}
