package pipeline

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/banshee-data/hyperspectral/internal/config"
	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l0device"
	"github.com/banshee-data/hyperspectral/internal/hsi/l2correction"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l4classify"
	"github.com/banshee-data/hyperspectral/internal/hsi/l5segment"
	"github.com/banshee-data/hyperspectral/internal/hsi/l6objects"
	"github.com/banshee-data/hyperspectral/internal/monitoring"
)

// State is the acquisition state of a handle.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateSnapshotReady
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateSnapshotReady:
		return "snapshot-ready"
	}
	return "idle"
}

// ObjectSink receives every finalised object of a run, after it has been
// stored. Sink errors are logged and never fail processing.
type ObjectSink interface {
	Record(runID uuid.UUID, rec l6objects.Record) error
}

// Option configures a Handle.
type Option func(*Handle)

// WithFileSystem sets the filesystem used by loaders and SaveImage.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(h *Handle) { h.fsys = fsys }
}

// WithRegistry sets the compute backend registry.
func WithRegistry(reg *l0device.Registry) Option {
	return func(h *Handle) { h.registry = reg }
}

// WithObjectSink forwards finalised objects to sink.
func WithObjectSink(sink ObjectSink) Option {
	return func(h *Handle) { h.sink = sink }
}

// Handle is one runtime instance. Calls on a handle are serialised
// internally, but outputs such as FrameDecisions are only valid until the
// next processing call.
type Handle struct {
	cfg      *config.RuntimeConfig
	fsys     fsutil.FileSystem
	registry *l0device.Registry
	devices  *l0device.Context
	sink     ObjectSink
	log      zerolog.Logger

	model      *l3model.Model
	correction *l2correction.Store
	classifier *l4classify.Engine

	minSize      int
	segmentation bool
	foreground   []bool
	roi          *l4classify.ROI

	state   State
	runID   uuid.UUID
	tracker *l5segment.Tracker
	objects *l6objects.Store
	summary l6objects.Summary

	result  *l4classify.Result // last committed output
	scratch *l4classify.Result
	corrBuf []float32

	lastErr error

	mu sync.Mutex
}

// New creates a handle. A nil cfg uses the built-in defaults. The device
// named by cfg's device_index is selected immediately.
func New(cfg *config.RuntimeConfig, opts ...Option) (*Handle, error) {
	if cfg == nil {
		cfg = config.DefaultRuntimeConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, hsi.Wrap(hsi.CodeGeneric, "New", err)
	}

	h := &Handle{
		cfg:          cfg,
		fsys:         fsutil.OSFileSystem{},
		minSize:      cfg.GetMinObjectSize(),
		segmentation: cfg.GetSegmentationEnabled(),
		summary:      l6objects.ParseSummary(cfg.GetRegressionSummary()),
		result:       &l4classify.Result{},
		scratch:      &l4classify.Result{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registry == nil {
		h.registry = l0device.DefaultRegistry(h.fsys, cfg.GetWorkers())
	}

	h.runID = uuid.New()
	h.log = monitoring.Component("pipeline").With().Str("handle", h.runID.String()[:8]).Logger()
	h.objects = l6objects.NewStore(cfg.GetMaxObjects(), l3model.MaskUndefined)
	h.devices = l0device.NewContext(h.registry)

	if err := h.devices.Refresh(cfg.GetListCUDA(), cfg.GetListOpenCL()); err != nil {
		return nil, err
	}
	if err := h.devices.Select(cfg.GetDeviceIndex()); err != nil {
		return nil, err
	}
	dev, _ := h.devices.Selected()
	h.log.Info().Str("device", dev.Name).Int("workers", dev.Workers).Msg("handle created")
	return h, nil
}

// done records err as the outcome of the current call and returns it.
func (h *Handle) done(err error) error {
	h.lastErr = err
	if err != nil {
		h.log.Debug().Err(err).Int("status", hsi.Status(err)).Msg("call failed")
	}
	return err
}

// LastErrorCode returns the integer status of the last call.
func (h *Handle) LastErrorCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return hsi.Status(h.lastErr)
}

// LastErrorMsg returns a human-readable description of the last call's
// outcome, or "" after a successful call.
func (h *Handle) LastErrorMsg() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastErr == nil {
		return ""
	}
	return h.lastErr.Error()
}

// State returns the acquisition state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// RunID identifies the current (or last) acquisition run.
func (h *Handle) RunID() uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runID
}

// Close stops a running acquisition. The handle must not be used after.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateIdle {
		return nil
	}
	return h.stopLocked()
}

func (h *Handle) running() bool { return h.state != StateIdle }

func (h *Handle) requireModel(op string) error {
	if h.model == nil {
		return hsi.New(hsi.CodeProjectNotLoaded, op)
	}
	return nil
}

func (h *Handle) requireIdle(op string) error {
	if h.running() {
		return hsi.Errorf(hsi.CodeAcquisitionRunning, op, "state %s", h.state)
	}
	return nil
}
