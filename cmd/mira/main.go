// Command mira loads a classification project, optionally a correction
// scan, and runs recorded line-scan frames or a snapshot cube through the
// runtime. Results are exported as images, an HTML object report and an
// optional sqlite object log.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/banshee-data/hyperspectral/internal/config"
	"github.com/banshee-data/hyperspectral/internal/db"
	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/acquisition"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l4classify"
	"github.com/banshee-data/hyperspectral/internal/hsi/pipeline"
	"github.com/banshee-data/hyperspectral/internal/monitoring"
	"github.com/banshee-data/hyperspectral/internal/security"
	"github.com/banshee-data/hyperspectral/internal/version"
)

type options struct {
	model         string
	config        string
	correctionDir string
	scan          string
	frames        string
	cube          string
	roi           string
	save          string
	heatmap       string
	report        string
	outDir        string
	dbPath        string
	device        int
	listDevices   bool
	frameRate     float64
	timeout       time.Duration
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("mira", flag.ContinueOnError)
	fs.StringVar(&o.model, "model", env("MIRA_MODEL", ""), "project file (.json)")
	fs.StringVar(&o.config, "config", env("MIRA_CONFIG", ""), "runtime config (.json); built-in defaults if empty")
	fs.StringVar(&o.correctionDir, "correction-dir", env("MIRA_CORRECTION_DIR", ""), "directory holding correction scans")
	fs.StringVar(&o.scan, "scan", env("MIRA_SCAN", ""), "correction scan name within -correction-dir")
	fs.StringVar(&o.frames, "frames", "", "raw uint16 BIL frame recording (line-scan projects)")
	fs.StringVar(&o.cube, "cube", "", "raw cube in the project's data type and layout (snapshot projects)")
	fs.StringVar(&o.roi, "roi", "", "cube region of interest: col,row,width,height,outside")
	fs.StringVar(&o.save, "save", "", "write the last decision mask to this .png")
	fs.StringVar(&o.heatmap, "heatmap", "", "write regression variable 0 of the last output to this .png")
	fs.StringVar(&o.report, "report", "", "write an HTML object report")
	fs.StringVar(&o.outDir, "out-dir", env("MIRA_OUT_DIR", ""), "directory for exports; relative export paths are placed here")
	fs.StringVar(&o.dbPath, "db", env("MIRA_DB", ""), "sqlite object log")
	fs.IntVar(&o.device, "device", -1, "compute device index; config default if negative")
	fs.BoolVar(&o.listDevices, "list-devices", false, "list compute devices and exit")
	fs.Float64Var(&o.frameRate, "frame-rate", 0, "replay pacing in frames per second; 0 replays at full speed")
	fs.DurationVar(&o.timeout, "timeout", 2*time.Second, "per-frame timeout")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *showVersion {
		fmt.Println(version.String())
		return nil, nil
	}
	return o, nil
}

func parseROI(s string) (l4classify.ROI, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return l4classify.ROI{}, errors.Errorf("roi %q: want col,row,width,height,outside", s)
	}
	v := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return l4classify.ROI{}, errors.Wrapf(err, "roi %q", s)
		}
		v[i] = n
	}
	if v[4] < 0 || v[4] > 255 {
		return l4classify.ROI{}, errors.Errorf("roi outside value %d does not fit a decision", v[4])
	}
	return l4classify.ROI{Col: v[0], Row: v[1], Width: v[2], Height: v[3], Outside: uint8(v[4])}, nil
}

func run(ctx context.Context, o *options) error {
	log := monitoring.Component("mira")

	cfg := config.DefaultRuntimeConfig()
	if o.config != "" {
		var err error
		if cfg, err = config.LoadRuntimeConfig(o.config); err != nil {
			return err
		}
	}
	if o.device >= 0 {
		cfg.DeviceIndex = &o.device
	}

	var opts []pipeline.Option
	dbPath := o.dbPath
	if dbPath == "" {
		dbPath = cfg.GetObjectLogDB()
	}
	if dbPath != "" {
		database, err := db.NewDB(dbPath)
		if err != nil {
			return errors.Wrap(err, "open object log")
		}
		defer database.Close()
		opts = append(opts, pipeline.WithObjectSink(db.NewObjectLog(database, o.model)))
	}

	h, err := pipeline.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer h.Close()

	if o.listDevices {
		for i := 0; i < h.DeviceCount(); i++ {
			name, _ := h.DeviceName(i)
			fmt.Printf("%d\t%s\n", i, name)
		}
		return nil
	}

	if o.model == "" {
		return errors.New("-model is required")
	}
	if err := h.LoadModel(o.model); err != nil {
		return err
	}
	if o.correctionDir != "" && o.scan != "" {
		if err := h.LoadCorrection(o.correctionDir, o.scan); err != nil {
			return err
		}
	}
	kind, err := h.ProjectKind()
	if err != nil {
		return err
	}
	if o.roi != "" {
		roi, err := parseROI(o.roi)
		if err != nil {
			return err
		}
		if err := h.SetCubeROI(roi.Col, roi.Row, roi.Width, roi.Height, roi.Outside); err != nil {
			return err
		}
	}

	if err := h.StartAcquisition(); err != nil {
		return err
	}
	switch kind {
	case l3model.KindLineScan:
		if o.frames == "" {
			return errors.New("-frames is required for line-scan projects")
		}
		if err := replayFrames(ctx, h, o); err != nil {
			return err
		}
	case l3model.KindSnapshot:
		if o.cube == "" {
			return errors.New("-cube is required for snapshot projects")
		}
		if err := processCube(h, o.cube); err != nil {
			return err
		}
	}
	if err := h.StopAcquisition(); err != nil {
		log.Warn().Err(err).Int("status", hsi.Status(err)).Msg("stop reported an error")
	}

	log.Info().Int("objects", h.ObjCount()).Str("run", h.RunID().String()).Msg("run complete")
	return export(h, o)
}

func replayFrames(ctx context.Context, h *pipeline.Handle, o *options) error {
	width, err := h.Width()
	if err != nil {
		return err
	}
	bands, err := h.Bands()
	if err != nil {
		return err
	}
	src := acquisition.NewRawFileSource(fsutil.OSFileSystem{}, o.frames, width, bands, 0, 0)
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()
	if err := src.SetFrameRate(o.frameRate); err != nil {
		return err
	}
	n, err := acquisition.Replay(ctx, src, h, o.timeout)
	monitoring.Logf("replayed %d frames from %s", n, o.frames)
	return err
}

func processCube(h *pipeline.Handle, path string) error {
	dt, err := h.DataType()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read cube")
	}
	buf, err := l1samples.DecodeLE(raw, dt)
	if err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return h.ProcessCube(buf)
}

// resolveOutputs confines export paths to -out-dir and fills in default
// names derived from the model file when none were given.
func resolveOutputs(o *options) error {
	if o.outDir == "" {
		return nil
	}
	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	base := security.SanitizeFilename(strings.TrimSuffix(filepath.Base(o.model), filepath.Ext(o.model)))
	if o.save == "" {
		o.save = base + "_mask.png"
	}
	if o.report == "" {
		o.report = base + "_objects.html"
	}
	for _, p := range []*string{&o.save, &o.heatmap, &o.report} {
		resolved, err := security.OutputPath(o.outDir, *p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}

func export(h *pipeline.Handle, o *options) error {
	if err := resolveOutputs(o); err != nil {
		return err
	}
	if o.save != "" {
		if err := h.SaveImage(o.save); err != nil {
			return err
		}
	}
	if o.heatmap != "" {
		if err := h.SaveRegressionHeatmap(o.heatmap, 0); err != nil {
			return err
		}
	}
	if o.report != "" {
		if err := h.SaveObjectReport(o.report); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if o == nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Fprintf(os.Stderr, "mira: %v\n", err)
		if status := hsi.Status(err); status != 0 && status != -1 {
			os.Exit(-status % 256)
		}
		os.Exit(1)
	}
}
