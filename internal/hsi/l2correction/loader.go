package l2correction

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/monitoring"
)

const (
	maxMetaBytes      = 1 << 20
	maxReferenceBytes = 512 << 20
)

// ReferenceMeta describes one raw reference scan file.
type ReferenceMeta struct {
	File  string `json:"file"`
	Width int    `json:"width"`
	Bands int    `json:"bands"`
	Lines int    `json:"lines"`
}

// ScanMeta is the metadata document of a correction scan, stored as
// <dir>/<scan>.json next to the raw reference files.
type ScanMeta struct {
	DataType   string         `json:"data_type"`
	DataLayout string         `json:"data_layout"`
	Dark       *ReferenceMeta `json:"dark"`
	White      *ReferenceMeta `json:"white"`
}

// MetaPath returns the metadata path of scan inside dir.
func MetaPath(dir, scan string) string {
	if strings.HasSuffix(scan, ".json") {
		return filepath.Join(dir, scan)
	}
	return filepath.Join(dir, scan+".json")
}

// Load reads the correction scan named scan from dir. A failed load
// returns no store; callers keep whatever correction they had before.
func Load(fsys fsutil.FileSystem, dir, scan string) (*Store, error) {
	const op = "LoadCorrection"
	if dir == "" || scan == "" {
		return nil, hsi.Errorf(hsi.CodeNullArgument, op, "directory and scan name are required")
	}

	metaPath := MetaPath(dir, scan)
	raw, err := fsutil.ReadFileLimit(fsys, metaPath, maxMetaBytes)
	if err != nil {
		return nil, hsi.Wrap(hsi.CodeCorrectionLoad, op, errors.Wrapf(err, "read scan metadata %s", metaPath))
	}

	var meta ScanMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, hsi.Wrap(hsi.CodeCorrectionMetadata, op, errors.Wrapf(err, "parse %s", metaPath))
	}
	if meta.Dark == nil || meta.White == nil || meta.Dark.File == "" || meta.White.File == "" {
		return nil, hsi.Errorf(hsi.CodeCorrectionBothRequired, op, "%s lists dark=%v white=%v", metaPath, meta.Dark != nil, meta.White != nil)
	}

	dt, err := l1samples.ParseDataType(meta.DataType)
	if err != nil || (dt != l1samples.DataTypeUint16 && dt != l1samples.DataTypeFloat) {
		return nil, hsi.Errorf(hsi.CodeCorrectionUnsupported, op, "data type %q", meta.DataType)
	}
	layout, err := l1samples.ParseLayout(meta.DataLayout)
	if err != nil || !layout.Valid() {
		return nil, hsi.Errorf(hsi.CodeCorrectionUnsupported, op, "data layout %q", meta.DataLayout)
	}

	dark, err := readReference(fsys, dir, meta.Dark, dt, layout, hsi.CodeCorrectionDark)
	if err != nil {
		return nil, err
	}
	white, err := readReference(fsys, dir, meta.White, dt, layout, hsi.CodeCorrectionLoad)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(scan, dark, white)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("loaded %s from %s", store, dir)
	return store, nil
}

func readReference(fsys fsutil.FileSystem, dir string, rm *ReferenceMeta, dt l1samples.DataType, layout l1samples.Layout, decodeCode hsi.Code) (Reference, error) {
	const op = "LoadCorrection"
	path := fsutil.Resolve(dir, rm.File)
	data, err := fsutil.ReadFileLimit(fsys, path, maxReferenceBytes)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Reference{}, hsi.Errorf(hsi.CodeCorrectionMissingFile, op, "%s", path)
		}
		return Reference{}, hsi.Wrap(decodeCode, op, errors.Wrapf(err, "read %s", path))
	}

	lines := rm.Lines
	if lines <= 0 {
		lines = 1
	}
	geom := l1samples.Geometry{Width: rm.Width, Height: lines, Bands: rm.Bands}
	buf, err := l1samples.DecodeLE(data, dt)
	if err != nil {
		return Reference{}, hsi.Wrap(decodeCode, op, errors.Wrapf(err, "decode %s", path))
	}
	if buf.Len() != geom.Samples() {
		return Reference{}, hsi.Errorf(decodeCode, op, "%s holds %d samples, metadata declares %s", path, buf.Len(), geom)
	}
	view, err := l1samples.NewView(buf, layout, geom)
	if err != nil {
		return Reference{}, hsi.Wrap(decodeCode, op, err)
	}
	return AverageReference(view), nil
}
