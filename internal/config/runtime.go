package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath is the path to the canonical runtime defaults file.
const DefaultConfigPath = "config/runtime.defaults.json"

// RuntimeConfig holds the tunable parameters of a runtime handle. Every
// field is optional; the Get* accessors supply defaults for omitted fields,
// so partial files are safe.
type RuntimeConfig struct {
	// Segmentation
	MinObjectSize       *int  `json:"min_object_size,omitempty"`
	SegmentationEnabled *bool `json:"segmentation_enabled,omitempty"`
	MaxOpenObjects      *int  `json:"max_open_objects,omitempty"` // open objects tracked per frame
	MaxObjects          *int  `json:"max_objects,omitempty"`      // finalised object table capacity
	Connectivity        *int  `json:"connectivity,omitempty"`     // 4 or 8

	// Device
	ListCUDA    *bool `json:"list_cuda,omitempty"`
	ListOpenCL  *bool `json:"list_opencl,omitempty"`
	DeviceIndex *int  `json:"device_index,omitempty"`
	Workers     *int  `json:"workers,omitempty"` // 0 = one per CPU

	// Object statistics
	RegressionSummary *string `json:"regression_summary,omitempty"` // "mean" or "median"

	// Optional sqlite object log; empty disables it.
	ObjectLogDB *string `json:"object_log_db,omitempty"`
}

func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyRuntimeConfig returns a RuntimeConfig with all fields unset.
func EmptyRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{}
}

// DefaultRuntimeConfig returns a config with every field populated with
// its built-in default. It does not touch the filesystem.
func DefaultRuntimeConfig() *RuntimeConfig {
	empty := EmptyRuntimeConfig()
	return &RuntimeConfig{
		MinObjectSize:       ptrInt(empty.GetMinObjectSize()),
		SegmentationEnabled: ptrBool(empty.GetSegmentationEnabled()),
		MaxOpenObjects:      ptrInt(empty.GetMaxOpenObjects()),
		MaxObjects:          ptrInt(empty.GetMaxObjects()),
		Connectivity:        ptrInt(empty.GetConnectivity()),
		ListCUDA:            ptrBool(empty.GetListCUDA()),
		ListOpenCL:          ptrBool(empty.GetListOpenCL()),
		DeviceIndex:         ptrInt(empty.GetDeviceIndex()),
		Workers:             ptrInt(0),
		RegressionSummary:   ptrString(empty.GetRegressionSummary()),
		ObjectLogDB:         ptrString(""),
	}
}

// LoadRuntimeConfig loads a RuntimeConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRuntimeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *RuntimeConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/hsi/pipeline/
		"../../../../" + DefaultConfigPath,    // from internal/hsi/l4classify/testdata/
		"../../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRuntimeConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RuntimeConfig) Validate() error {
	if c.MinObjectSize != nil && *c.MinObjectSize < 0 {
		return fmt.Errorf("min_object_size must be non-negative, got %d", *c.MinObjectSize)
	}
	if c.MaxOpenObjects != nil && *c.MaxOpenObjects <= 0 {
		return fmt.Errorf("max_open_objects must be positive, got %d", *c.MaxOpenObjects)
	}
	if c.MaxObjects != nil && *c.MaxObjects <= 0 {
		return fmt.Errorf("max_objects must be positive, got %d", *c.MaxObjects)
	}
	if c.Connectivity != nil && *c.Connectivity != 4 && *c.Connectivity != 8 {
		return fmt.Errorf("connectivity must be 4 or 8, got %d", *c.Connectivity)
	}
	if c.DeviceIndex != nil && *c.DeviceIndex < 0 {
		return fmt.Errorf("device_index must be non-negative, got %d", *c.DeviceIndex)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.RegressionSummary != nil {
		switch *c.RegressionSummary {
		case "", "mean", "median":
		default:
			return fmt.Errorf("regression_summary must be \"mean\" or \"median\", got %q", *c.RegressionSummary)
		}
	}
	return nil
}

// GetMinObjectSize returns the min_object_size value or the default.
func (c *RuntimeConfig) GetMinObjectSize() int {
	if c.MinObjectSize == nil {
		return 20
	}
	return *c.MinObjectSize
}

// GetSegmentationEnabled returns the segmentation_enabled value or the default.
func (c *RuntimeConfig) GetSegmentationEnabled() bool {
	if c.SegmentationEnabled == nil {
		return true
	}
	return *c.SegmentationEnabled
}

// GetMaxOpenObjects returns the max_open_objects value or the default.
func (c *RuntimeConfig) GetMaxOpenObjects() int {
	if c.MaxOpenObjects == nil {
		return 256
	}
	return *c.MaxOpenObjects
}

// GetMaxObjects returns the max_objects value or the default.
func (c *RuntimeConfig) GetMaxObjects() int {
	if c.MaxObjects == nil {
		return 4096
	}
	return *c.MaxObjects
}

// GetConnectivity returns the connectivity value or the default.
func (c *RuntimeConfig) GetConnectivity() int {
	if c.Connectivity == nil {
		return 8
	}
	return *c.Connectivity
}

// GetListCUDA returns the list_cuda value or the default.
func (c *RuntimeConfig) GetListCUDA() bool {
	if c.ListCUDA == nil {
		return false
	}
	return *c.ListCUDA
}

// GetListOpenCL returns the list_opencl value or the default.
func (c *RuntimeConfig) GetListOpenCL() bool {
	if c.ListOpenCL == nil {
		return false
	}
	return *c.ListOpenCL
}

// GetDeviceIndex returns the device_index value or the default.
func (c *RuntimeConfig) GetDeviceIndex() int {
	if c.DeviceIndex == nil {
		return 0
	}
	return *c.DeviceIndex
}

// GetWorkers returns the worker count, resolving 0 to runtime.NumCPU().
func (c *RuntimeConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetRegressionSummary returns the regression_summary value or the default.
func (c *RuntimeConfig) GetRegressionSummary() string {
	if c.RegressionSummary == nil || *c.RegressionSummary == "" {
		return "mean"
	}
	return *c.RegressionSummary
}

// GetObjectLogDB returns the object_log_db path; empty disables logging.
func (c *RuntimeConfig) GetObjectLogDB() string {
	if c.ObjectLogDB == nil {
		return ""
	}
	return *c.ObjectLogDB
}
