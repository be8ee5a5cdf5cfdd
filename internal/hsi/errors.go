package hsi

import (
	"errors"
	"fmt"
)

// Kind groups error codes by the class of failure a caller can react to.
type Kind int

const (
	KindNone Kind = iota
	KindGeneric
	KindNullArgument
	KindOutOfBounds
	KindWrongMode
	KindPrecondition
	KindResourceExhausted
	KindUnsupportedFormat
	KindStateOrdering
	KindDevice
	KindInternal
)

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindGeneric:           "generic",
	KindNullArgument:      "null-argument",
	KindOutOfBounds:       "out-of-bounds",
	KindWrongMode:         "wrong-mode",
	KindPrecondition:      "precondition",
	KindResourceExhausted: "resource-exhausted",
	KindUnsupportedFormat: "unsupported-format",
	KindStateOrdering:     "state-ordering",
	KindDevice:            "device",
	KindInternal:          "internal",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code identifies one error condition of the runtime. Codes are distinct
// identities even when two of them report the same integer status
// (CodeFrameDataType and CodeCubeDataType both report -208).
type Code int

const (
	CodeOK Code = iota
	CodeGeneric

	CodeNullArgument
	CodeDeviceIndex
	CodeProjectNotLoaded
	CodeClassifierNotLoaded
	CodeCorrectionNotLoaded

	CodeModelLoad
	CodeModelFormat
	CodeModelInternal
	CodeModelOpen
	CodeModelProjectType

	CodeNoLabelImage
	CodeExportFormat
	CodeExportWrite

	CodeCorrectionMetadata
	CodeCorrectionDark
	CodeCorrectionMismatch
	CodeCorrectionBothRequired
	CodeCorrectionMissingFile
	CodeCorrectionUnsupported
	CodeCorrectionLoad

	CodeDeviceSwitch
	CodeCUDABackend
	CodeOpenCLBackend
	CodeDeviceListFlags

	CodeObjectLimit
	CodeObjectIndex
	CodeObjectClassIndex
	CodeObjectPolicy
	CodeMaskUndefined
	CodeUnsupportedAcquisition

	CodeAcquisitionRunning
	CodeAcquisitionStopped
	CodeSegmentationCannotProceed
	CodeLayoutNotSet
	CodeDataTypeNotSet

	CodeDecisionIndex
	CodeForegroundIndex

	CodeLineScanCube
	CodeLabelGeometry
	CodeMissingGeometry
	CodeFrameLayout
	CodeUndefinedLayout
	CodeUndefinedDataType
	CodeUnsupportedProject
	CodeFrameDataType
	CodeCubeDataType
	CodeFrameCorrection
	CodeInvalidROI
	CodeFrameOnSnapshot
	CodeCubeOnLineScan
	CodeCubeSegmentation
	CodeROIUnsupported
	CodeInvalidWidth
	CodeLayoutDeclared

	CodeRegVarIndex
	CodeNoRegression
	CodeRegMaskNoSegmentation
)

type codeInfo struct {
	status int
	kind   Kind
	text   string
}

var codeTable = map[Code]codeInfo{
	CodeOK:      {0, KindNone, "ok"},
	CodeGeneric: {-1, KindGeneric, "error"},

	CodeNullArgument:        {-101, KindNullArgument, "passing NULL pointer"},
	CodeDeviceIndex:         {-102, KindOutOfBounds, "device index out of bounds"},
	CodeProjectNotLoaded:    {-103, KindPrecondition, "project not loaded"},
	CodeClassifierNotLoaded: {-104, KindPrecondition, "classifier model not loaded"},
	CodeCorrectionNotLoaded: {-105, KindPrecondition, "project requires a loaded correction"},

	CodeModelLoad:        {-110, KindUnsupportedFormat, "error loading model from file"},
	CodeModelFormat:      {-111, KindUnsupportedFormat, "wrong file format"},
	CodeModelInternal:    {-112, KindInternal, "internal error when loading"},
	CodeModelOpen:        {-113, KindPrecondition, "file cannot be opened"},
	CodeModelProjectType: {-114, KindUnsupportedFormat, "project type not supported by this runtime build"},

	CodeNoLabelImage: {-120, KindPrecondition, "label image does not exist"},
	CodeExportFormat: {-121, KindUnsupportedFormat, "unsupported image file extension"},
	CodeExportWrite:  {-122, KindGeneric, "cannot write image file"},

	CodeCorrectionMetadata:     {-130, KindUnsupportedFormat, "loading meta-data from the correction scan failed"},
	CodeCorrectionDark:         {-131, KindUnsupportedFormat, "error loading dark reference data"},
	CodeCorrectionMismatch:     {-132, KindUnsupportedFormat, "dark and white reference images have different width or band count"},
	CodeCorrectionBothRequired: {-134, KindPrecondition, "both dark and white reference scans need to be loaded"},
	CodeCorrectionMissingFile:  {-135, KindPrecondition, "reference file not present"},
	CodeCorrectionUnsupported:  {-136, KindUnsupportedFormat, "unsupported data layout or data type"},
	CodeCorrectionLoad:         {-137, KindUnsupportedFormat, "cannot load correction scan"},

	CodeDeviceSwitch:    {-140, KindDevice, "error switching to the computation device"},
	CodeCUDABackend:     {-141, KindDevice, "error setting CUDA backend"},
	CodeOpenCLBackend:   {-142, KindDevice, "error setting OpenCL backend"},
	CodeDeviceListFlags: {-143, KindOutOfBounds, "listNVIDIA and listOpenCL must be specified as 0 or 1 values"},

	CodeObjectLimit:            {-160, KindResourceExhausted, "max number of objects reached"},
	CodeObjectIndex:            {-161, KindOutOfBounds, "object index out of bounds"},
	CodeObjectClassIndex:       {-162, KindOutOfBounds, "class index out of bounds (0..9)"},
	CodeObjectPolicy:           {-163, KindWrongMode, "segmentation not set to required 'all foreground' mode"},
	CodeMaskUndefined:          {-164, KindPrecondition, "object segmentation not defined"},
	CodeUnsupportedAcquisition: {-165, KindUnsupportedFormat, "project and acquisition type unsupported"},

	CodeAcquisitionRunning:        {-170, KindStateOrdering, "acquisition already running"},
	CodeAcquisitionStopped:        {-171, KindStateOrdering, "acquisition not running"},
	CodeSegmentationCannotProceed: {-172, KindPrecondition, "object segmentation cannot proceed"},
	CodeLayoutNotSet:              {-173, KindPrecondition, "input data layout not set"},
	CodeDataTypeNotSet:            {-174, KindPrecondition, "input data type not set"},

	CodeDecisionIndex:   {-180, KindOutOfBounds, "decision index out of bounds"},
	CodeForegroundIndex: {-190, KindOutOfBounds, "foreground class index out of bounds"},

	CodeLineScanCube:          {-201, KindWrongMode, "line-scan project type cannot process cubes"},
	CodeLabelGeometry:         {-202, KindPrecondition, "label image dimension mismatch"},
	CodeMissingGeometry:       {-203, KindPrecondition, "missing image geometry description"},
	CodeFrameLayout:           {-204, KindUnsupportedFormat, "line-scan processing requires BIL layout"},
	CodeUndefinedLayout:       {-205, KindPrecondition, "undefined data layout"},
	CodeUndefinedDataType:     {-206, KindPrecondition, "undefined data type"},
	CodeUnsupportedProject:    {-207, KindUnsupportedFormat, "unsupported project type"},
	CodeFrameDataType:         {-208, KindUnsupportedFormat, "unsupported data type"},
	CodeCubeDataType:          {-208, KindUnsupportedFormat, "unsupported data type or data layout"},
	CodeFrameCorrection:       {-209, KindWrongMode, "correction not supported"},
	CodeInvalidROI:            {-210, KindOutOfBounds, "invalid ROI specification"},
	CodeFrameOnSnapshot:       {-211, KindWrongMode, "line-scan project type expected, got snapshot"},
	CodeCubeOnLineScan:        {-212, KindWrongMode, "snapshot project type expected, got linescan"},
	CodeCubeSegmentation:      {-213, KindInternal, "object segmentation error"},
	CodeROIUnsupported:        {-221, KindWrongMode, "ROI processing unsupported for this project type"},
	CodeInvalidWidth:          {-230, KindOutOfBounds, "width value must be positive"},
	CodeLayoutDeclared:        {-231, KindStateOrdering, "data layout or data type already declared by the model"},
	CodeRegVarIndex:           {-301, KindOutOfBounds, "variable index out of bounds"},
	CodeNoRegression:          {-302, KindPrecondition, "no regression model available"},
	CodeRegMaskNoSegmentation: {-303, KindPrecondition, "masking cannot be used as segmentation is not enabled"},
}

// Status returns the integer status reported for c.
func (c Code) Status() int {
	if info, ok := codeTable[c]; ok {
		return info.status
	}
	return -1
}

// Kind returns the failure class of c.
func (c Code) Kind() Kind {
	if info, ok := codeTable[c]; ok {
		return info.kind
	}
	return KindGeneric
}

// String returns the fixed message attached to c.
func (c Code) String() string {
	if info, ok := codeTable[c]; ok {
		return info.text
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is the error type returned by every runtime operation.
type Error struct {
	Code Code
	Op   string // operation that failed, e.g. "ProcessFrame"
	Msg  string // optional detail
	Err  error  // optional cause
}

// Errorf builds an *Error with a formatted detail message.
func Errorf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a code. A nil err still yields an *Error.
func Wrap(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// New builds an *Error with no detail.
func New(code Code, op string) *Error {
	return &Error{Code: code, Op: op}
}

func (e *Error) Error() string {
	s := e.Code.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s (%d)", s, e.Code.Status())
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Code. Op, Msg and
// Err are ignored so sentinel values such as ErrObjectLimit match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNullArgument        = New(CodeNullArgument, "")
	ErrProjectNotLoaded    = New(CodeProjectNotLoaded, "")
	ErrAcquisitionRunning  = New(CodeAcquisitionRunning, "")
	ErrAcquisitionStopped  = New(CodeAcquisitionStopped, "")
	ErrObjectLimit         = New(CodeObjectLimit, "")
	ErrObjectPolicy        = New(CodeObjectPolicy, "")
	ErrCorrectionMismatch  = New(CodeCorrectionMismatch, "")
	ErrLineScanCube        = New(CodeLineScanCube, "")
	ErrFrameOnSnapshot     = New(CodeFrameOnSnapshot, "")
	ErrDeviceSwitch        = New(CodeDeviceSwitch, "")
	ErrRegMaskNoSegmenting = New(CodeRegMaskNoSegmentation, "")
)

// CodeOf extracts the Code carried by err. nil maps to CodeOK and errors
// that did not originate in the runtime map to CodeGeneric.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneric
}

// Status maps err to the integer status used at the runtime boundary:
// 0 on success, a negative code otherwise.
func Status(err error) int {
	return CodeOf(err).Status()
}

// KindOf returns the failure class of err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}
