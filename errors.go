// FILE: lixenwraith/bridge/errors.go
package bridge

import "errors"

// Structural conversion errors
var (
	ErrDepthExceeded   = errors.New("bridge: value graph exceeds maximum depth")
	ErrPatternInvalid  = errors.New("bridge: invalid pattern")
	ErrMatchTimeout    = errors.New("bridge: pattern match timed out")
	ErrUnsupportedType = errors.New("bridge: unsupported type")
	ErrValueSize       = errors.New("bridge: value exceeds size limit")
)

// Helper errors
var (
	ErrDateFormat           = errors.New("bridge: invalid date pattern")
	ErrNotSequence          = errors.New("bridge: value is not a sequence")
	ErrIndexOutOfRange      = errors.New("bridge: index out of range")
	ErrRaggedRows           = errors.New("bridge: rows have different lengths")
	ErrTransformUnknown     = errors.New("bridge: unknown transform")
	ErrLocationUnresolvable = errors.New("bridge: location cannot be resolved")
	ErrDocumentFormat       = errors.New("bridge: unsupported document format")
)

// Configuration errors
var (
	ErrConfigNotFound = errors.New("bridge: configuration file not found")
	ErrCLIParse       = errors.New("bridge: failed to parse command line")
	ErrEnvParse       = errors.New("bridge: failed to parse environment")
	ErrFileAccess     = errors.New("bridge: configuration file access denied")
	ErrFileFormat     = errors.New("bridge: unsupported configuration format")
)
