// Package constants provides shared constants used across the codebase.
package constants

// Nearest search constants
const (
	// DefaultNearestK is the number of neighbours returned when k is not given
	DefaultNearestK = 5

	// MaxNearestK caps k for nearest searches coming from the API
	MaxNearestK = 100
)

// Upload constants
const (
	// MaxImageUploadSize is the largest image accepted by the HTTP API (10 MB)
	MaxImageUploadSize = 10 << 20

	// MaxJSONBodySize bounds JSON request bodies (1 MB)
	MaxJSONBodySize = 1 << 20
)

// Processing constants
const (
	// ImportWorkerPoolSize is the default number of parallel extractor calls during import
	ImportWorkerPoolSize = 4
)

// Image constants
const (
	// MaxImageSize is the maximum dimension (width or height) of an image sent to the extractor
	MaxImageSize = 1920
)
