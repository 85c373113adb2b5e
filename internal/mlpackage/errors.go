package mlpackage

import "errors"

// Errors surfaced while writing or verifying a package.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported weight blob version")
	ErrIndexTooLarge      = errors.New("weight index exceeds maximum size")
	ErrChecksumMismatch   = errors.New("weight checksum mismatch: package may be corrupted")
	ErrTensorNotFound     = errors.New("tensor not found in package")
	ErrNoWeights          = errors.New("package has no weight tensors")
)
