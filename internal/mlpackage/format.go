// Package mlpackage implements the on-device model package the exporter
// produces: a directory holding Manifest.json (model interfaces, metadata,
// provenance) and weights.bin (a binary blob of all weight tensors).
//
// The weight blob layout is:
//
//	[4 bytes]  magic "MLPK"
//	[4 bytes]  format version (uint32 LE)
//	[8 bytes]  index size (uint64 LE)
//	[n bytes]  JSON index ([]WeightMeta)
//	[padding]  zero bytes up to a 64-byte boundary
//	[...]      tensor data, contiguous, in index order
//
// The SHA-256 of the data section is recorded in the manifest so the
// package can be verified after copying between machines.
package mlpackage

import (
	"time"
)

// Blob format constants.
const (
	Magic           = "MLPK"
	FormatVersion   = 1
	WeightAlignment = 64
	MaxIndexSize    = 64 * 1024 * 1024 // refuse absurd index sections

	ManifestFileName = "Manifest.json"
	WeightsFileName  = "weights.bin"
)

// Manifest is the package-level description written as Manifest.json.
type Manifest struct {
	FormatVersion int       `json:"format_version"`
	Name          string    `json:"name"`
	Author        string    `json:"author,omitempty"`
	License       string    `json:"license,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ComputeUnits  string    `json:"compute_units"`

	Inputs  []Port `json:"inputs"`
	Outputs []Port `json:"outputs"`

	Source  Source  `json:"source"`
	Weights Weights `json:"weights"`
}

// Port describes one model input or output tensor.
type Port struct {
	Name        string  `json:"name"`
	Shape       []int64 `json:"shape"`
	DType       string  `json:"dtype"`
	Description string  `json:"description,omitempty"`
}

// Source records provenance of the converted artifact.
type Source struct {
	Format          string   `json:"format"`
	ProducerName    string   `json:"producer_name,omitempty"`
	ProducerVersion string   `json:"producer_version,omitempty"`
	OpsetVersion    int64    `json:"opset_version,omitempty"`
	OpTypes         []string `json:"op_types,omitempty"`
}

// Weights describes the weight blob from the manifest side.
type Weights struct {
	File        string `json:"file"`
	TensorCount int    `json:"tensor_count"`
	ByteSize    int64  `json:"byte_size"`
	Checksum    string `json:"checksum"` // hex SHA-256 of the data section
}

// WeightMeta is one entry in the blob's JSON index.
type WeightMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of data section
	Size   int64  `json:"size"`
}
