package mlpackage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// Package is an opened on-device package, used to verify exports and by
// tests. The whole blob is held in memory: captcha-scale models are small.
type Package struct {
	Manifest Manifest

	index map[string]WeightMeta
	order []string
	data  []byte // data section only
}

// Open reads a package directory, parses the blob header and validates the
// data-section checksum against the manifest.
func Open(dir string) (*Package, error) {
	manifestJSON, err := os.ReadFile(filepath.Join(dir, ManifestFileName)) //nolint:gosec // G304: package path is operator input
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	blob, err := os.ReadFile(filepath.Join(dir, manifest.Weights.File)) //nolint:gosec // G304: path comes from the manifest just read
	if err != nil {
		return nil, fmt.Errorf("failed to read weight blob: %w", err)
	}

	index, data, err := decodeBlob(blob)
	if err != nil {
		return nil, err
	}
	if got := Checksum(data); got != manifest.Weights.Checksum {
		return nil, fmt.Errorf("%w: manifest %s, blob %s", ErrChecksumMismatch, manifest.Weights.Checksum, got)
	}

	pkg := &Package{
		Manifest: manifest,
		index:    make(map[string]WeightMeta, len(index)),
		data:     data,
	}
	for _, meta := range index {
		pkg.index[meta.Name] = meta
		pkg.order = append(pkg.order, meta.Name)
	}
	return pkg, nil
}

// TensorNames returns weight names in blob order.
func (p *Package) TensorNames() []string {
	return append([]string(nil), p.order...)
}

// Tensor materializes one weight by name.
func (p *Package) Tensor(name string) (*tensor.RawTensor, error) {
	meta, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}

	dt, ok := tensor.ParseDataType(meta.DType)
	if !ok {
		return nil, fmt.Errorf("tensor %s: unknown dtype %q", name, meta.DType)
	}
	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dt)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	end := meta.Offset + meta.Size
	if meta.Offset < 0 || end > int64(len(p.data)) || int64(raw.ByteSize()) != meta.Size {
		return nil, fmt.Errorf("tensor %s: index entry out of bounds", name)
	}
	copy(raw.Data(), p.data[meta.Offset:end])
	return raw, nil
}

func decodeBlob(blob []byte) ([]WeightMeta, []byte, error) {
	headerLen := len(Magic) + 4 + 8
	if len(blob) < headerLen {
		return nil, nil, fmt.Errorf("%w: blob too short", ErrInvalidMagic)
	}
	if string(blob[:len(Magic)]) != Magic {
		return nil, nil, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(blob[4:8])
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	indexSize := binary.LittleEndian.Uint64(blob[8:16])
	if indexSize > MaxIndexSize {
		return nil, nil, ErrIndexTooLarge
	}
	indexEnd := headerLen + int(indexSize)
	if indexEnd > len(blob) {
		return nil, nil, fmt.Errorf("weight index extends past end of blob")
	}

	var index []WeightMeta
	if err := json.Unmarshal(blob[headerLen:indexEnd], &index); err != nil {
		return nil, nil, fmt.Errorf("failed to parse weight index: %w", err)
	}

	dataStart := indexEnd + (WeightAlignment-indexEnd%WeightAlignment)%WeightAlignment
	if dataStart > len(blob) {
		return nil, nil, fmt.Errorf("weight data section missing")
	}
	return index, blob[dataStart:], nil
}
