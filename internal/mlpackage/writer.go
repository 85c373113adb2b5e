package mlpackage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// Write persists a package directory at dir: weights.bin first, then
// Manifest.json with the blob's checksum filled in.
//
// Only the package directory itself is created; a missing parent is an
// error the caller surfaces as an output-path problem. Re-running over an
// existing package overwrites both files.
func Write(dir string, manifest Manifest, weights map[string]*tensor.RawTensor) error {
	if len(weights) == 0 {
		return ErrNoWeights
	}

	if err := os.Mkdir(dir, 0o755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create package directory: %w", err)
	}

	blob, info, err := encodeWeights(weights)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, WeightsFileName), blob, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", WeightsFileName, err)
	}

	manifest.FormatVersion = FormatVersion
	manifest.CreatedAt = time.Now().UTC()
	manifest.Weights = info

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	manifestJSON = append(manifestJSON, '\n')
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), manifestJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ManifestFileName, err)
	}

	return nil
}

// encodeWeights serializes the tensors into the blob layout and returns the
// manifest-side description. Tensors are ordered by name so output is
// deterministic across runs.
func encodeWeights(weights map[string]*tensor.RawTensor) ([]byte, Weights, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	index := make([]WeightMeta, 0, len(names))
	var offset int64
	for _, name := range names {
		raw := weights[name]
		size := int64(raw.ByteSize())
		index = append(index, WeightMeta{
			Name:   name,
			DType:  raw.DType().String(),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	indexJSON, err := json.Marshal(index)
	if err != nil {
		return nil, Weights{}, fmt.Errorf("failed to marshal weight index: %w", err)
	}

	headerLen := len(Magic) + 4 + 8 + len(indexJSON)
	padding := (WeightAlignment - headerLen%WeightAlignment) % WeightAlignment

	blob := make([]byte, 0, headerLen+padding+int(offset))
	blob = append(blob, Magic...)
	blob = binary.LittleEndian.AppendUint32(blob, FormatVersion)
	blob = binary.LittleEndian.AppendUint64(blob, uint64(len(indexJSON)))
	blob = append(blob, indexJSON...)
	blob = append(blob, make([]byte, padding)...)

	dataStart := len(blob)
	for _, name := range names {
		blob = append(blob, weights[name].Data()...)
	}

	return blob, Weights{
		File:        WeightsFileName,
		TensorCount: len(names),
		ByteSize:    offset,
		Checksum:    Checksum(blob[dataStart:]),
	}, nil
}
