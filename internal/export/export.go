// Package export converts a trained ONNX captcha model into an on-device
// inference package. The pipeline validates the artifact with a real forward
// pass before any output is written, so a broken export never reaches the
// app bundle.
package export

import (
	"fmt"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// ComputeUnits selects which processors the on-device runtime may use.
type ComputeUnits int

const (
	ComputeAll ComputeUnits = iota
	ComputeCPUOnly
	ComputeCPUAndGPU
	ComputeCPUAndNeuralEngine
)

func (c ComputeUnits) String() string {
	switch c {
	case ComputeAll:
		return "all"
	case ComputeCPUOnly:
		return "cpu_only"
	case ComputeCPUAndGPU:
		return "cpu_and_gpu"
	case ComputeCPUAndNeuralEngine:
		return "cpu_and_neural_engine"
	default:
		return fmt.Sprintf("ComputeUnits(%d)", int(c))
	}
}

// Descriptor pins the model interface the exporter expects. The forward
// validation runs against these shapes; a model whose graph disagrees with
// its descriptor fails before conversion starts.
type Descriptor struct {
	InputName   string
	InputShape  tensor.Shape
	InputDType  tensor.DataType
	OutputName  string
	OutputShape tensor.Shape
}

// Options carries the metadata written into the package manifest.
type Options struct {
	ModelName         string
	Author            string
	License           string
	Description       string
	InputDescription  string
	OutputDescription string
	ComputeUnits      ComputeUnits
}

// Result summarizes a completed export.
type Result struct {
	PackagePath  string
	OutputShape  tensor.Shape
	OutputDType  tensor.DataType
	TensorCount  int
	WeightBytes  int64
	OpsetVersion int64
}
