package export

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// Runtime executes a single forward pass against a model artifact. The
// exporter validates every model through this interface before converting
// it, so tests can substitute an implementation that does not need the
// onnxruntime shared library.
type Runtime interface {
	Forward(modelPath string, desc Descriptor, input *tensor.RawTensor) (*tensor.RawTensor, error)
}

// ONNXRuntime runs models through the onnxruntime C library. LibraryPath
// overrides the default shared library location when set; leave it empty to
// let the bindings use their platform default.
type ONNXRuntime struct {
	LibraryPath string
}

func (r *ONNXRuntime) Forward(modelPath string, desc Descriptor, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("forward: input dtype %s, runtime supports float32 only", input.DType())
	}

	if r.LibraryPath != "" {
		ort.SetSharedLibraryPath(r.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}
	defer ort.DestroyEnvironment()

	inputShape := ort.NewShape(input.Shape().ToInt64()...)
	outputShape := ort.NewShape(desc.OutputShape.ToInt64()...)

	inputTensor, err := ort.NewTensor(inputShape, input.AsFloat32())
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{desc.InputName}, []string{desc.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	out := make([]float32, len(outputTensor.GetData()))
	copy(out, outputTensor.GetData())
	return tensor.FromFloat32(desc.OutputShape.Clone(), out)
}
