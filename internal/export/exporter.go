package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/mlpackage"
	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/onnx"
	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// Exporter drives the artifact-to-package pipeline: parse, validate with a
// forward pass, convert, save. Nothing is written until validation passes.
type Exporter struct {
	Runtime Runtime
	Options Options
}

func New(runtime Runtime, opts Options) *Exporter {
	return &Exporter{Runtime: runtime, Options: opts}
}

// Export converts the artifact at artifactPath into an inference package at
// packagePath. The parent directory of packagePath must already exist.
func (e *Exporter) Export(artifactPath, packagePath string, desc Descriptor) (*Result, error) {
	if _, err := os.Stat(artifactPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, artifactPath)
		}
		return nil, fmt.Errorf("stat %s: %w", artifactPath, err)
	}

	model, err := onnx.ParseFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", artifactPath, err)
	}
	info := model.Info()

	if err := checkInterface(info, desc); err != nil {
		return nil, err
	}
	if missing := unsupportedOps(info.OpTypes); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOp, strings.Join(missing, ", "))
	}

	output, err := e.validate(artifactPath, desc)
	if err != nil {
		return nil, err
	}

	weights, byteSize, err := collectWeights(model.Graph)
	if err != nil {
		return nil, err
	}

	manifest := e.buildManifest(info, desc)
	if err := mlpackage.Write(packagePath, manifest, weights); err != nil {
		return nil, fmt.Errorf("write package: %w", err)
	}

	return &Result{
		PackagePath:  packagePath,
		OutputShape:  output.Shape(),
		OutputDType:  output.DType(),
		TensorCount:  len(weights),
		WeightBytes:  byteSize,
		OpsetVersion: info.OpsetVersion,
	}, nil
}

// validate runs one forward pass on random input and checks the output
// shape against the descriptor.
func (e *Exporter) validate(artifactPath string, desc Descriptor) (*tensor.RawTensor, error) {
	input, err := tensor.Uniform(desc.InputShape)
	if err != nil {
		return nil, fmt.Errorf("validation input: %w", err)
	}

	output, err := e.Runtime.Forward(artifactPath, desc, input)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", artifactPath, err)
	}
	if !output.Shape().Equal(desc.OutputShape) {
		return nil, fmt.Errorf("%w: got %s, want %s",
			ErrBadOutputShape, output.Shape(), desc.OutputShape)
	}
	return output, nil
}

// checkInterface confirms the graph declares the descriptor's input and
// output with compatible shapes. Symbolic dims in the graph match anything.
func checkInterface(info *onnx.Info, desc Descriptor) error {
	in, ok := findSpec(info.Inputs, desc.InputName)
	if !ok {
		return fmt.Errorf("%w: no input named %q (graph has %s)",
			ErrInterfaceMismatch, desc.InputName, specNames(info.Inputs))
	}
	if !dimsCompatible(in.Dims, desc.InputShape) {
		return fmt.Errorf("%w: input %q declares dims %v, expected %s",
			ErrInterfaceMismatch, desc.InputName, in.Dims, desc.InputShape)
	}
	if in.DType != desc.InputDType {
		return fmt.Errorf("%w: input %q has dtype %s, expected %s",
			ErrInterfaceMismatch, desc.InputName, in.DType, desc.InputDType)
	}

	out, ok := findSpec(info.Outputs, desc.OutputName)
	if !ok {
		return fmt.Errorf("%w: no output named %q (graph has %s)",
			ErrInterfaceMismatch, desc.OutputName, specNames(info.Outputs))
	}
	if !dimsCompatible(out.Dims, desc.OutputShape) {
		return fmt.Errorf("%w: output %q declares dims %v, expected %s",
			ErrInterfaceMismatch, desc.OutputName, out.Dims, desc.OutputShape)
	}
	return nil
}

func findSpec(specs []onnx.TensorSpec, name string) (onnx.TensorSpec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return onnx.TensorSpec{}, false
}

func specNames(specs []onnx.TensorSpec) string {
	if len(specs) == 0 {
		return "none"
	}
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return strings.Join(names, ", ")
}

func dimsCompatible(declared []int64, want tensor.Shape) bool {
	if len(declared) != len(want) {
		return false
	}
	for i, dim := range declared {
		if dim != 0 && dim != int64(want[i]) {
			return false
		}
	}
	return true
}

func collectWeights(g *onnx.GraphProto) (map[string]*tensor.RawTensor, int64, error) {
	weights := make(map[string]*tensor.RawTensor, len(g.Initializers))
	var byteSize int64
	for i := range g.Initializers {
		init := &g.Initializers[i]
		raw, err := init.Tensor()
		if err != nil {
			return nil, 0, fmt.Errorf("collect weights: %w", err)
		}
		weights[init.Name] = raw
		byteSize += int64(raw.ByteSize())
	}
	return weights, byteSize, nil
}

func (e *Exporter) buildManifest(info *onnx.Info, desc Descriptor) mlpackage.Manifest {
	opts := e.Options
	return mlpackage.Manifest{
		Name:         opts.ModelName,
		Author:       opts.Author,
		License:      opts.License,
		Description:  opts.Description,
		ComputeUnits: opts.ComputeUnits.String(),
		Inputs: []mlpackage.Port{{
			Name:        desc.InputName,
			Shape:       desc.InputShape.ToInt64(),
			DType:       desc.InputDType.String(),
			Description: opts.InputDescription,
		}},
		Outputs: []mlpackage.Port{{
			Name:        desc.OutputName,
			Shape:       desc.OutputShape.ToInt64(),
			DType:       tensor.Float32.String(),
			Description: opts.OutputDescription,
		}},
		Source: mlpackage.Source{
			Format:          "onnx",
			ProducerName:    info.ProducerName,
			ProducerVersion: info.ProducerVersion,
			OpsetVersion:    info.OpsetVersion,
			OpTypes:         info.OpTypes,
		},
	}
}
