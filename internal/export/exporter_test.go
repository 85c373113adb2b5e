package export

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/mlpackage"
	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// stubRuntime fakes the forward pass so tests run without the onnxruntime
// shared library.
type stubRuntime struct {
	outputShape tensor.Shape
	err         error
	calls       int
}

func (s *stubRuntime) Forward(string, Descriptor, *tensor.RawTensor) (*tensor.RawTensor, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return tensor.Uniform(s.outputShape)
}

func captchaDescriptor() Descriptor {
	return Descriptor{
		InputName:   "image",
		InputShape:  tensor.Shape{1, 3, 42, 130},
		InputDType:  tensor.Float32,
		OutputName:  "logits",
		OutputShape: tensor.Shape{1, 15, 8},
	}
}

func testOptions() Options {
	return Options{
		ModelName:    "CaptchaModel",
		Author:       "BJTU SelfService Team",
		License:      "Same as the Android release",
		ComputeUnits: ComputeAll,
	}
}

func writeArtifact(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExport(t *testing.T) {
	artifact := writeArtifact(t, buildModel("Conv", "Relu"))
	pkgPath := filepath.Join(t.TempDir(), "CaptchaModel.mlpackage")

	rt := &stubRuntime{outputShape: tensor.Shape{1, 15, 8}}
	result, err := New(rt, testOptions()).Export(artifact, pkgPath, captchaDescriptor())
	require.NoError(t, err)

	assert.Equal(t, 1, rt.calls)
	assert.Equal(t, pkgPath, result.PackagePath)
	assert.True(t, result.OutputShape.Equal(tensor.Shape{1, 15, 8}))
	assert.Equal(t, tensor.Float32, result.OutputDType)
	assert.Equal(t, 1, result.TensorCount)
	assert.Equal(t, int64(17), result.OpsetVersion)

	// The written package round-trips through the reader.
	pkg, err := mlpackage.Open(pkgPath)
	require.NoError(t, err)
	assert.Equal(t, "CaptchaModel", pkg.Manifest.Name)
	assert.Equal(t, "all", pkg.Manifest.ComputeUnits)
	assert.Equal(t, []string{"Conv", "Relu"}, pkg.Manifest.Source.OpTypes)

	weight, err := pkg.Tensor("conv.weight")
	require.NoError(t, err)
	assert.True(t, weight.Shape().Equal(tensor.Shape{4, 3, 3, 3}))
	assert.InDelta(t, 0.5, weight.AsFloat32()[0], 1e-6)
}

func TestExportMissingArtifact(t *testing.T) {
	pkgPath := filepath.Join(t.TempDir(), "out.mlpackage")
	rt := &stubRuntime{outputShape: tensor.Shape{1, 15, 8}}

	_, err := New(rt, testOptions()).Export(
		filepath.Join(t.TempDir(), "missing.onnx"), pkgPath, captchaDescriptor())
	require.ErrorIs(t, err, ErrArtifactMissing)

	// Nothing was written and the runtime never ran.
	assert.Zero(t, rt.calls)
	assert.NoFileExists(t, pkgPath)
}

func TestExportGarbageArtifact(t *testing.T) {
	artifact := writeArtifact(t, []byte{0x3a, 0xff, 0x01, 0x00})
	pkgPath := filepath.Join(t.TempDir(), "out.mlpackage")

	_, err := New(&stubRuntime{}, testOptions()).Export(artifact, pkgPath, captchaDescriptor())
	require.Error(t, err)
	assert.NoFileExists(t, pkgPath)
}

func TestExportUnsupportedOp(t *testing.T) {
	artifact := writeArtifact(t, buildModel("Conv", "Loop"))
	pkgPath := filepath.Join(t.TempDir(), "out.mlpackage")

	rt := &stubRuntime{outputShape: tensor.Shape{1, 15, 8}}
	_, err := New(rt, testOptions()).Export(artifact, pkgPath, captchaDescriptor())
	require.ErrorIs(t, err, ErrUnsupportedOp)
	assert.Contains(t, err.Error(), "Loop")
	assert.Zero(t, rt.calls)
	assert.NoFileExists(t, pkgPath)
}

func TestExportInterfaceMismatch(t *testing.T) {
	artifact := writeArtifact(t, buildModel("Conv", "Relu"))

	desc := captchaDescriptor()
	desc.InputName = "pixels"
	_, err := New(&stubRuntime{}, testOptions()).Export(
		artifact, filepath.Join(t.TempDir(), "out.mlpackage"), desc)
	require.ErrorIs(t, err, ErrInterfaceMismatch)

	desc = captchaDescriptor()
	desc.InputShape = tensor.Shape{1, 1, 42, 130}
	_, err = New(&stubRuntime{}, testOptions()).Export(
		artifact, filepath.Join(t.TempDir(), "out.mlpackage"), desc)
	require.ErrorIs(t, err, ErrInterfaceMismatch)
}

func TestExportForwardFails(t *testing.T) {
	artifact := writeArtifact(t, buildModel("Conv", "Relu"))
	pkgPath := filepath.Join(t.TempDir(), "out.mlpackage")

	rt := &stubRuntime{err: errors.New("session init failed")}
	_, err := New(rt, testOptions()).Export(artifact, pkgPath, captchaDescriptor())
	require.Error(t, err)
	assert.NoFileExists(t, pkgPath)
}

func TestExportBadOutputShape(t *testing.T) {
	artifact := writeArtifact(t, buildModel("Conv", "Relu"))
	pkgPath := filepath.Join(t.TempDir(), "out.mlpackage")

	rt := &stubRuntime{outputShape: tensor.Shape{1, 8, 15}}
	_, err := New(rt, testOptions()).Export(artifact, pkgPath, captchaDescriptor())
	require.ErrorIs(t, err, ErrBadOutputShape)
	assert.NoFileExists(t, pkgPath)
}

func TestComputeUnitsString(t *testing.T) {
	assert.Equal(t, "all", ComputeAll.String())
	assert.Equal(t, "cpu_only", ComputeCPUOnly.String())
	assert.Equal(t, "cpu_and_gpu", ComputeCPUAndGPU.String())
	assert.Equal(t, "cpu_and_neural_engine", ComputeCPUAndNeuralEngine.String())
}

// --- fixture construction ---

// buildModel encodes a minimal artifact with the captcha interfaces and the
// given two ops wired image -> hidden -> logits.
func buildModel(op1, op2 string) []byte {
	weight := make([]byte, 4*3*3*3*4)
	binary.LittleEndian.PutUint32(weight, math.Float32bits(0.5))

	init := &pw{}
	for _, dim := range []int64{4, 3, 3, 3} {
		init.varintField(1, dim)
	}
	init.varintField(2, 1) // float32
	init.bytesField(8, []byte("conv.weight"))
	init.bytesField(9, weight)

	graph := &pw{}
	graph.bytesField(2, []byte("captcha"))
	graph.bytesField(1, buildNode(op1, []string{"image", "conv.weight"}, []string{"hidden"}))
	graph.bytesField(1, buildNode(op2, []string{"hidden"}, []string{"logits"}))
	graph.bytesField(5, init.buf)
	graph.bytesField(11, buildValueInfo("image", []int64{1, 3, 42, 130}))
	graph.bytesField(12, buildValueInfo("logits", []int64{1, 15, 8}))

	opset := &pw{}
	opset.bytesField(1, []byte(""))
	opset.varintField(2, 17)

	model := &pw{}
	model.varintField(1, 8)
	model.bytesField(2, []byte("pytorch"))
	model.bytesField(3, []byte("2.1.0"))
	model.bytesField(7, graph.buf)
	model.bytesField(8, opset.buf)
	return model.buf
}

func buildNode(opType string, inputs, outputs []string) []byte {
	n := &pw{}
	for _, in := range inputs {
		n.bytesField(1, []byte(in))
	}
	for _, out := range outputs {
		n.bytesField(2, []byte(out))
	}
	n.bytesField(4, []byte(opType))
	return n.buf
}

func buildValueInfo(name string, dims []int64) []byte {
	shape := &pw{}
	for _, dim := range dims {
		d := &pw{}
		d.varintField(1, dim)
		shape.bytesField(1, d.buf)
	}

	tensorType := &pw{}
	tensorType.varintField(1, 1) // float32
	tensorType.bytesField(2, shape.buf)

	typ := &pw{}
	typ.bytesField(1, tensorType.buf)

	vi := &pw{}
	vi.bytesField(1, []byte(name))
	vi.bytesField(2, typ.buf)
	return vi.buf
}

// pw encodes protobuf wire format for fixtures.
type pw struct {
	buf []byte
}

func (w *pw) varint(v int64) {
	u := uint64(v)
	for u >= 0x80 {
		w.buf = append(w.buf, byte(u)|0x80)
		u >>= 7
	}
	w.buf = append(w.buf, byte(u))
}

func (w *pw) varintField(fieldNum int, v int64) {
	w.varint(int64(fieldNum << 3)) // wire type 0
	w.varint(v)
}

func (w *pw) bytesField(fieldNum int, data []byte) {
	w.varint(int64(fieldNum<<3 | 2))
	w.varint(int64(len(data)))
	w.buf = append(w.buf, data...)
}
