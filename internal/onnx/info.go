package onnx

import (
	"fmt"
	"sort"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

// TensorSpec describes a declared graph input or output. Dims may contain
// zero for symbolic (dynamic) dimensions.
type TensorSpec struct {
	Name  string
	Dims  []int64
	DType tensor.DataType
}

// Info summarizes a parsed model without touching weight data.
type Info struct {
	IRVersion       int64
	OpsetVersion    int64
	ProducerName    string
	ProducerVersion string
	GraphName       string
	Inputs          []TensorSpec
	Outputs         []TensorSpec
	OpTypes         []string // unique, sorted
	NodeCount       int
	WeightCount     int
}

// Info extracts the model summary. Initializers are excluded from the input
// list; ONNX declares them as graph inputs in older opsets.
func (m *ModelProto) Info() *Info {
	info := &Info{
		IRVersion:       m.IRVersion,
		ProducerName:    m.ProducerName,
		ProducerVersion: m.ProducerVersion,
	}

	for _, opset := range m.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			info.OpsetVersion = opset.Version
			break
		}
	}

	g := m.Graph
	if g == nil {
		return info
	}
	info.GraphName = g.Name
	info.NodeCount = len(g.Nodes)
	info.WeightCount = len(g.Initializers)

	initNames := make(map[string]bool, len(g.Initializers))
	for i := range g.Initializers {
		initNames[g.Initializers[i].Name] = true
	}
	for i := range g.Inputs {
		if !initNames[g.Inputs[i].Name] {
			info.Inputs = append(info.Inputs, valueSpec(&g.Inputs[i]))
		}
	}
	for i := range g.Outputs {
		info.Outputs = append(info.Outputs, valueSpec(&g.Outputs[i]))
	}

	seen := make(map[string]bool)
	for i := range g.Nodes {
		op := g.Nodes[i].OpType
		if !seen[op] {
			seen[op] = true
			info.OpTypes = append(info.OpTypes, op)
		}
	}
	sort.Strings(info.OpTypes)

	return info
}

// Metadata flattens metadata_props plus producer fields into one map.
func (m *ModelProto) Metadata() map[string]string {
	meta := make(map[string]string, len(m.MetadataProps)+2)
	for _, prop := range m.MetadataProps {
		meta[prop.Key] = prop.Value
	}
	if m.ProducerName != "" {
		meta["producer_name"] = m.ProducerName
	}
	if m.ProducerVersion != "" {
		meta["producer_version"] = m.ProducerVersion
	}
	return meta
}

func valueSpec(vi *ValueInfoProto) TensorSpec {
	spec := TensorSpec{Name: vi.Name, DType: tensor.Float32}
	if vi.Type == nil || vi.Type.TensorType == nil {
		return spec
	}
	tt := vi.Type.TensorType
	if dt, ok := ElemToDataType(tt.ElemType); ok {
		spec.DType = dt
	}
	if tt.Shape != nil {
		spec.Dims = make([]int64, len(tt.Shape.Dims))
		for i, dim := range tt.Shape.Dims {
			spec.Dims[i] = dim.DimValue // zero for symbolic dims
		}
	}
	return spec
}

// ElemToDataType maps an ONNX element type to the exporter's DataType.
func ElemToDataType(elem int32) (tensor.DataType, bool) {
	switch elem {
	case ElemFloat:
		return tensor.Float32, true
	case ElemDouble:
		return tensor.Float64, true
	case ElemInt32:
		return tensor.Int32, true
	case ElemInt64:
		return tensor.Int64, true
	case ElemUint8:
		return tensor.Uint8, true
	case ElemBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}

// Tensor materializes an initializer as a RawTensor.
func (t *TensorProto) Tensor() (*tensor.RawTensor, error) {
	dt, ok := ElemToDataType(t.DataType)
	if !ok {
		return nil, fmt.Errorf("initializer %s: unsupported element type %d", t.Name, t.DataType)
	}

	shape := tensor.FromInt64(t.Dims)
	raw, err := tensor.NewRaw(shape, dt)
	if err != nil {
		return nil, fmt.Errorf("initializer %s: %w", t.Name, err)
	}

	switch {
	case len(t.RawData) > 0:
		if len(t.RawData) != raw.ByteSize() {
			return nil, fmt.Errorf("initializer %s: have %d bytes, shape %s needs %d",
				t.Name, len(t.RawData), shape, raw.ByteSize())
		}
		copy(raw.Data(), t.RawData)
	case len(t.FloatData) > 0:
		if dt != tensor.Float32 {
			return nil, fmt.Errorf("initializer %s: float_data with element type %s", t.Name, dt)
		}
		if len(t.FloatData) != raw.NumElements() {
			return nil, fmt.Errorf("initializer %s: have %d values, shape %s needs %d",
				t.Name, len(t.FloatData), shape, raw.NumElements())
		}
		copy(raw.AsFloat32(), t.FloatData)
	}

	return raw, nil
}
