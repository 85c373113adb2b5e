// Package onnx reads the subset of the ONNX serialization format the
// exporter needs: model/graph structure, tensor interfaces, weight
// initializers and metadata. The wire decoding is hand-written protobuf;
// node attributes and training-time fields are skipped.
package onnx

// ModelProto is the top-level ONNX model message.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto is the computation graph: nodes, tensor interfaces and weights.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
}

// NodeProto is a single operation. Attributes are not decoded; the exporter
// only needs op types for target-support checks.
type NodeProto struct {
	Name    string
	OpType  string
	Inputs  []string
	Outputs []string
	Domain  string
}

// TensorProto is a weight tensor (initializer).
type TensorProto struct {
	Name      string
	DataType  int32
	Dims      []int64
	RawData   []byte
	FloatData []float32 // legacy encoding, rare in current exports
}

// ValueInfoProto declares a graph input or output tensor.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto wraps the tensor type of a value.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto carries element type and shape of a declared value.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto lists the dimensions of a declared value.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is one dimension: a static value or a symbolic name.
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// OperatorSetID names an opset version requirement.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// StringStringEntry is a key-value metadata pair.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX element types (TensorProto.DataType values defined by the format).
const (
	ElemUndefined int32 = 0
	ElemFloat     int32 = 1  // float32
	ElemUint8     int32 = 2
	ElemInt32     int32 = 6
	ElemInt64     int32 = 7
	ElemBool      int32 = 9
	ElemDouble    int32 = 11 // float64
)
