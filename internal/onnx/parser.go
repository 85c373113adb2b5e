package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// Parse errors.
var (
	ErrTruncated = errors.New("truncated ONNX data")
	ErrNoGraph   = errors.New("model has no graph")
)

// ParseFile reads and parses an ONNX model file.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: model path is operator input
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ONNX model from raw protobuf bytes.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := decodeModel(&decoder{data: data}, model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if model.Graph == nil {
		return nil, ErrNoGraph
	}
	return model, nil
}

// Protobuf wire types.
const (
	wireVarint = 0
	wire64Bit  = 1
	wireBytes  = 2
	wire32Bit  = 5
)

// decoder walks a single protobuf message body.
type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) done() bool {
	return d.pos >= len(d.data)
}

func (d *decoder) tag() (fieldNum, wireType int, err error) {
	tag, err := d.varint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

func (d *decoder) varint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if d.pos >= len(d.data) {
			return 0, ErrTruncated
		}
		b := d.data[d.pos]
		d.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: protobuf varint fits in int64
}

func (d *decoder) bytes() ([]byte, error) {
	length, err := d.varint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := d.pos + int(length)
	if end > len(d.data) || end < d.pos {
		return nil, ErrTruncated
	}
	out := d.data[d.pos:end]
	d.pos = end
	return out, nil
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	return string(b), err
}

// message returns a sub-decoder over an embedded message body.
func (d *decoder) message() (*decoder, error) {
	body, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &decoder{data: body}, nil
}

func (d *decoder) skip(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := d.varint()
		return err
	case wire64Bit:
		if d.pos+8 > len(d.data) {
			return ErrTruncated
		}
		d.pos += 8
		return nil
	case wireBytes:
		_, err := d.bytes()
		return err
	case wire32Bit:
		if d.pos+4 > len(d.data) {
			return ErrTruncated
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}

// packedVarints decodes a packed repeated varint field.
func (d *decoder) packedVarints() ([]int64, error) {
	body, err := d.bytes()
	if err != nil {
		return nil, err
	}
	sub := &decoder{data: body}
	var out []int64
	for !sub.done() {
		v, err := sub.varint()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ONNX field numbers are fixed by the format; each decode function below
// mirrors one message type and skips everything it does not carry.

func decodeModel(d *decoder, m *ModelProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = d.varint()
		case 2: // producer_name
			m.ProducerName, err = d.str()
		case 3: // producer_version
			m.ProducerVersion, err = d.str()
		case 4: // domain
			m.Domain, err = d.str()
		case 5: // model_version
			m.ModelVersion, err = d.varint()
		case 6: // doc_string
			m.DocString, err = d.str()
		case 7: // graph
			var sub *decoder
			if sub, err = d.message(); err == nil {
				m.Graph = &GraphProto{}
				err = decodeGraph(sub, m.Graph)
			}
		case 8: // opset_import
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var opset OperatorSetID
				if err = decodeOperatorSetID(sub, &opset); err == nil {
					m.OpsetImport = append(m.OpsetImport, opset)
				}
			}
		case 14: // metadata_props
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var entry StringStringEntry
				if err = decodeStringStringEntry(sub, &entry); err == nil {
					m.MetadataProps = append(m.MetadataProps, entry)
				}
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeGraph(d *decoder, g *GraphProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // node
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var node NodeProto
				if err = decodeNode(sub, &node); err == nil {
					g.Nodes = append(g.Nodes, node)
				}
			}
		case 2: // name
			g.Name, err = d.str()
		case 5: // initializer
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var t TensorProto
				if err = decodeTensor(sub, &t); err == nil {
					g.Initializers = append(g.Initializers, t)
				}
			}
		case 11: // input
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var vi ValueInfoProto
				if err = decodeValueInfo(sub, &vi); err == nil {
					g.Inputs = append(g.Inputs, vi)
				}
			}
		case 12: // output
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var vi ValueInfoProto
				if err = decodeValueInfo(sub, &vi); err == nil {
					g.Outputs = append(g.Outputs, vi)
				}
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeNode(d *decoder, n *NodeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // input
			var s string
			if s, err = d.str(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case 2: // output
			var s string
			if s, err = d.str(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case 3: // name
			n.Name, err = d.str()
		case 4: // op_type
			n.OpType, err = d.str()
		case 7: // domain
			n.Domain, err = d.str()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensor(d *decoder, t *TensorProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // dims
			if wireType == wireBytes {
				var dims []int64
				if dims, err = d.packedVarints(); err == nil {
					t.Dims = append(t.Dims, dims...)
				}
			} else {
				var v int64
				if v, err = d.varint(); err == nil {
					t.Dims = append(t.Dims, v)
				}
			}
		case 2: // data_type
			var v int64
			if v, err = d.varint(); err == nil {
				t.DataType = int32(v) //nolint:gosec // G115: ONNX element type fits in int32
			}
		case 4: // float_data (packed)
			var body []byte
			if body, err = d.bytes(); err == nil {
				for i := 0; i+4 <= len(body); i += 4 {
					bits := binary.LittleEndian.Uint32(body[i:])
					t.FloatData = append(t.FloatData, math.Float32frombits(bits))
				}
			}
		case 8: // name
			t.Name, err = d.str()
		case 9: // raw_data
			t.RawData, err = d.bytes()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeValueInfo(d *decoder, vi *ValueInfoProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // name
			vi.Name, err = d.str()
		case 2: // type
			var sub *decoder
			if sub, err = d.message(); err == nil {
				vi.Type = &TypeProto{}
				err = decodeType(sub, vi.Type)
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeType(d *decoder, t *TypeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		if fieldNum == 1 { // tensor_type
			var sub *decoder
			if sub, err = d.message(); err == nil {
				t.TensorType = &TensorTypeProto{}
				err = decodeTensorType(sub, t.TensorType)
			}
		} else {
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensorType(d *decoder, t *TensorTypeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // elem_type
			var v int64
			if v, err = d.varint(); err == nil {
				t.ElemType = int32(v) //nolint:gosec // G115: ONNX element type fits in int32
			}
		case 2: // shape
			var sub *decoder
			if sub, err = d.message(); err == nil {
				t.Shape = &TensorShapeProto{}
				err = decodeTensorShape(sub, t.Shape)
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensorShape(d *decoder, t *TensorShapeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		if fieldNum == 1 { // dim
			var sub *decoder
			if sub, err = d.message(); err == nil {
				var dim DimensionProto
				if err = decodeDimension(sub, &dim); err == nil {
					t.Dims = append(t.Dims, dim)
				}
			}
		} else {
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeDimension(d *decoder, dim *DimensionProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // dim_value
			dim.DimValue, err = d.varint()
		case 2: // dim_param
			dim.DimParam, err = d.str()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeOperatorSetID(d *decoder, o *OperatorSetID) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // domain
			o.Domain, err = d.str()
		case 2: // version
			o.Version, err = d.varint()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeStringStringEntry(d *decoder, e *StringStringEntry) error {
	for !d.done() {
		fieldNum, wireType, err := d.tag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // key
			e.Key, err = d.str()
		case 2: // value
			e.Value, err = d.str()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
