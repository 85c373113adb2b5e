package export

// supportedOps lists the ONNX operations the on-device runtime can map.
// The set covers the small convolutional captcha architecture plus the ops
// common exporters emit around it; anything outside fails conversion with
// ErrUnsupportedOp rather than producing a package that crashes at load.
var supportedOps = map[string]bool{
	"Add":                true,
	"AveragePool":        true,
	"BatchNormalization": true,
	"Cast":               true,
	"Clip":               true,
	"Concat":             true,
	"Constant":           true,
	"Conv":               true,
	"Dropout":            true,
	"Flatten":            true,
	"Gather":             true,
	"Gemm":               true,
	"GlobalAveragePool":  true,
	"Identity":           true,
	"LeakyRelu":          true,
	"LogSoftmax":         true,
	"MatMul":             true,
	"MaxPool":            true,
	"Mul":                true,
	"Pad":                true,
	"Relu":               true,
	"Reshape":            true,
	"Shape":              true,
	"Sigmoid":            true,
	"Slice":              true,
	"Softmax":            true,
	"Squeeze":            true,
	"Tanh":               true,
	"Transpose":          true,
	"Unsqueeze":          true,
}

// unsupportedOps returns the graph ops missing from the supported set,
// in the order given.
func unsupportedOps(opTypes []string) []string {
	var missing []string
	for _, op := range opTypes {
		if !supportedOps[op] {
			missing = append(missing, op)
		}
	}
	return missing
}
