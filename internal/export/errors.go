package export

import "errors"

var (
	// ErrArtifactMissing indicates the model file does not exist at the
	// given path.
	ErrArtifactMissing = errors.New("model artifact not found")

	// ErrUnsupportedOp indicates the graph uses an operation the target
	// format cannot represent.
	ErrUnsupportedOp = errors.New("unsupported operation in target format")

	// ErrInterfaceMismatch indicates the graph's declared inputs or
	// outputs disagree with the expected descriptor.
	ErrInterfaceMismatch = errors.New("model interface mismatch")

	// ErrBadOutputShape indicates the validation forward pass produced an
	// output whose shape differs from the declared one.
	ErrBadOutputShape = errors.New("unexpected output shape")
)
