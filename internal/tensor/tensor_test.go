package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{name: "model input", shape: Shape{1, 3, 42, 130}, want: 16380},
		{name: "model output", shape: Shape{1, 15, 8}, want: 120},
		{name: "vector", shape: Shape{7}, want: 7},
		{name: "scalar", shape: Shape{}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.NumElements())
		})
	}
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{1, 3, 42, 130}.Validate())
	require.Error(t, Shape{1, 0, 4}.Validate())
	require.Error(t, Shape{-1, 4}.Validate())
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "1x3x42x130", Shape{1, 3, 42, 130}.String())
	assert.Equal(t, "scalar", Shape{}.String())
}

func TestShapeInt64RoundTrip(t *testing.T) {
	s := Shape{1, 15, 8}
	assert.Equal(t, []int64{1, 15, 8}, s.ToInt64())
	assert.True(t, s.Equal(FromInt64(s.ToInt64())))
}

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32)
	require.NoError(t, err)

	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 24, raw.ByteSize())
	assert.Equal(t, Float32, raw.DType())

	// Freshly allocated tensors are zero-filled.
	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}

	_, err = NewRaw(Shape{2, -1}, Float32)
	require.Error(t, err)
}

func TestFromFloat32(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6}
	raw, err := FromFloat32(Shape{2, 3}, values)
	require.NoError(t, err)
	assert.Equal(t, values, raw.AsFloat32())

	_, err = FromFloat32(Shape{2, 3}, []float32{1, 2})
	require.Error(t, err)
}

func TestUniform(t *testing.T) {
	raw, err := Uniform(Shape{1, 3, 42, 130})
	require.NoError(t, err)

	data := raw.AsFloat32()
	require.Len(t, data, 16380)
	for _, v := range data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestAsFloat32WrongDType(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Int64)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat32() })
}

func TestDataTypeRoundTrip(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool} {
		parsed, ok := ParseDataType(dt.String())
		require.True(t, ok, dt.String())
		assert.Equal(t, dt, parsed)
	}

	_, ok := ParseDataType("float16")
	assert.False(t, ok)
}
