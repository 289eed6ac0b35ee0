package unity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualScalars(t *testing.T) {
	assert.True(t, Equal(Int(5), Int(5)))
	assert.False(t, Equal(Int(5), Int(6)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("b")))
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.False(t, Equal(Bool(true), Bool(false)))
	assert.True(t, Equal(Null{}, Null{}))
}

func TestEqualNil(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Null{}))
	assert.False(t, Equal(Null{}, nil))
	assert.False(t, Equal(nil, Int(0)))
}

func TestEqualNumericCrossType(t *testing.T) {
	// The file format writes 1 and 1.0 interchangeably for float fields.
	assert.True(t, Equal(Int(1), Float(1.0)))
	assert.True(t, Equal(Float(2.0), Int(2)))
	assert.False(t, Equal(Int(1), Float(1.5)))
}

func TestEqualFloatsExact(t *testing.T) {
	// No epsilon: accumulated rounding error is a real difference. The sum
	// must happen at runtime, constant expressions fold exactly.
	x, y := 0.1, 0.2
	assert.True(t, Equal(Float(0.3), Float(0.3)))
	assert.False(t, Equal(Float(x+y), Float(0.3)))
}

func TestEqualLargeInts(t *testing.T) {
	// fileID-sized integers exceed float64's 53-bit mantissa; these two are
	// distinct but would collide if compared through float64.
	a := Int(9007199254740993)
	b := Int(9007199254740992)
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, a))
}

func TestEqualVector(t *testing.T) {
	v3 := Vector{X: 1, Y: 2, Z: 3, Dims: 3}
	assert.True(t, Equal(v3, Vector{X: 1, Y: 2, Z: 3, Dims: 3}))
	assert.False(t, Equal(v3, Vector{X: 1, Y: 2, Z: 4, Dims: 3}))
	assert.False(t, Equal(v3, Vector{X: 1, Y: 2, Z: 3, W: 0, Dims: 4}))
}

func TestEqualReference(t *testing.T) {
	r := Reference{FileID: "100", GUID: "abc"}
	assert.True(t, Equal(r, Reference{FileID: "100", GUID: "abc"}))
	assert.False(t, Equal(r, Reference{FileID: "101", GUID: "abc"}))
	assert.False(t, Equal(r, Reference{FileID: "100", GUID: "def"}))
	assert.False(t, Equal(r, String(r.String())))
}

func TestEqualNested(t *testing.T) {
	a := Record{
		{Name: "items", Value: List{Int(1), Float(2), String("x")}},
		{Name: "pos", Value: Vector{X: 0.5, Y: 1.5, Dims: 2}},
	}
	b := Record{
		{Name: "items", Value: List{Int(1), Float(2), String("x")}},
		{Name: "pos", Value: Vector{X: 0.5, Y: 1.5, Dims: 2}},
	}
	assert.True(t, Equal(a, b))

	b[0].Value = List{Int(1), Float(2), String("y")}
	assert.False(t, Equal(a, b))

	// Field order matters: records preserve source order.
	c := Record{a[1], a[0]}
	assert.False(t, Equal(a, c))
}

func TestReferenceIsNull(t *testing.T) {
	assert.True(t, Reference{FileID: "0"}.IsNull())
	assert.True(t, Reference{}.IsNull())
	assert.False(t, Reference{FileID: "400000"}.IsNull())
}
