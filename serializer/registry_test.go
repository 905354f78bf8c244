package serializer

import (
	"reflect"
	"testing"

	"github.com/netrep/bitgen/bitio"
	"github.com/stretchr/testify/assert"
)

type vec3 struct {
	X, Y, Z int16
}

func writeVec3(w *bitio.Writer, value any) {
	v := value.(vec3)
	w.WriteBits(uint32(uint16(v.X)), 16)
	w.WriteBits(uint32(uint16(v.Y)), 16)
	w.WriteBits(uint32(uint16(v.Z)), 16)
}

func readIntoVec3(r *bitio.Reader, dst any) {
	v := dst.(*vec3)
	v.X = int16(r.ReadBits(16))
	v.Y = int16(r.ReadBits(16))
	v.Z = int16(r.ReadBits(16))
}

func readVec3(r *bitio.Reader) any {
	return vec3{
		X: int16(r.ReadBits(16)),
		Y: int16(r.ReadBits(16)),
		Z: int16(r.ReadBits(16)),
	}
}

func TestRegisterAndReadNewRoundTripReadInto(t *testing.T) {
	reg := NewRegistry()
	vt := reflect.TypeOf(vec3{})
	reg.Register(vt, writeVec3, nil, readIntoVec3)

	w := bitio.NewWriter()
	reg.Write(w, vt, vec3{X: 1, Y: -2, Z: 3})

	r := bitio.NewReader(w.Flush())
	got, err := reg.ReadNew(r, vt)
	assert.NoError(t, err)
	assert.Equal(t, vec3{X: 1, Y: -2, Z: 3}, got)
}

func TestRegisterAndReadNewRoundTripReadValue(t *testing.T) {
	reg := NewRegistry()
	vt := reflect.TypeOf(vec3{})
	reg.Register(vt, writeVec3, readVec3, nil)

	w := bitio.NewWriter()
	reg.Write(w, vt, vec3{X: 7, Y: 8, Z: 9})

	r := bitio.NewReader(w.Flush())
	got, err := reg.ReadNew(r, vt)
	assert.NoError(t, err)
	assert.Equal(t, vec3{X: 7, Y: 8, Z: 9}, got)
}

func TestReadNewUnregisteredSuggestsClosest(t *testing.T) {
	reg := NewRegistry()
	reg.Register(reflect.TypeOf(vec3{}), writeVec3, readVec3, nil)

	_, err := reg.ReadNew(nil, reflect.TypeOf(struct{ V int }{}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean serializer.vec3?")
}

func TestDiscoverRegistersFoundPairs(t *testing.T) {
	reg := NewRegistry()
	vt := reflect.TypeOf(vec3{})

	errs := reg.Discover(
		[]reflect.Type{vt},
		func(name string) (WriteFunc, bool) { return writeVec3, true },
		func(name string) (ReadFunc, bool) { return nil, false },
		func(name string) (ReadIntoFunc, bool) { return readIntoVec3, true },
	)
	assert.Empty(t, errs)
	assert.True(t, reg.Has(vt))
}

func TestDiscoverReportsMissingSerializer(t *testing.T) {
	reg := NewRegistry()
	vt := reflect.TypeOf(vec3{})

	errs := reg.Discover(
		[]reflect.Type{vt},
		func(name string) (WriteFunc, bool) { return nil, false },
		func(name string) (ReadFunc, bool) { return nil, false },
		func(name string) (ReadIntoFunc, bool) { return nil, false },
	)
	assert.Len(t, errs, 1)
	assert.False(t, reg.Has(vt))
}
