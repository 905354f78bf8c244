package codec

import (
	"reflect"
	"testing"

	"github.com/netrep/bitgen/bitio"
	"github.com/netrep/bitgen/layout"
	"github.com/netrep/bitgen/serializer"
	"github.com/stretchr/testify/assert"
)

type aim struct {
	X, Y int16
}

func writeAim(w *bitio.Writer, value any) {
	v := value.(aim)
	w.WriteBits(uint32(uint16(v.X)), 16)
	w.WriteBits(uint32(uint16(v.Y)), 16)
}

func readIntoAim(r *bitio.Reader, dst any) {
	v := dst.(*aim)
	v.X = int16(r.ReadBits(16))
	v.Y = int16(r.ReadBits(16))
}

type shot struct {
	Fired bool
	Power uint8
	Kind  int32 // enum, 3 variants
	Aim   aim
}

const (
	shotKindSingle int32 = iota
	shotKindBurst
	shotKindCharged
)

func shotRecord(reg *serializer.Registry) layout.Record[shot] {
	return layout.Record[shot]{
		Name: "Shot",
		Role: layout.RolePredicted,
		New:  func() shot { return shot{} },
		Fields: []layout.Field[shot]{
			{
				Name:    "fired",
				Kind:    layout.KindBool,
				GetBits: func(v *shot) uint64 { if v.Fired { return 1 }; return 0 },
				SetBits: func(v *shot, bits uint64) { v.Fired = bits != 0 },
			},
			{
				Name:    "power",
				Kind:    layout.KindU8,
				GetBits: func(v *shot) uint64 { return uint64(v.Power) },
				SetBits: func(v *shot, bits uint64) { v.Power = uint8(bits) },
			},
			{
				Name:         "kind",
				Kind:         layout.KindEnum,
				EnumVariants: 3,
				GetBits:      func(v *shot) uint64 { return uint64(v.Kind) },
				SetBits:      func(v *shot, bits uint64) { v.Kind = int32(bits) },
			},
			{
				Name:          "aim",
				Kind:          layout.KindComposite,
				CompositeType: reflect.TypeOf(aim{}),
				GetComposite:  func(v *shot) any { return v.Aim },
				SetComposite:  func(v *shot, val any) { v.Aim = val.(aim) },
			},
		},
	}
}

func buildShotCodec(t *testing.T) *Codec[shot] {
	reg := serializer.NewRegistry()
	reg.Register(reflect.TypeOf(aim{}), writeAim, nil, readIntoAim)
	c, err := Build(shotRecord(reg), reg)
	assert.NoError(t, err)
	return c
}

func TestSerializeFullDeserializeFullRoundTrip(t *testing.T) {
	c := buildShotCodec(t)
	in := shot{Fired: true, Power: 200, Kind: shotKindBurst, Aim: aim{X: -5, Y: 12}}

	w := bitio.NewWriter()
	c.SerializeFull(w, &in)
	r := bitio.NewReader(w.Flush())
	out := c.DeserializeFull(r)

	assert.Equal(t, in, out)
}

func TestBoolNormalizesTruthyToOne(t *testing.T) {
	c := buildShotCodec(t)
	in := shot{Fired: true}
	w := bitio.NewWriter()
	c.SerializeFull(w, &in)
	assert.Equal(t, 1+8+2+32, w.BitLen())
	assert.Equal(t, uint32(1), bitio.NewReader(w.Flush()).ReadBits(1))
}

func TestDiffThenMaskReproducesTarget(t *testing.T) {
	c := buildShotCodec(t)
	a := shot{Fired: false, Power: 1, Kind: shotKindSingle, Aim: aim{X: 1, Y: 1}}
	b := shot{Fired: true, Power: 1, Kind: shotKindCharged, Aim: aim{X: 1, Y: 1}}

	mask := c.Diff(&a, &b)
	assert.NotZero(t, mask&1)          // fired changed
	assert.Zero(t, mask&(1<<1))        // power unchanged
	assert.NotZero(t, mask&(1<<2))     // kind changed
	assert.Zero(t, mask&(1<<3))        // aim unchanged

	w := bitio.NewWriter()
	c.SerializeMask(w, &b, mask)
	r := bitio.NewReader(w.Flush())
	got := a
	gotMask := c.DeserializeMaskRef(r, &got)

	assert.Equal(t, mask, gotMask)
	assert.Equal(t, b, got)
}

func TestMaskPrefixOmittedForSingleField(t *testing.T) {
	reg := serializer.NewRegistry()
	rec := layout.Record[shot]{
		Name: "OneField",
		Fields: []layout.Field[shot]{
			{
				Name:    "power",
				Kind:    layout.KindU8,
				GetBits: func(v *shot) uint64 { return uint64(v.Power) },
				SetBits: func(v *shot, bits uint64) { v.Power = uint8(bits) },
			},
		},
	}
	c, err := Build(rec, reg)
	assert.NoError(t, err)

	in := shot{Power: 42}
	w := bitio.NewWriter()
	c.SerializeMask(w, &in, 1)
	assert.Equal(t, 8, w.BitLen())
}

func TestBuildRejectsMissingComposite(t *testing.T) {
	reg := serializer.NewRegistry()
	_, err := Build(shotRecord(reg), reg)
	assert.Error(t, err)
}

type tick struct {
	Seq uint64
}

func tickRecord() layout.Record[tick] {
	return layout.Record[tick]{
		Name: "Tick",
		Role: layout.RolePredicted,
		New:  func() tick { return tick{} },
		Fields: []layout.Field[tick]{
			{
				Name:    "seq",
				Kind:    layout.KindU64,
				GetBits: func(v *tick) uint64 { return v.Seq },
				SetBits: func(v *tick, bits uint64) { v.Seq = bits },
			},
		},
	}
}

// TestU64FieldRoundTripsFullWidth exercises the wide half of the 64-bit
// wireBits/WriteBits64/ReadBits64 path: a value whose top 32 bits are
// nonzero must survive serialization, which the narrower WriteBits(uint32,
// n) call alone would silently truncate.
func TestU64FieldRoundTripsFullWidth(t *testing.T) {
	reg := serializer.NewRegistry()
	c, err := Build(tickRecord(), reg)
	assert.NoError(t, err)

	in := tick{Seq: 0xFFFFFFFF00000001}
	w := bitio.NewWriter()
	c.SerializeFull(w, &in)
	assert.Equal(t, 64, w.BitLen())

	r := bitio.NewReader(w.Flush())
	out := c.DeserializeFull(r)
	assert.Equal(t, in, out)
}
