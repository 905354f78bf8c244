package dispatch

import (
	"testing"

	"github.com/netrep/bitgen/bitio"
	"github.com/netrep/bitgen/idalloc"
	"github.com/netrep/bitgen/layout"
	"github.com/netrep/bitgen/registry"
	"github.com/netrep/bitgen/serializer"
	"github.com/stretchr/testify/assert"
)

type health struct{ HP uint8 }

func healthRecord() layout.Record[health] {
	return layout.Record[health]{
		Name: "Health",
		Role: layout.RoleGhost,
		New:  func() health { return health{} },
		Fields: []layout.Field[health]{
			{
				Name:    "hp",
				Kind:    layout.KindU8,
				GetBits: func(v *health) uint64 { return uint64(v.HP) },
				SetBits: func(v *health, bits uint64) { v.HP = uint8(bits) },
			},
		},
	}
}

func TestReceiveNewRoutesToRegisteredHandler(t *testing.T) {
	tables := registry.NewTables(idalloc.NewAllocator())
	reg := serializer.NewRegistry()
	var got health
	var gotEntity uint32

	id, err := registry.RegisterRecord(tables, healthRecord(), reg, layout.RoleGhost, registry.Receiver[health]{
		OnNew: func(entityID uint32, v health) { gotEntity = entityID; got = v },
	})
	assert.NoError(t, err)

	d := New(tables)
	w := bitio.NewWriter()
	w.WriteBits(77, 8)
	d.ReceiveNew(uint32(id), 5, bitio.NewReader(w.Flush()))

	assert.Equal(t, uint32(5), gotEntity)
	assert.Equal(t, health{HP: 77}, got)
}

func TestReceiveOnUnknownTypeIDIsSilentNoOp(t *testing.T) {
	tables := registry.NewTables(idalloc.NewAllocator())
	d := New(tables)

	assert.NotPanics(t, func() {
		d.ReceiveNew(9999, 1, bitio.NewReader(nil))
		d.ReceiveUpdate(9999, 1, bitio.NewReader(nil))
		d.ReceiveDestroy(9999, 1)
	})
}

func TestReceiveDestroyRoutesToRegisteredHandler(t *testing.T) {
	tables := registry.NewTables(idalloc.NewAllocator())
	reg := serializer.NewRegistry()
	destroyed := uint32(0)

	id, err := registry.RegisterRecord(tables, healthRecord(), reg, layout.RoleGhost, registry.Receiver[health]{
		OnDestroy: func(entityID uint32) { destroyed = entityID },
	})
	assert.NoError(t, err)

	d := New(tables)
	d.ReceiveDestroy(uint32(id), 12)

	assert.Equal(t, uint32(12), destroyed)
}
