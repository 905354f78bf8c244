// Package dispatch is the dispatch driver: the three runtime entry points
// a network layer calls when a message arrives, routing by wire type id
// into the tables registry.Tables installed during init.
//
// Grounded on the teacher's encoding/bam reader dispatch loop, which reads
// a tag byte and switches into a fixed per-record-kind decode routine;
// here the tag is the allocated type id and the routine comes from
// registry.Tables rather than a compile-time switch statement.
package dispatch

import (
	"github.com/grailbio/base/log"
	"github.com/netrep/bitgen/bitio"
	"github.com/netrep/bitgen/registry"
)

// Driver routes incoming messages to the handlers tables has installed.
type Driver struct {
	tables *registry.Tables
}

// New returns a Driver backed by tables.
func New(tables *registry.Tables) *Driver {
	return &Driver{tables: tables}
}

// ReceiveNew decodes a full record of typeID from r and reports it as a
// new entity. An unrecognized typeID is a silent no-op: dropping a message
// for a type this process never registered is expected during a rolling
// deploy, not an error.
func (d *Driver) ReceiveNew(typeID uint32, entityID uint32, r *bitio.Reader) {
	fn, ok := d.tables.SwitchNew(typeID)
	if !ok {
		log.Debug.Printf("dispatch: receive_new unknown type_id=%d entity=%d, dropped", typeID, entityID)
		return
	}
	fn(entityID, r)
}

// ReceiveUpdate decodes a mask-prefixed partial record of typeID from r and
// applies it to entityID's existing value. Unrecognized typeID: silent
// no-op.
func (d *Driver) ReceiveUpdate(typeID uint32, entityID uint32, r *bitio.Reader) {
	fn, ok := d.tables.SwitchUpdate(typeID)
	if !ok {
		log.Debug.Printf("dispatch: receive_update unknown type_id=%d entity=%d, dropped", typeID, entityID)
		return
	}
	fn(entityID, r)
}

// ReceiveDestroy reports that entityID's record of typeID is gone.
// Unrecognized typeID: silent no-op.
func (d *Driver) ReceiveDestroy(typeID uint32, entityID uint32) {
	fn, ok := d.tables.SwitchDestroy(typeID)
	if !ok {
		log.Debug.Printf("dispatch: receive_destroy unknown type_id=%d entity=%d, dropped", typeID, entityID)
		return
	}
	fn(entityID)
}
