// Package registry is the runtime registration table: it builds up the
// type-id assignments and the per-type switch tables (new/update/destroy)
// one RegisterRecord call at a time, so the dispatch driver (package
// dispatch) has something to route against.
//
// Grounded on the teacher's encoding/bam marshal/unmarshal pairing of a
// fixed per-field-type dispatch table with a one-time setup step; here the
// table is built incrementally by RegisterRecord instead of hard-coded,
// since the set of record types is supplied by the caller rather than
// fixed by the BAM format.
package registry

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/netrep/bitgen/bitio"
	"github.com/netrep/bitgen/codec"
	"github.com/netrep/bitgen/idalloc"
	"github.com/netrep/bitgen/layout"
	"github.com/netrep/bitgen/pool"
	"github.com/netrep/bitgen/serializer"
)

// InitErrorKind names a variant of InitError, the fatal registration-time
// diagnostic.
type InitErrorKind uint8

const (
	// DuplicateId: the same record type was registered twice.
	DuplicateId InitErrorKind = iota
)

func (k InitErrorKind) String() string {
	switch k {
	case DuplicateId:
		return "InitError/DuplicateId"
	default:
		return "InitError/Unknown"
	}
}

// InitError is a fatal, registration-time diagnostic: a problem with how
// the application is wiring up its record types, not with any message on
// the wire.
type InitError struct {
	Kind   InitErrorKind
	Record string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s: record %q", e.Kind, e.Record)
}

// Receiver is the application's hook into one record type's lifecycle: the
// functions the dispatch driver calls once it has decoded a message.
// GrabOrCreate supplies the entity's current value for an update to be
// applied as a mask-diff on top of, or a fresh zero value if the sender's
// "new" message for this entity hasn't arrived yet (or was never seen by
// this process) — it never fails, because the update's mask+field bits
// have already been committed to the wire by the sender and must always be
// consumed, not conditionally skipped.
type Receiver[T any] struct {
	GrabOrCreate func(entityID uint32) T
	OnNew        func(entityID uint32, v T)
	OnUpdate     func(entityID uint32, v T)
	OnDestroy    func(entityID uint32)
}

// Tables is the process-wide registration state: id_of, ids_by_role, and
// the three switch tables keyed by the wire type id. A Tables is built
// once at process start by calling RegisterRecord for every record type
// and is safe for concurrent dispatch thereafter.
type Tables struct {
	mu    sync.RWMutex
	alloc *idalloc.Allocator

	switchNew     map[uint32]func(entityID uint32, r *bitio.Reader)
	switchUpdate  map[uint32]func(entityID uint32, r *bitio.Reader)
	switchDestroy map[uint32]func(entityID uint32)
}

// NewTables returns an empty Tables backed by alloc.
func NewTables(alloc *idalloc.Allocator) *Tables {
	return &Tables{
		alloc:         alloc,
		switchNew:     make(map[uint32]func(entityID uint32, r *bitio.Reader)),
		switchUpdate:  make(map[uint32]func(entityID uint32, r *bitio.Reader)),
		switchDestroy: make(map[uint32]func(entityID uint32)),
	}
}

// Allocator returns the id allocator backing tables, for callers that need
// IDsByRole or Fingerprint lookups.
func (tables *Tables) Allocator() *idalloc.Allocator { return tables.alloc }

// RegisterRecord builds rec's codec, assigns it a type id, and installs its
// switch-table entries, all in one step: compile a per-type template, then
// install it into a runtime-dispatchable slot. Calling RegisterRecord twice
// for the same T returns *InitError with Kind DuplicateId.
func RegisterRecord[T any](tables *Tables, rec layout.Record[T], reg *serializer.Registry, role layout.Role, recv Receiver[T]) (idalloc.TypeID, error) {
	c, err := codec.Build(rec, reg)
	if err != nil {
		return 0, err
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	fp := idalloc.LayoutFingerprint(rec)
	id, err := tables.alloc.Assign(t, rec.Name, role, fp)
	if err != nil {
		return 0, &InitError{Kind: DuplicateId, Record: rec.Name}
	}

	newFn := rec.New
	if newFn == nil {
		newFn = func() T { var zero T; return zero }
	}
	// scratch holds the per-message decode target for both switchNew and
	// switchUpdate: Get a *T, decode into it, copy the result out to the
	// receiver's callback by value, then Put it straight back. A hot
	// connection decoding many messages a second reuses the same handful of
	// backing values instead of allocating one per message. switchDestroy
	// never decodes a value, so it has nothing to borrow from scratch.
	scratch := pool.New[T](runtime.GOMAXPROCS(0), 0, func() *T { v := newFn(); return &v })

	key := uint32(id)
	tables.mu.Lock()
	defer tables.mu.Unlock()

	tables.switchNew[key] = func(entityID uint32, r *bitio.Reader) {
		v := scratch.Get()
		c.DeserializeFullRef(r, v)
		log.Debug.Printf("registry: new %s entity=%d", rec.Name, entityID)
		if recv.OnNew != nil {
			recv.OnNew(entityID, *v)
		}
		scratch.Put(v)
	}
	tables.switchUpdate[key] = func(entityID uint32, r *bitio.Reader) {
		v := scratch.Get()
		if recv.GrabOrCreate != nil {
			*v = recv.GrabOrCreate(entityID)
		} else {
			*v = newFn()
		}
		c.DeserializeMaskRef(r, v)
		if recv.OnUpdate != nil {
			recv.OnUpdate(entityID, *v)
		}
		scratch.Put(v)
	}
	tables.switchDestroy[key] = func(entityID uint32) {
		log.Debug.Printf("registry: destroy %s entity=%d", rec.Name, entityID)
		if recv.OnDestroy != nil {
			recv.OnDestroy(entityID)
		}
	}
	return id, nil
}

// SwitchNew, SwitchUpdate and SwitchDestroy look up the installed handler
// for a wire type id. The bool return is false for an id nothing ever
// registered; the dispatch driver treats that as a silent no-op.
func (tables *Tables) SwitchNew(typeID uint32) (func(entityID uint32, r *bitio.Reader), bool) {
	tables.mu.RLock()
	defer tables.mu.RUnlock()
	fn, ok := tables.switchNew[typeID]
	return fn, ok
}

func (tables *Tables) SwitchUpdate(typeID uint32) (func(entityID uint32, r *bitio.Reader), bool) {
	tables.mu.RLock()
	defer tables.mu.RUnlock()
	fn, ok := tables.switchUpdate[typeID]
	return fn, ok
}

func (tables *Tables) SwitchDestroy(typeID uint32) (func(entityID uint32), bool) {
	tables.mu.RLock()
	defer tables.mu.RUnlock()
	fn, ok := tables.switchDestroy[typeID]
	return fn, ok
}
