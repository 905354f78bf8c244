// Package idalloc is the type-id allocator: it assigns each record type a
// stable, dense u16 id in discovery order and buckets those ids into the
// three fixed per-role arrays the dispatch driver walks.
//
// Grounded on the teacher's biopb/coord.go, which assigns dense integer ids
// to coordinate types in a fixed, deterministic order; here the same idea
// is generalized from a closed set of coordinate kinds to an open set of
// record types discovered at build time.
package idalloc

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/dgryski/go-farm"
	"github.com/netrep/bitgen/layout"
)

// TypeID is the dense per-process record type id.
type TypeID = uint16

// DuplicateIDError reports that t was assigned a type id more than once.
type DuplicateIDError struct {
	Type reflect.Type
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("idalloc: %s already has an assigned type id", e.Type)
}

// Allocator assigns ids 1, 2, 3, ... in the order types are first seen
// across all roles, and buckets Predicted/Ghost/Input ids into the fixed
// per-role arrays. ShortLivedEvent types receive an id but are never
// placed in a role bucket, since events aren't dispatched by role.
type Allocator struct {
	mu           sync.Mutex
	next         TypeID
	ids          map[reflect.Type]TypeID
	names        map[TypeID]string
	fingerprints map[TypeID]uint64
	byRole       map[layout.Role][]uint32
}

// NewAllocator returns an empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{
		ids:          make(map[reflect.Type]TypeID),
		names:        make(map[TypeID]string),
		fingerprints: make(map[TypeID]uint64),
		byRole:       make(map[layout.Role][]uint32),
	}
}

// Assign gives t its type id, recording its role bucket membership and
// layout fingerprint. Calling Assign twice for the same t is a build-time
// bug (the same record type registered more than once) and returns
// *DuplicateIDError rather than silently returning the existing id.
func (a *Allocator) Assign(t reflect.Type, name string, role layout.Role, fingerprint uint64) (TypeID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.ids[t]; ok {
		return 0, &DuplicateIDError{Type: t}
	}
	a.next++
	id := a.next
	a.ids[t] = id
	a.names[id] = name
	a.fingerprints[id] = fingerprint
	if role == layout.RolePredicted || role == layout.RoleGhost || role == layout.RoleInput {
		a.byRole[role] = append(a.byRole[role], uint32(id))
	}
	return id, nil
}

// IDOf returns the id assigned to t, if any.
func (a *Allocator) IDOf(t reflect.Type) (TypeID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.ids[t]
	return id, ok
}

// NameOf returns the record name id was assigned under.
func (a *Allocator) NameOf(id TypeID) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.names[id]
	return n, ok
}

// Fingerprint returns the layout fingerprint recorded at assignment time,
// used to detect two builds disagreeing about a record's shape.
func (a *Allocator) Fingerprint(id TypeID) (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fp, ok := a.fingerprints[id]
	return fp, ok
}

// IDsByRole returns the ids assigned to role, in assignment order. The
// returned slice is a copy; callers must not mutate the allocator through
// it.
func (a *Allocator) IDsByRole(role layout.Role) []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	src := a.byRole[role]
	out := make([]uint32, len(src))
	copy(out, src)
	return out
}

// LayoutFingerprint hashes a record's name and field shape (each field's
// kind, enum variant count and name, in order) with farm so two processes can cheaply confirm they compiled
// the same layout for a type before trusting each other's type ids.
func LayoutFingerprint[T any](rec layout.Record[T]) uint64 {
	var buf []byte
	buf = append(buf, []byte(rec.Name)...)
	buf = append(buf, 0)
	for _, f := range rec.Fields {
		buf = append(buf, byte(f.Kind))
		buf = append(buf, byte(f.EnumVariants), byte(f.EnumVariants>>8))
		buf = append(buf, []byte(f.Name)...)
		buf = append(buf, 0)
	}
	return farm.Hash64WithSeed(buf, 0)
}
