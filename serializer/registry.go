// Package serializer is the custom-serializer registry: a build-time lookup
// of user-supplied Read/Write pairs for composite field types, keyed by
// reflect.Type so a single registry can back records of many different Go
// value types.
//
// Grounded on the teacher's encoding/pam/fieldio package, which dispatches
// per-field-type Put/Get functions through a table rather than reflection
// on every call; here the table is keyed by reflect.Type instead of a
// fieldio.FieldType enum, since composite types are open-ended and supplied
// by the caller rather than fixed by the format.
package serializer

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/netrep/bitgen/bitio"
	"github.com/netrep/bitgen/layout"
	"github.com/pkg/errors"
)

// WriteFunc encodes a composite value onto the wire.
type WriteFunc func(w *bitio.Writer, value any)

// ReadFunc is the "Read(port) -> value" shape a custom composite codec can
// take.
type ReadFunc func(r *bitio.Reader) any

// ReadIntoFunc is the "Read(port, out value)" shape, preferred when
// available since it avoids a throwaway allocation.
type ReadIntoFunc func(r *bitio.Reader, dst any)

type entry struct {
	write    WriteFunc
	read     ReadFunc
	readInto ReadIntoFunc
}

// Registry is a process-wide table of composite codecs, safe for concurrent
// registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]*entry)}
}

// Register installs write and (at least one of) read/readInto for t,
// overwriting any prior entry. A nil read with a non-nil readInto, or vice
// versa, is fine; ReadNew falls back between the two forms.
func (r *Registry) Register(t reflect.Type, write WriteFunc, read ReadFunc, readInto ReadIntoFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[t] = &entry{write: write, read: read, readInto: readInto}
}

// Has reports whether t has a registered codec.
func (r *Registry) Has(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[t]
	return ok
}

// Write encodes value, whose composite type is t, using the registered
// WriteFunc. Panics if t is unregistered; callers are expected to have
// validated this at build time via Has.
func (r *Registry) Write(w *bitio.Writer, t reflect.Type, value any) {
	e := r.get(t)
	if e == nil || e.write == nil {
		panic(r.missing(t))
	}
	e.write(w, value)
}

// ReadNew allocates a zero value of t, decodes into it, and returns the
// decoded value (not a pointer), preferring the registry's readInto form
// when present and falling back to the read-and-copy form otherwise: which
// shapes are available is decided by what the registrant supplied.
func (r *Registry) ReadNew(rd *bitio.Reader, t reflect.Type) (any, error) {
	e := r.get(t)
	if e == nil {
		return nil, r.missing(t)
	}
	ptr := reflect.New(t)
	switch {
	case e.readInto != nil:
		e.readInto(rd, ptr.Interface())
	case e.read != nil:
		v := e.read(rd)
		reflect.ValueOf(ptr.Interface()).Elem().Set(reflect.ValueOf(v))
	default:
		return nil, errors.Errorf("serializer: %s has a Write but no usable Read form", t)
	}
	return ptr.Elem().Interface(), nil
}

func (r *Registry) get(t reflect.Type) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[t]
}

// MissingMessage renders the MissingSerializer diagnostic text for t,
// including a did-you-mean suggestion drawn from the currently registered
// types.
func (r *Registry) MissingMessage(t reflect.Type) string {
	return r.missing(t).msg
}

type missingSerializerError struct {
	msg string
}

func (e *missingSerializerError) Error() string { return e.msg }

func (r *Registry) missing(t reflect.Type) *missingSerializerError {
	r.mu.RLock()
	known := make([]string, 0, len(r.entries))
	for kt := range r.entries {
		known = append(known, kt.String())
	}
	r.mu.RUnlock()

	msg := fmt.Sprintf("no serializer registered for composite type %s", t)
	if suggestion := layout.SuggestClosest(t.String(), known); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %s?)", suggestion)
	}
	return &missingSerializerError{msg: msg}
}

// LookupWriteFunc resolves a composite type's Write codec by its fully
// qualified type name, the shape a discovery pass (e.g. scanning a package
// for WriteXxx functions) would naturally produce.
type LookupWriteFunc func(typeName string) (WriteFunc, bool)

// LookupReadFunc resolves the "Read(port) -> value" form by type name.
type LookupReadFunc func(typeName string) (ReadFunc, bool)

// LookupReadIntoFunc resolves the "Read(port, out value)" form by type name.
type LookupReadIntoFunc func(typeName string) (ReadIntoFunc, bool)

// Discover registers every type in types by asking the three lookup
// callbacks for its codecs, the shape a discovery pass over a package's
// generated WriteXxx/ReadXxx functions would naturally produce. A type
// missing its Write, or missing both Read forms, produces a
// MissingSerializer *layout.BuildError in the returned slice instead of
// being registered. Discover is for a build step that enumerates composite
// types mentioned by record layouts ahead of time; a type used by no
// record never needs to appear here.
func (r *Registry) Discover(types []reflect.Type, lookupWrite LookupWriteFunc, lookupRead LookupReadFunc, lookupReadInto LookupReadIntoFunc) []error {
	var errs []error
	for _, t := range types {
		name := t.String()
		write, wok := lookupWrite(name)
		read, rok := lookupRead(name)
		readInto, riok := lookupReadInto(name)
		if !wok || (!rok && !riok) {
			errs = append(errs, &layout.BuildError{
				Kind:   layout.MissingSerializer,
				Record: name,
				Msg:    "discovery found no usable Write/Read pair",
			})
			continue
		}
		var rf ReadFunc
		if rok {
			rf = read
		}
		var rif ReadIntoFunc
		if riok {
			rif = readInto
		}
		r.Register(t, write, rf, rif)
	}
	return errs
}
