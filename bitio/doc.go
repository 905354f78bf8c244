// Package bitio is a minimal MSB-first bit stream, byte-aligned only at
// message boundaries: an opaque port the codec layer writes through and
// reads back from, never owning the underlying connection or file itself.
//
// The port is a supporting collaborator for the codec generator, not part
// of its core logic; this package exists so the generator has something
// concrete to emit against and so its properties (round-trip, width
// bounds) can be tested end to end.
package bitio
