package bitio

import "blainsmith.com/go/seahash"

// DebugChecksum returns a seahash checksum of buf, for manual use when
// diagnosing a suspected bit-packing bug (e.g. logging it alongside a
// dumped record so two runs of the same input can be compared by eye). It
// is never called from Reader or Writer themselves — computing it costs a
// full pass over the buffer, which the hot serialize/deserialize path
// cannot afford.
func DebugChecksum(buf []byte) uint64 {
	return seahash.Sum64(buf)
}
