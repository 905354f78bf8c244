// Package buildmanifest records, as a protobuf message, every record type
// one build registered: its name, assigned wire type id, role, and layout
// fingerprint (idalloc.LayoutFingerprint). Two builds publish and fetch
// these to confirm they agree on a type's shape before trusting each
// other's type ids over the wire — catching the "two endpoints silently
// disagree about a record's layout" failure mode a step earlier than a
// StreamError mid-message would.
//
// Grounded on the teacher's biopb package (protobuf messages describing
// genomic coordinates) for the message shape, and on
// cmd/bio-pamtool/checksum.go and encoding/bamprovider's use of
// github.com/aws/aws-sdk-go's S3 client for the publish/fetch transport.
package buildmanifest

import (
	"github.com/gogo/protobuf/proto"
	"github.com/minio/highwayhash"
)

// digestKey is a fixed, arbitrary 32-byte key for the highwayhash digest
// below. It only needs to be consistent across processes comparing
// digests, not secret.
var digestKey = [32]byte{
	'b', 'i', 't', 'g', 'e', 'n', '-', 'm',
	'a', 'n', 'i', 'f', 'e', 's', 't', '-',
	'd', 'i', 'g', 'e', 's', 't', '-', 'k',
	'e', 'y', '-', 'v', '1', '-', '!', '!',
}

// RecordEntry is one record type's entry in a Manifest.
type RecordEntry struct {
	Name        string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	TypeId      uint32 `protobuf:"varint,2,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Role        string `protobuf:"bytes,3,opt,name=role,proto3" json:"role,omitempty"`
	Fingerprint uint64 `protobuf:"varint,4,opt,name=fingerprint,proto3" json:"fingerprint,omitempty"`
}

func (m *RecordEntry) Reset()         { *m = RecordEntry{} }
func (m *RecordEntry) String() string { return proto.CompactTextString(m) }
func (*RecordEntry) ProtoMessage()    {}

// Manifest is the full set of record types one build registered.
type Manifest struct {
	BuildId string         `protobuf:"bytes,1,opt,name=build_id,json=buildId,proto3" json:"build_id,omitempty"`
	Records []*RecordEntry `protobuf:"bytes,2,rep,name=records,proto3" json:"records,omitempty"`
}

func (m *Manifest) Reset()         { *m = Manifest{} }
func (m *Manifest) String() string { return proto.CompactTextString(m) }
func (*Manifest) ProtoMessage()    {}

// New builds a Manifest from a flat list of entries.
func New(buildID string, entries []*RecordEntry) *Manifest {
	return &Manifest{BuildId: buildID, Records: entries}
}

// Marshal encodes m using gogo/protobuf's struct-tag-driven encoder; no
// generated .pb.go is required since the tags above are exactly what
// protoc-gen-gogo would have emitted for this message shape.
func Marshal(m *Manifest) ([]byte, error) {
	return proto.Marshal(m)
}

// Unmarshal decodes a Manifest previously produced by Marshal.
func Unmarshal(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Digest returns a highwayhash-64 digest of m's encoded bytes: a short,
// fast-to-compare fingerprint for the whole manifest, used where
// transmitting or storing the full Manifest is wasteful (e.g. alongside
// every connection handshake) but a one-sided "has anything changed"
// check is still wanted.
func Digest(m *Manifest) (uint64, error) {
	data, err := Marshal(m)
	if err != nil {
		return 0, err
	}
	h, err := highwayhash.New64(digestKey[:])
	if err != nil {
		return 0, err
	}
	h.Write(data)
	return h.Sum64(), nil
}

// Diff compares two manifests' entries by name and reports names whose
// type id or fingerprint disagree between them — a layout drift between
// two builds that expect to talk to each other.
func Diff(a, b *Manifest) []string {
	byName := make(map[string]*RecordEntry, len(b.Records))
	for _, e := range b.Records {
		byName[e.Name] = e
	}
	var drift []string
	for _, e := range a.Records {
		other, ok := byName[e.Name]
		if !ok || other.TypeId != e.TypeId || other.Fingerprint != e.Fingerprint {
			drift = append(drift, e.Name)
		}
	}
	return drift
}
