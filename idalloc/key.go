package idalloc

// Key pairs a wire type id with the entity it describes, giving the
// dispatch driver a single sortable value to order or deduplicate incoming
// messages by (e.g. "apply updates in type_id, then entity_id order" for a
// deterministic replay log).
//
// Grounded on the teacher's biopb/coord.go, which adds comparison methods
// to a genomic (RefId, Pos, Seq) coordinate for shard ordering; this is the
// same comparison idiom applied to (TypeID, EntityID) instead.
type Key struct {
	TypeID   uint32
	EntityID uint32
}

// Compare returns a negative, zero, or positive int as k sorts before,
// equal to, or after k1.
func (k Key) Compare(k1 Key) int {
	if k.TypeID != k1.TypeID {
		return int(k.TypeID) - int(k1.TypeID)
	}
	return int(k.EntityID) - int(k1.EntityID)
}

// LT returns true iff k < k1.
func (k Key) LT(k1 Key) bool { return k.Compare(k1) < 0 }

// LE returns true iff k <= k1.
func (k Key) LE(k1 Key) bool { return k.Compare(k1) <= 0 }

// GE returns true iff k >= k1.
func (k Key) GE(k1 Key) bool { return k.Compare(k1) >= 0 }

// GT returns true iff k > k1.
func (k Key) GT(k1 Key) bool { return k.Compare(k1) > 0 }

// EQ returns true iff k == k1.
func (k Key) EQ(k1 Key) bool { return k.TypeID == k1.TypeID && k.EntityID == k1.EntityID }

// Min returns the smaller of k and k1.
func (k Key) Min(k1 Key) Key {
	if k.LT(k1) {
		return k
	}
	return k1
}
