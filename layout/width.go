package layout

import (
	"math/bits"
	"reflect"
)

// primitiveWidths maps each blittable-primitive Kind to its fixed wire
// width. Enum and composite widths are computed separately.
var primitiveWidths = [...]uint{
	KindBool: 1,
	KindU8:   8,
	KindI8:   8,
	KindU16:  16,
	KindI16:  16,
	KindU32:  32,
	KindI32:  32,
	KindU64:  64,
	KindI64:  64,
}

// BitsForEnum computes the bit width needed to distinguish "variants"
// distinct enum values:
//
//	f(V) = 0                  if V == 0
//	       1                  if V == 1
//	       ceil(log2(V))      if V > 1
func BitsForEnum(variants int) uint {
	switch {
	case variants <= 0:
		return 0
	case variants == 1:
		return 1
	default:
		return uint(bits.Len(uint(variants - 1)))
	}
}

// Width returns the on-wire bit width of a field, given a composite width
// resolver for KindComposite fields: a composite's width is opaque to this
// package and delegated entirely to its user-supplied codec.
func Width[T any](f Field[T], compositeWidth func(reflect.Type) (uint, bool)) (uint, bool) {
	switch f.Kind {
	case KindEnum:
		return BitsForEnum(f.EnumVariants), true
	case KindComposite:
		if compositeWidth == nil {
			return 0, false
		}
		return compositeWidth(f.CompositeType)
	default:
		if int(f.Kind) < len(primitiveWidths) {
			return primitiveWidths[f.Kind], true
		}
		return 0, false
	}
}
