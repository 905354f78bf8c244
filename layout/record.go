package layout

import "reflect"

// Role is the replication role a record is tagged with: it controls which
// of the three per-role dispatch buckets idalloc.Allocator files the type
// id into.
type Role uint8

const (
	RolePredicted Role = iota
	RoleGhost
	RoleInput
	RoleShortLivedEvent
)

func (r Role) String() string {
	switch r {
	case RolePredicted:
		return "Predicted"
	case RoleGhost:
		return "Ghost"
	case RoleInput:
		return "Input"
	case RoleShortLivedEvent:
		return "ShortLivedEvent"
	default:
		return "InvalidRole"
	}
}

// MaxFields is the per-record field count bound: a record's mask is a
// single uint32, one bit per field, so no record may declare more than 32
// fields.
const MaxFields = 32

// Record is the build-time descriptor for one data struct: its role, its
// fields in canonical declaration order, and a zero-value constructor.
//
// T is the record's resolved concrete value-type handle.
type Record[T any] struct {
	Name   string
	Role   Role
	Fields []Field[T]
	New    func() T
}

// Validate applies the field-classifier rules to r, returning every
// BuildError found (the caller typically feeds these into an
// errorreporter.T so a whole batch of records is checked in one pass).
//
// Validate has no Go-language equivalent for a few diagnostics a reflected,
// struct-tag-driven classifier would naturally produce: Go has no concept
// of an "event" member, no sealed/unsealed distinction on a type, and no
// properties-vs-fields split (everything is a field), so there is nothing
// for those checks to examine here. The one translatable diagnostic —
// rejecting a field backed by unexported Go state — is implemented below
// via the optional Field.GoName correlation; see DESIGN.md for the full
// reasoning.
func (r Record[T]) Validate() []error {
	var errs []error
	n := len(r.Fields)
	if n == 0 {
		// Zero-field records are legal: diff is always 0, wire length 0.
	} else if n > MaxFields {
		errs = append(errs, &BuildError{
			Kind:   InvalidLayout,
			Record: r.Name,
			Msg:    "record has more than 32 fields",
		})
	}
	seen := map[string]bool{}
	for _, f := range r.Fields {
		if seen[f.Name] {
			errs = append(errs, &BuildError{
				Kind:   InvalidLayout,
				Record: r.Name,
				Field:  f.Name,
				Msg:    "duplicate field name",
			})
		}
		seen[f.Name] = true

		if f.GoName != "" {
			if t := reflect.TypeOf((*T)(nil)).Elem(); t.Kind() == reflect.Struct {
				if sf, ok := t.FieldByName(f.GoName); ok && sf.PkgPath != "" {
					errs = append(errs, &BuildError{
						Kind:   InvalidLayout,
						Record: r.Name,
						Field:  f.Name,
						Msg:    "backed by an unexported Go field: " + f.GoName,
					})
				}
			}
		}

		if f.Kind >= kindInvalid {
			errs = append(errs, &BuildError{
				Kind:   InvalidLayout,
				Record: r.Name,
				Field:  f.Name,
				Msg:    "unsupported field kind",
			})
			continue
		}
		switch f.Kind {
		case KindEnum:
			if f.EnumVariants < 0 {
				errs = append(errs, &BuildError{
					Kind:   InvalidLayout,
					Record: r.Name,
					Field:  f.Name,
					Msg:    "enum has negative variant count",
				})
			}
			if f.GetBits == nil || f.SetBits == nil {
				errs = append(errs, &BuildError{
					Kind:   InvalidLayout,
					Record: r.Name,
					Field:  f.Name,
					Msg:    "enum field is missing a bit accessor",
				})
			}
		case KindComposite:
			if f.CompositeType == nil {
				errs = append(errs, &BuildError{
					Kind:   InvalidLayout,
					Record: r.Name,
					Field:  f.Name,
					Msg:    "composite field has no resolved type",
				})
			} else if f.CompositeType.Kind() == reflect.Struct && hasNestedComposite(f.CompositeType) {
				errs = append(errs, &BuildError{
					Kind:   InvalidLayout,
					Record: r.Name,
					Field:  f.Name,
					Msg:    "composite fields may not nest a further composite (single-level nesting only)",
				})
			}
			if f.GetComposite == nil || f.SetComposite == nil {
				errs = append(errs, &BuildError{
					Kind:   InvalidLayout,
					Record: r.Name,
					Field:  f.Name,
					Msg:    "composite field is missing a value accessor",
				})
			}
		default: // blittable primitive
			if f.GetBits == nil || f.SetBits == nil {
				errs = append(errs, &BuildError{
					Kind:   InvalidLayout,
					Record: r.Name,
					Field:  f.Name,
					Msg:    "primitive field is missing a bit accessor",
				})
			}
		}
	}
	return errs
}

// nestedComposites holds the composite field types that themselves embed a
// further composite; callers mark such a type via RegisterNestedComposite so
// Validate can reject it: composites may not themselves nest a further
// composite.
var nestedComposites = map[reflect.Type]bool{}

// RegisterNestedComposite marks t as containing a field that is itself a
// composite, so a record using t as a composite field is rejected at build
// time.
func RegisterNestedComposite(t reflect.Type) {
	nestedComposites[t] = true
}

func hasNestedComposite(t reflect.Type) bool {
	return nestedComposites[t]
}
