package domain

// FieldKind describes the value domain of a configurable field.
type FieldKind int

const (
	// KindBool is a simple on/off toggle.
	KindBool FieldKind = iota
	// KindBoundedInt is an integer moved by fixed increments inside [Min, Max].
	KindBoundedInt
	// KindNestedBool is a group of named boolean subfields edited together.
	KindNestedBool
)

// FieldSpec is the static description of one configurable field.
// Specs are owned by the registry and immutable for the process lifetime.
type FieldSpec struct {
	Name string
	Kind FieldKind

	DefaultBool bool

	// Bounded integer domain. Only meaningful when Kind == KindBoundedInt.
	DefaultInt int
	Min        int
	Max        int
	Step       int

	// Subfields declares the nested toggles when Kind == KindNestedBool.
	// Each subfield carries its own DefaultBool.
	Subfields []FieldSpec
}

// Subfield returns the spec of a nested toggle, if declared.
func (s FieldSpec) Subfield(name string) (FieldSpec, bool) {
	for _, sub := range s.Subfields {
		if sub.Name == name {
			return sub, true
		}
	}
	return FieldSpec{}, false
}
