package graphcodec

import "reflect"

// Property is one named member of a bean as seen by the codec: the value it
// currently holds, and whether reading it failed. Properties are produced
// fresh for every encode of the owning bean and are not retained afterwards.
type Property struct {
	// Value is the property's current value. Ignored when Err is set.
	Value any

	// Err records a read failure. A failed property is reported through the
	// session's failure hook and omitted from the encoded map; it never
	// aborts the walk.
	Err error

	// Type is the property's declared type. Optional: when set it drives
	// classification of the value (and key generalization for declared map
	// types) the same way a container's element type would; when nil the
	// value's runtime type decides.
	Type reflect.Type

	// Name is the property's wire name.
	Name string

	// URI marks a string-valued property that must be resolved to its
	// absolute form before encoding.
	URI bool
}

// PropertyEnumerable is the capability a structured value implements to be
// encoded as a bean: a fixed, named, ordered set of readable properties.
// The returned order is the wire order.
type PropertyEnumerable interface {
	EncodeProperties() []Property
}

// Enumerator produces the ordered property list for a value of a registered
// type. It is the registration-based alternative to implementing
// PropertyEnumerable on the type itself.
type Enumerator func(value any) []Property

// URIResolver turns a possibly relative URI reference into the absolute form
// written to the wire.
type URIResolver interface {
	Resolve(ref string) (string, error)
}

// Char is a single character value. MessagePack has no character type, so a
// Char encodes as a one-rune string. Char(0) is not representable and
// encodes as null.
type Char rune

// URI is a string that the classifier treats as a URI reference rather than
// plain text: it is passed through the session's URIResolver before being
// written as a string.
type URI string
