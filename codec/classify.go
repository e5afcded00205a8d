package codec

import (
	"reflect"

	"github.com/wirebeam/graphcodec"
)

// Kind is the semantic classification of a value. It decides which encode
// routine the session dispatches to. New kinds require a new variant here
// and a new case in the session's dispatch.
type Kind uint8

const (
	KindInvalid Kind = iota // no wire representation (chan, func, unsafe)
	KindNil
	KindBool
	KindInt
	KindUint
	KindFloat
	KindChar
	KindString
	KindURI
	KindBinary
	KindMap
	KindSequence
	KindBean
	KindStream
	KindOther // string-conversion fallback
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindURI:
		return "uri"
	case KindBinary:
		return "binary"
	case KindMap:
		return "map"
	case KindSequence:
		return "sequence"
	case KindBean:
		return "bean"
	case KindStream:
		return "stream"
	case KindOther:
		return "other"
	default:
		return "invalid"
	}
}

// classify determines the actual semantic kind of a concrete value. The
// declared descriptor wins when it constrains the type; an unconstrained
// declaration falls through to the value's runtime type. Classification is
// a pure function of (value, descriptor): runtime type may differ from the
// declared type per occurrence, so results are never cached across call
// sites.
//
// Returns the kind and the effective descriptor the encode routine should
// use for nested element/key types.
func (c *typeCache) classify(cv reflect.Value, td *TypeDescriptor) (Kind, *TypeDescriptor) {
	if !cv.IsValid() {
		return KindNil, td
	}
	if td == nil || td.IsAny() {
		td = c.descriptor(cv.Type())
	}
	kind := td.kind

	// NUL characters are not representable and are treated as absent.
	if kind == KindChar && cv.Kind() == reflect.Int32 && cv.Int() == 0 {
		return KindNil, td
	}
	return kind, td
}

// identity is the reference identity used for cycle detection. It is
// reference-based (allocation address), never equality-based. Slices carry
// their length too: aliased slices over one backing array share a base
// address but are the same reference only when they span the same elements,
// so a prefix of an in-progress slice must not read as a back edge.
type identity struct {
	ptr uintptr
	ext uintptr
}

// identityOf returns the value's identity, or the zero identity for values
// that cannot participate in a cycle.
func identityOf(rv reflect.Value) identity {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return identity{}
		}
		return identity{ptr: rv.Pointer()}
	case reflect.Slice:
		if rv.IsNil() {
			return identity{}
		}
		return identity{ptr: rv.Pointer(), ext: uintptr(rv.Len())}
	}
	return identity{}
}

// isNilValue reports whether rv is an absent value: an invalid (untyped nil)
// value or a nil pointer, map, slice, or interface.
func isNilValue(rv reflect.Value) bool {
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// enumeratorFor resolves the property enumerator for a bean value: either
// the value implements PropertyEnumerable itself (possibly via its pointer),
// or an enumerator was registered for its type.
func (c *Codec) enumeratorFor(rv reflect.Value) (graphcodec.Enumerator, bool) {
	if rv.Type().Implements(enumerableType) {
		return func(v any) []graphcodec.Property {
			return v.(graphcodec.PropertyEnumerable).EncodeProperties()
		}, true
	}
	if e, ok := c.enumerators[rv.Type()]; ok {
		return e, true
	}
	if rv.Kind() == reflect.Pointer {
		if e, ok := c.enumerators[rv.Type().Elem()]; ok {
			elem := rv.Elem()
			return func(any) []graphcodec.Property {
				return e(elem.Interface())
			}, true
		}
	} else if rv.CanAddr() {
		if rv.Addr().Type().Implements(enumerableType) {
			addr := rv.Addr()
			return func(any) []graphcodec.Property {
				return addr.Interface().(graphcodec.PropertyEnumerable).EncodeProperties()
			}, true
		}
	}
	return nil, false
}
