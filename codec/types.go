package codec

import (
	"io"
	"net/url"
	"reflect"
	"sync"

	"github.com/wirebeam/graphcodec"
)

var (
	enumerableType = reflect.TypeOf((*graphcodec.PropertyEnumerable)(nil)).Elem()
	readerType     = reflect.TypeOf((*io.Reader)(nil)).Elem()
	charType       = reflect.TypeOf(graphcodec.Char(0))
	uriStringType  = reflect.TypeOf(graphcodec.URI(""))
	urlType        = reflect.TypeOf(url.URL{})
	anyType        = reflect.TypeOf((*any)(nil)).Elem()
)

// TypeDescriptor describes a declared type sufficiently to drive encoding:
// its static Kind, its element type for sequences, and its key/value types
// for maps. Descriptors are built once per distinct type, cached for the
// codec's lifetime, and immutable after construction.
type TypeDescriptor struct {
	rt   reflect.Type
	elem *TypeDescriptor
	key  *TypeDescriptor
	kind Kind
}

// GoType returns the described Go type; nil for the unconstrained "any"
// descriptor.
func (d *TypeDescriptor) GoType() reflect.Type { return d.rt }

// Kind returns the static classification of the declared type.
func (d *TypeDescriptor) Kind() Kind { return d.kind }

// Elem returns the element descriptor of a sequence, or the value descriptor
// of a map.
func (d *TypeDescriptor) Elem() *TypeDescriptor { return d.elem }

// Key returns the key descriptor of a map.
func (d *TypeDescriptor) Key() *TypeDescriptor { return d.key }

// IsAny reports whether the descriptor places no static constraint on the
// value: classification falls through to the runtime type.
func (d *TypeDescriptor) IsAny() bool {
	return d.rt == nil || d.rt.Kind() == reflect.Interface
}

// Name returns the type name used in error reports.
func (d *TypeDescriptor) Name() string {
	if d.rt == nil {
		return "any"
	}
	return d.rt.String()
}

// typeCache builds and caches TypeDescriptors keyed by reflect.Type. Safe
// for concurrent use; the bean predicate is fixed at construction.
type typeCache struct {
	cache   sync.Map // reflect.Type -> *TypeDescriptor
	isBean  func(reflect.Type) bool
	anyDesc *TypeDescriptor
}

func newTypeCache(isBean func(reflect.Type) bool) *typeCache {
	c := &typeCache{isBean: isBean}
	c.anyDesc = &TypeDescriptor{kind: KindOther}
	return c
}

// descriptor returns the cached descriptor for rt, building it on first use.
// A nil rt yields the unconstrained any descriptor.
func (c *typeCache) descriptor(rt reflect.Type) *TypeDescriptor {
	if rt == nil || rt == anyType {
		return c.anyDesc
	}
	if cached, ok := c.cache.Load(rt); ok {
		return cached.(*TypeDescriptor)
	}
	d := c.describe(rt)
	// First store wins so concurrent builders converge on one descriptor.
	actual, _ := c.cache.LoadOrStore(rt, d)
	return actual.(*TypeDescriptor)
}

func (c *typeCache) describe(rt reflect.Type) *TypeDescriptor {
	d := &TypeDescriptor{rt: rt, kind: c.staticKind(rt)}
	switch d.kind {
	case KindMap:
		base := derefType(rt)
		d.key = c.descriptor(base.Key())
		d.elem = c.descriptor(base.Elem())
	case KindSequence:
		d.elem = c.descriptor(derefType(rt).Elem())
	}
	return d
}

// staticKind resolves the classification precedence for a declared type:
// primitives, then designated char/URI types, then beans, then streams, then
// containers, with a string-conversion fallback. Chan, func, and unsafe
// pointers have no wire representation.
func (c *typeCache) staticKind(rt reflect.Type) Kind {
	if rt == charType {
		return KindChar
	}
	if rt == uriStringType || rt == urlType || (rt.Kind() == reflect.Pointer && rt.Elem() == urlType) {
		return KindURI
	}

	base := derefType(rt)
	switch base.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if base == charType {
			return KindChar
		}
		return KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindUint
	case reflect.Float32, reflect.Float64:
		return KindFloat
	}

	if c.beanLike(rt) {
		return KindBean
	}
	if rt.Implements(readerType) || reflect.PointerTo(rt).Implements(readerType) {
		return KindStream
	}

	switch base.Kind() {
	case reflect.String:
		if base == uriStringType {
			return KindURI
		}
		return KindString
	case reflect.Map:
		return KindMap
	case reflect.Slice, reflect.Array:
		if base.Elem().Kind() == reflect.Uint8 {
			return KindBinary
		}
		return KindSequence
	case reflect.Interface:
		return KindOther // dynamic; refined from the runtime type per occurrence
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return KindInvalid
	default:
		return KindOther
	}
}

func (c *typeCache) beanLike(rt reflect.Type) bool {
	if rt.Implements(enumerableType) || reflect.PointerTo(rt).Implements(enumerableType) {
		return true
	}
	return c.isBean != nil && c.isBean(rt)
}

// derefType unwraps pointer types; the pointee decides classification.
func derefType(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}
