package codec

import (
	"reflect"

	"github.com/wirebeam/graphcodec/errors"
)

// SwapFunc substitutes an encodable surrogate for a value whose type cannot
// be encoded directly. The returned type may be nil (or the unconstrained
// any type), in which case it is re-derived from the surrogate's runtime
// type. A swap is a single hop: the surrogate re-enters classification but
// is never offered to the swap registry again within the same descent, so
// substitution loops are impossible by construction.
type SwapFunc func(value any) (swapped any, typ reflect.Type, err error)

// applySwap resolves and runs the swap registered for the value's runtime
// type, if any. Returns the (possibly substituted) value and its effective
// descriptor.
func (s *session) applySwap(cv reflect.Value, td *TypeDescriptor) (reflect.Value, *TypeDescriptor, error) {
	if len(s.codec.swaps) == 0 || !cv.IsValid() {
		return cv, td, nil
	}
	fn, target, ok := s.lookupSwap(cv)
	if !ok {
		return cv, td, nil
	}

	swapped, typ, err := fn(target.Interface())
	if err != nil {
		return cv, td, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(s.guard.path()...).
			GoType(target.Type().String()).
			Cause(err).
			Detail("swap failed").
			Build()
	}
	nv := reflect.ValueOf(swapped)
	if typ == nil || typ == anyType {
		if !nv.IsValid() {
			return nv, s.codec.types.anyDesc, nil
		}
		typ = nv.Type()
	}
	return nv, s.codec.types.descriptor(typ), nil
}

// lookupSwap finds the swap for cv's type, chasing pointers so a swap
// registered on T also catches *T values. Returns the value at the level the
// registration matched.
func (s *session) lookupSwap(cv reflect.Value) (SwapFunc, reflect.Value, bool) {
	if fn, ok := s.codec.swaps[cv.Type()]; ok {
		return fn, cv, true
	}
	for cv.Kind() == reflect.Pointer && !cv.IsNil() {
		cv = cv.Elem()
		if fn, ok := s.codec.swaps[cv.Type()]; ok {
			return fn, cv, true
		}
	}
	return nil, cv, false
}
