package codec

import (
	"encoding"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strconv"

	"github.com/wirebeam/graphcodec"
	"github.com/wirebeam/graphcodec/errors"
	"github.com/wirebeam/graphcodec/msgpack"
)

var byteType = reflect.TypeOf(byte(0))

// session is the per-call walk state: the output writer, the recursion
// guard, and bookkeeping. Sessions are single-use and never shared; the
// owning Codec stays untouched.
type session struct {
	codec   *Codec
	w       *msgpack.Writer
	guard   recursionGuard
	deepest int
}

// encode writes one value, recursing into containers. attr is the attribute
// or index that led here, used for cycle paths in error reports. td is the
// declared type at this position; an unconstrained descriptor defers to the
// runtime type.
//
// The order of operations is load-bearing: nil short-circuits before the
// guard, identity is taken from the reference (not the pointee), the guard
// runs before the swap so surrogates cannot mask a cycle on the original,
// and the swap runs before classification so surrogates are classified on
// their own terms.
func (s *session) encode(rv reflect.Value, td *TypeDescriptor, attr string) error {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if isNilValue(rv) {
		return s.w.WriteNil()
	}

	cycle, err := s.guard.enter(attr, identityOf(rv))
	if err != nil {
		return err
	}
	if cycle {
		// Severed edge: a null in place, no frame pushed, walk continues.
		return s.w.WriteNil()
	}
	defer s.guard.exit()
	if d := s.guard.depth(); d > s.deepest {
		s.deepest = d
	}

	cv, td, err := s.applySwap(rv, td)
	if err != nil {
		return err
	}
	// src keeps the reference level: pointer-receiver methods stay reachable
	// even after cv is dereferenced for classification.
	src := cv
	for cv.Kind() == reflect.Interface || cv.Kind() == reflect.Pointer {
		if isNilValue(cv) {
			return s.w.WriteNil()
		}
		cv = cv.Elem()
	}
	if isNilValue(cv) {
		return s.w.WriteNil()
	}

	kind, td := s.codec.types.classify(cv, td)
	switch kind {
	case KindNil:
		return s.w.WriteNil()
	case KindBool:
		return s.w.WriteBool(cv.Bool())
	case KindInt:
		return s.w.WriteInt(cv.Int())
	case KindUint:
		return s.w.WriteUint(cv.Uint())
	case KindFloat:
		if cv.Kind() == reflect.Float32 {
			return s.w.WriteFloat32(float32(cv.Float()))
		}
		return s.w.WriteFloat64(cv.Float())
	case KindChar:
		return s.w.WriteString(string(rune(cv.Int())))
	case KindString:
		return s.w.WriteString(cv.String())
	case KindURI:
		return s.encodeURI(cv)
	case KindBinary:
		return s.w.WriteBinary(bytesOf(cv))
	case KindMap:
		return s.encodeMap(cv, td)
	case KindSequence:
		return s.encodeSequence(cv, td)
	case KindBean:
		return s.encodeBean(src)
	case KindStream:
		return s.encodeStream(src, cv)
	case KindOther:
		return s.encodeFallback(cv)
	default:
		return errors.Unsupported(errors.PhaseEncode, s.guard.path(), cv.Type().String())
	}
}

// encodeBean writes an enumerated-property value as a map. The survivor set
// is fixed before the header: failed reads are reported through the failure
// hook and skipped, and with null omission on, nil-valued and cycle-bound
// properties are dropped up front so the count matches the entries that
// actually follow.
func (s *session) encodeBean(rv reflect.Value) error {
	enum, ok := s.codec.enumeratorFor(rv)
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(s.guard.path()...).
			GoType(rv.Type().String()).
			Detail("no property enumerator").
			Build()
	}
	props := enum(rv.Interface())

	survivors := make([]graphcodec.Property, 0, len(props))
	for _, p := range props {
		if p.Err != nil {
			s.codec.onFailure(s.guard.path(), p.Name,
				errors.PropertyRead(s.guard.path(p.Name), p.Name, p.Err))
			continue
		}
		if !s.codec.keepNulls {
			pv := reflect.ValueOf(p.Value)
			if isNilValue(pv) || s.guard.wouldCycle(identityOf(pv)) {
				continue
			}
		}
		survivors = append(survivors, p)
	}

	if err := s.w.WriteMapHeader(len(survivors)); err != nil {
		return err
	}
	for _, p := range survivors {
		if err := s.w.WriteString(p.Name); err != nil {
			return err
		}
		if p.URI {
			if err := s.encodeURIProperty(p); err != nil {
				return err
			}
			continue
		}
		if err := s.encode(reflect.ValueOf(p.Value), s.codec.types.descriptor(p.Type), p.Name); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap snapshots, optionally sorts, and writes a map. When the declared
// key type is known, interface-typed keys are converted to it so the wire
// form reflects the declaration rather than each key's runtime type.
func (s *session) encodeMap(cv reflect.Value, td *TypeDescriptor) error {
	buf := snapshotMap(cv, s.codec.keyCompare)
	defer putEntryBuf(buf)
	entries := *buf

	keyDesc, elemDesc := td.key, td.elem
	if keyDesc == nil {
		keyDesc = s.codec.types.anyDesc
	}
	if elemDesc == nil {
		elemDesc = s.codec.types.anyDesc
	}

	if err := s.w.WriteMapHeader(len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		k := e.key
		kd := keyDesc
		if !kd.IsAny() {
			if k.Kind() == reflect.Interface && !k.IsNil() {
				k = k.Elem()
			}
			if k.IsValid() && k.Type() != kd.rt {
				switch {
				case keyConvertible(k.Type(), kd.rt):
					k = k.Convert(kd.rt)
				case kd.rt.Kind() == reflect.String:
					// Go's int-to-string conversion yields a rune string;
					// declared string keys want the printed form instead.
					k = reflect.ValueOf(fmt.Sprint(k.Interface())).Convert(kd.rt)
				default:
					kd = s.codec.types.anyDesc
				}
			}
		}
		if err := s.encode(k, kd, ""); err != nil {
			return err
		}
		if err := s.encode(e.val, elemDesc, fmt.Sprint(keyValue(e.key))); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) encodeSequence(cv reflect.Value, td *TypeDescriptor) error {
	elems := snapshotSequence(cv)
	elemDesc := td.elem
	if elemDesc == nil {
		elemDesc = s.codec.types.anyDesc
	}
	if err := s.w.WriteArrayHeader(len(elems)); err != nil {
		return err
	}
	for i, ev := range elems {
		if err := s.encode(ev, elemDesc, "["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	return nil
}

// encodeStream pipes a reader's bytes straight into the output, unframed.
// The reader is consumed; encoding the same graph twice will not reproduce
// stream content.
func (s *session) encodeStream(rv, cv reflect.Value) error {
	var r io.Reader
	if v, ok := rv.Interface().(io.Reader); ok {
		r = v
	} else if cv.CanAddr() {
		if v, ok := cv.Addr().Interface().(io.Reader); ok {
			r = v
		}
	}
	if r == nil {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(s.guard.path()...).
			GoType(rv.Type().String()).
			Detail("stream value is not addressable as io.Reader").
			Build()
	}
	_, err := s.w.Pipe(r)
	return err
}

func (s *session) encodeURI(cv reflect.Value) error {
	var ref string
	switch {
	case cv.Type() == urlType:
		u := cv.Interface().(url.URL)
		ref = u.String()
	case cv.Kind() == reflect.String:
		ref = cv.String()
	default:
		ref = fmt.Sprint(cv.Interface())
	}
	resolved, err := s.codec.resolveURI(ref)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(s.guard.path()...).
			Value(ref).
			Cause(err).
			Detail("uri resolution failed").
			Build()
	}
	return s.w.WriteString(resolved)
}

// encodeURIProperty resolves a URI-flagged property value and writes it as a
// string. The flag overrides classification; the value just has to stringify.
func (s *session) encodeURIProperty(p graphcodec.Property) error {
	var ref string
	switch v := p.Value.(type) {
	case string:
		ref = v
	case graphcodec.URI:
		ref = string(v)
	case *url.URL:
		ref = v.String()
	case url.URL:
		ref = v.String()
	case fmt.Stringer:
		ref = v.String()
	default:
		ref = fmt.Sprint(v)
	}
	resolved, err := s.codec.resolveURI(ref)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(s.guard.path(p.Name)...).
			Value(ref).
			Cause(err).
			Detail("uri resolution failed").
			Build()
	}
	return s.w.WriteString(resolved)
}

// encodeFallback renders an unclassified value through its own string
// conversion: Stringer, then TextMarshaler, then the fmt default.
func (s *session) encodeFallback(cv reflect.Value) error {
	if !cv.CanInterface() {
		return errors.Unsupported(errors.PhaseEncode, s.guard.path(), cv.Type().String())
	}
	switch v := cv.Interface().(type) {
	case fmt.Stringer:
		return s.w.WriteString(v.String())
	case encoding.TextMarshaler:
		b, err := v.MarshalText()
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(s.guard.path()...).
				GoType(cv.Type().String()).
				Cause(err).
				Detail("text marshal failed").
				Build()
		}
		return s.w.WriteString(string(b))
	default:
		return s.w.WriteString(fmt.Sprint(v))
	}
}

// keyConvertible reports whether converting a map key from one type to the
// other preserves its value. Conversions across kind classes are excluded:
// they are legal Go conversions but change the key (int-to-string produces a
// rune string, float-to-int truncates).
func keyConvertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	c := convClass(from.Kind())
	return c != convOther && c == convClass(to.Kind())
}

const (
	convOther = iota
	convSigned
	convUnsigned
	convFloat
	convString
	convBool
)

func convClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return convSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return convUnsigned
	case reflect.Float32, reflect.Float64:
		return convFloat
	case reflect.String:
		return convString
	case reflect.Bool:
		return convBool
	default:
		return convOther
	}
}

// bytesOf extracts raw bytes from a byte slice or byte array, copying only
// when reflect cannot hand out the backing store directly.
func bytesOf(cv reflect.Value) []byte {
	if cv.Kind() == reflect.Slice && cv.Type().Elem() == byteType {
		return cv.Bytes()
	}
	n := cv.Len()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(cv.Index(i).Uint())
	}
	return out
}
