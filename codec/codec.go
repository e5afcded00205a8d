package codec

import (
	"io"
	"net/url"
	"reflect"

	"go.uber.org/zap"

	"github.com/wirebeam/graphcodec"
	"github.com/wirebeam/graphcodec/msgpack"
)

// DefaultMaxDepth bounds recursion for graphs whose depth is legitimate but
// unbounded in principle. Cycles never reach the limit; only genuinely deep
// trees do.
const DefaultMaxDepth = 256

// FailureHook receives non-fatal property read failures. The failing property
// is skipped and encoding continues; the hook decides whether anyone hears
// about it.
type FailureHook func(path []string, property string, err error)

// Codec encodes object graphs into binary form. A Codec is immutable after
// New and safe for concurrent use; all per-call state lives in a session.
type Codec struct {
	swaps       map[reflect.Type]SwapFunc
	enumerators map[reflect.Type]graphcodec.Enumerator
	types       *typeCache
	resolver    graphcodec.URIResolver
	keyCompare  func(a, b any) int
	onFailure   FailureHook
	maxDepth    int
	keepNulls   bool
}

// Option configures a Codec during New.
type Option func(*Codec)

// WithSwap registers a substitution for values of prototype's type. The swap
// runs at most once per descent; its result is encoded as-is.
func WithSwap(prototype any, fn SwapFunc) Option {
	return func(c *Codec) {
		c.swaps[reflect.TypeOf(prototype)] = fn
	}
}

// WithEnumerator registers a property enumerator for values of prototype's
// type, for types that cannot implement PropertyEnumerable themselves.
func WithEnumerator(prototype any, e graphcodec.Enumerator) Option {
	return func(c *Codec) {
		c.enumerators[reflect.TypeOf(prototype)] = e
	}
}

// WithURIResolver sets the resolver applied to URI values and URI-flagged
// properties before they are written.
func WithURIResolver(r graphcodec.URIResolver) Option {
	return func(c *Codec) {
		c.resolver = r
	}
}

// WithBaseURI resolves relative URI references against base, per RFC 3986.
func WithBaseURI(base *url.URL) Option {
	return func(c *Codec) {
		c.resolver = &baseResolver{base: base}
	}
}

// WithSortedMaps sorts map entries by key using the default comparator, so
// equal maps always produce identical bytes.
func WithSortedMaps() Option {
	return func(c *Codec) {
		c.keyCompare = DefaultKeyComparator
	}
}

// WithKeyComparator sorts map entries by key using cmp, which must return
// negative, zero, or positive in the manner of strings.Compare.
func WithKeyComparator(cmp func(a, b any) int) Option {
	return func(c *Codec) {
		c.keyCompare = cmp
	}
}

// WithKeepNulls keeps nil-valued bean properties in the output instead of
// omitting them. Cycle-severed properties are kept as nulls too.
func WithKeepNulls(keep bool) Option {
	return func(c *Codec) {
		c.keepNulls = keep
	}
}

// WithMaxDepth overrides the recursion depth limit.
func WithMaxDepth(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithFailureHook replaces the default property-failure handler, which logs
// a warning through the package logger.
func WithFailureHook(h FailureHook) Option {
	return func(c *Codec) {
		c.onFailure = h
	}
}

// New builds a Codec from the given options.
func New(opts ...Option) *Codec {
	c := &Codec{
		swaps:       make(map[reflect.Type]SwapFunc),
		enumerators: make(map[reflect.Type]graphcodec.Enumerator),
		maxDepth:    DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.onFailure == nil {
		c.onFailure = logFailure
	}
	c.types = newTypeCache(func(rt reflect.Type) bool {
		if _, ok := c.enumerators[rt]; ok {
			return true
		}
		if rt.Kind() == reflect.Pointer {
			_, ok := c.enumerators[rt.Elem()]
			return ok
		}
		return false
	})
	return c
}

// Encode walks value and writes its binary form to out. Returns the number
// of bytes written. On a fatal error the stream is abandoned mid-value; the
// byte count still reports what reached out.
func (c *Codec) Encode(out io.Writer, value any) (int64, error) {
	return c.EncodeTyped(out, value, nil)
}

// EncodeTyped encodes value under an explicit declared type. A nil declared
// type, or an interface type, leaves classification to each value's runtime
// type.
func (c *Codec) EncodeTyped(out io.Writer, value any, declared reflect.Type) (int64, error) {
	w := msgpack.NewWriter(out)
	s := &session{
		codec: c,
		w:     w,
		guard: recursionGuard{limit: c.maxDepth},
	}
	if err := s.encode(reflect.ValueOf(value), c.types.descriptor(declared), ""); err != nil {
		return w.Written(), err
	}
	if err := w.Flush(); err != nil {
		return w.Written(), err
	}
	Logger().Debug("encode complete",
		zap.Int64("bytes", w.Written()),
		zap.Int("max_depth", s.deepest))
	return w.Written(), nil
}

func (c *Codec) resolveURI(ref string) (string, error) {
	if c.resolver == nil {
		return ref, nil
	}
	return c.resolver.Resolve(ref)
}

func logFailure(path []string, property string, err error) {
	Logger().Warn("property read failed",
		zap.Strings("path", path),
		zap.String("property", property),
		zap.Error(err))
}

// baseResolver resolves references against a fixed base URL.
type baseResolver struct {
	base *url.URL
}

func (r *baseResolver) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return r.base.ResolveReference(u).String(), nil
}
