package msgpack

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"
	"reflect"
	"testing"

	gcerrors "github.com/wirebeam/graphcodec/errors"
)

func decodeOne(t *testing.T, raw []byte) *Node {
	t.Helper()
	n, err := NewReader(bytes.NewReader(raw)).ReadValue()
	if err != nil {
		t.Fatalf("decode % x: %v", raw, err)
	}
	return n
}

func TestReadValue_Scalars(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want any
	}{
		{"nil", []byte{0xc0}, nil},
		{"true", []byte{0xc3}, true},
		{"false", []byte{0xc2}, false},
		{"fixint", []byte{0x07}, int64(7)},
		{"neg fixint", []byte{0xff}, int64(-1)},
		{"uint8 normalizes to int", []byte{0xcc, 0xff}, int64(255)},
		{"uint64 small normalizes to int", []byte{0xcf, 0, 0, 0, 0, 0, 0, 0, 1}, int64(1)},
		{"uint64 big stays uint", []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, uint64(math.MaxUint64)},
		{"int16", []byte{0xd1, 0x80, 0x00}, int64(-32768)},
		{"float64", []byte{0xcb, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0}, 1.5},
		{"float32 widens", []byte{0xca, 0x3f, 0xc0, 0, 0}, 1.5},
		{"fixstr", []byte{0xa3, 'f', 'o', 'o'}, "foo"},
		{"bin", []byte{0xc4, 0x02, 0x01, 0x02}, []byte{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeOne(t, tt.raw).Interface()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReadValue_Containers(t *testing.T) {
	raw := encodeOne(t, func(w *Writer) error {
		if err := w.WriteArrayHeader(3); err != nil {
			return err
		}
		if err := w.WriteInt(1); err != nil {
			return err
		}
		if err := w.WriteNil(); err != nil {
			return err
		}
		if err := w.WriteMapHeader(1); err != nil {
			return err
		}
		if err := w.WriteString("k"); err != nil {
			return err
		}
		return w.WriteString("v")
	})

	n := decodeOne(t, raw)
	if n.Type != ArrayNode || len(n.Items) != 3 {
		t.Fatalf("unexpected node: %s", n.Summary())
	}
	if n.Items[1].Type != NilNode {
		t.Errorf("expected nil at index 1, got %s", n.Items[1].Summary())
	}
	inner := n.Items[2]
	if inner.Type != MapNode || len(inner.Entries) != 1 {
		t.Fatalf("unexpected inner node: %s", inner.Summary())
	}
	if inner.Entries[0].Key.Str != "k" || inner.Entries[0].Value.Str != "v" {
		t.Errorf("unexpected entry: %v", inner.Entries[0])
	}
}

// A header of count n must consume exactly n children: the reader stops at
// the container's logical end and leaves trailing bytes untouched.
func TestCountExactness(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteArrayHeader(2); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteInt(1); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteInt(2); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteInt(3); err != nil { // trailing value, not part of the array
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	n, err := r.ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Items) != 2 {
		t.Fatalf("array consumed %d items, want 2", len(n.Items))
	}
	trailing, err := r.ReadValue()
	if err != nil {
		t.Fatalf("trailing value not readable: %v", err)
	}
	if trailing.Int != 3 {
		t.Errorf("trailing = %d, want 3", trailing.Int)
	}
	if _, err := r.ReadValue(); err != io.EOF {
		t.Errorf("expected EOF after trailing value, got %v", err)
	}
}

func TestTruncatedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"cut payload", []byte{0xcd, 0x01}},
		{"cut string", []byte{0xa5, 'a', 'b'}},
		{"cut container", []byte{0x92, 0x01}},
		// headers claiming near-maximum sizes on a near-empty stream must
		// fail without reserving the claimed space first
		{"lying str32 length", []byte{0xdb, 0x7f, 0xff, 0xff, 0xff, 'x'}},
		{"lying bin32 length", []byte{0xc6, 0x7f, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.raw)).ReadValue()
			var ce *gcerrors.Error
			if !stderrors.As(err, &ce) || ce.Kind != gcerrors.KindTruncated {
				t.Errorf("expected truncated error, got %v", err)
			}
		})
	}
}

func TestUnsupportedTag(t *testing.T) {
	// fixext 1, which the writer never emits
	_, err := NewReader(bytes.NewReader([]byte{0xd4, 0x00, 0x00})).ReadValue()
	var ce *gcerrors.Error
	if !stderrors.As(err, &ce) || ce.Kind != gcerrors.KindUnsupported {
		t.Errorf("expected unsupported error, got %v", err)
	}
}

func TestRoundTripDeterminism(t *testing.T) {
	write := func() []byte {
		return encodeOne(t, func(w *Writer) error {
			if err := w.WriteMapHeader(2); err != nil {
				return err
			}
			if err := w.WriteString("xs"); err != nil {
				return err
			}
			if err := w.WriteArrayHeader(2); err != nil {
				return err
			}
			if err := w.WriteFloat64(-0.5); err != nil {
				return err
			}
			if err := w.WriteInt(42); err != nil {
				return err
			}
			if err := w.WriteString("flag"); err != nil {
				return err
			}
			return w.WriteBool(true)
		})
	}
	a, b := write(), write()
	if !bytes.Equal(a, b) {
		t.Error("repeated encodes differ")
	}

	got := decodeOne(t, a).Interface()
	want := map[any]any{
		"xs":   []any{-0.5, int64(42)},
		"flag": true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip: got %#v, want %#v", got, want)
	}
}
