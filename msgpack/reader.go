package msgpack

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/wirebeam/graphcodec/errors"
)

// NodeType identifies the wire construct a Node was decoded from.
type NodeType uint8

const (
	NilNode NodeType = iota
	BoolNode
	IntNode
	UintNode
	FloatNode
	StringNode
	BinaryNode
	ArrayNode
	MapNode
)

func (t NodeType) String() string {
	switch t {
	case NilNode:
		return "nil"
	case BoolNode:
		return "bool"
	case IntNode:
		return "int"
	case UintNode:
		return "uint"
	case FloatNode:
		return "float"
	case StringNode:
		return "string"
	case BinaryNode:
		return "binary"
	case ArrayNode:
		return "array"
	case MapNode:
		return "map"
	default:
		return "invalid"
	}
}

// Node is one decoded value. Container nodes keep their children in wire
// order, so the tree is also a faithful record of the encoder's ordering.
type Node struct {
	Bin     []byte
	Str     string
	Items   []*Node
	Entries []MapEntry
	Int     int64
	Uint    uint64
	Float   float64
	Bool    bool
	Type    NodeType
}

// MapEntry is one key-value pair of a map node, in wire position.
type MapEntry struct {
	Key   *Node
	Value *Node
}

// Interface converts the node to a plain Go value: nil, bool, int64, uint64,
// float64, string, []byte, []any, or map[any]any. Map order is lost; use the
// Node tree when order matters.
func (n *Node) Interface() any {
	switch n.Type {
	case NilNode:
		return nil
	case BoolNode:
		return n.Bool
	case IntNode:
		return n.Int
	case UintNode:
		return n.Uint
	case FloatNode:
		return n.Float
	case StringNode:
		return n.Str
	case BinaryNode:
		return n.Bin
	case ArrayNode:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Interface()
		}
		return out
	case MapNode:
		out := make(map[any]any, len(n.Entries))
		for _, e := range n.Entries {
			out[e.Key.Interface()] = e.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// Summary returns a short one-line description for display.
func (n *Node) Summary() string {
	switch n.Type {
	case NilNode:
		return "null"
	case BoolNode:
		return fmt.Sprintf("%v", n.Bool)
	case IntNode:
		return fmt.Sprintf("%d", n.Int)
	case UintNode:
		return fmt.Sprintf("%d", n.Uint)
	case FloatNode:
		return fmt.Sprintf("%g", n.Float)
	case StringNode:
		return fmt.Sprintf("%q", n.Str)
	case BinaryNode:
		return fmt.Sprintf("%d bytes", len(n.Bin))
	case ArrayNode:
		return fmt.Sprintf("array(%d)", len(n.Items))
	case MapNode:
		return fmt.Sprintf("map(%d)", len(n.Entries))
	default:
		return "?"
	}
}

// Reader decodes MessagePack values from a byte stream. It walks containers
// strictly by their header counts: a map of count n consumes exactly n
// key-value pairs, no more.
type Reader struct {
	b *bufio.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{b: bufio.NewReader(r)}
}

// ReadValue decodes the next value from the stream.
func (r *Reader) ReadValue() (*Node, error) {
	tag, err := r.b.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindTransport, err, "read tag")
	}

	switch {
	case tag <= 0x7f: // positive fixint
		return &Node{Type: IntNode, Int: int64(tag)}, nil
	case tag >= 0xe0: // negative fixint
		return &Node{Type: IntNode, Int: int64(int8(tag))}, nil
	case tag&0xe0 == fixstrTag:
		return r.readString(int(tag & 0x1f))
	case tag&0xf0 == fixmapTag:
		return r.readMap(int(tag & 0x0f))
	case tag&0xf0 == fixarrayTag:
		return r.readArray(int(tag & 0x0f))
	}

	switch tag {
	case tagNil:
		return &Node{Type: NilNode}, nil
	case tagFalse:
		return &Node{Type: BoolNode, Bool: false}, nil
	case tagTrue:
		return &Node{Type: BoolNode, Bool: true}, nil

	case tagUint8, tagUint16, tagUint32, tagUint64:
		v, err := r.readUintPayload(tag)
		if err != nil {
			return nil, err
		}
		// Values that fit a signed 64-bit integer normalize to IntNode so
		// that encode(int) / decode compare equal regardless of which
		// family the writer picked.
		if v <= math.MaxInt64 {
			return &Node{Type: IntNode, Int: int64(v)}, nil
		}
		return &Node{Type: UintNode, Uint: v}, nil

	case tagInt8:
		p, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return &Node{Type: IntNode, Int: int64(int8(p[0]))}, nil
	case tagInt16:
		p, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return &Node{Type: IntNode, Int: int64(int16(binary.BigEndian.Uint16(p)))}, nil
	case tagInt32:
		p, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return &Node{Type: IntNode, Int: int64(int32(binary.BigEndian.Uint32(p)))}, nil
	case tagInt64:
		p, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return &Node{Type: IntNode, Int: int64(binary.BigEndian.Uint64(p))}, nil

	case tagFloat32:
		p, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return &Node{Type: FloatNode, Float: float64(math.Float32frombits(binary.BigEndian.Uint32(p)))}, nil
	case tagFloat64:
		p, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return &Node{Type: FloatNode, Float: math.Float64frombits(binary.BigEndian.Uint64(p))}, nil

	case tagStr8:
		n, err := r.readLen(1)
		if err != nil {
			return nil, err
		}
		return r.readString(n)
	case tagStr16:
		n, err := r.readLen(2)
		if err != nil {
			return nil, err
		}
		return r.readString(n)
	case tagStr32:
		n, err := r.readLen(4)
		if err != nil {
			return nil, err
		}
		return r.readString(n)

	case tagBin8:
		n, err := r.readLen(1)
		if err != nil {
			return nil, err
		}
		return r.readBinary(n)
	case tagBin16:
		n, err := r.readLen(2)
		if err != nil {
			return nil, err
		}
		return r.readBinary(n)
	case tagBin32:
		n, err := r.readLen(4)
		if err != nil {
			return nil, err
		}
		return r.readBinary(n)

	case tagArray16:
		n, err := r.readLen(2)
		if err != nil {
			return nil, err
		}
		return r.readArray(n)
	case tagArray32:
		n, err := r.readLen(4)
		if err != nil {
			return nil, err
		}
		return r.readArray(n)

	case tagMap16:
		n, err := r.readLen(2)
		if err != nil {
			return nil, err
		}
		return r.readMap(n)
	case tagMap32:
		n, err := r.readLen(4)
		if err != nil {
			return nil, err
		}
		return r.readMap(n)
	}

	// Extension family: the writer never emits it.
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Detail("tag 0x%02x", tag).
		Build()
}

// takeChunk bounds how much take allocates ahead of the bytes actually
// arriving, so a lying length header on truncated input fails on the first
// missing chunk instead of reserving the full claimed size.
const takeChunk = 1 << 20

func (r *Reader) take(n int) ([]byte, error) {
	if n <= takeChunk {
		p := make([]byte, n)
		m, err := io.ReadFull(r.b, p)
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return nil, errors.Truncated(nil, n, m)
			}
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindTransport, err, "read payload")
		}
		return p, nil
	}

	p := make([]byte, 0, takeChunk)
	for len(p) < n {
		step := n - len(p)
		if step > takeChunk {
			step = takeChunk
		}
		start := len(p)
		p = append(p, make([]byte, step)...)
		m, err := io.ReadFull(r.b, p[start:])
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return nil, errors.Truncated(nil, n, start+m)
			}
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindTransport, err, "read payload")
		}
	}
	return p, nil
}

func (r *Reader) readLen(width int) (int, error) {
	p, err := r.take(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int(p[0]), nil
	case 2:
		return int(binary.BigEndian.Uint16(p)), nil
	default:
		v := binary.BigEndian.Uint32(p)
		if uint64(v) > uint64(math.MaxInt32) {
			return 0, errors.Overflow(errors.PhaseDecode, nil, v, "length")
		}
		return int(v), nil
	}
}

func (r *Reader) readString(n int) (*Node, error) {
	p, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return &Node{Type: StringNode, Str: string(p)}, nil
}

func (r *Reader) readBinary(n int) (*Node, error) {
	p, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return &Node{Type: BinaryNode, Bin: p}, nil
}

func (r *Reader) readArray(n int) (*Node, error) {
	items := make([]*Node, 0, capHint(n))
	for i := 0; i < n; i++ {
		item, err := r.ReadValue()
		if err != nil {
			// EOF inside a counted container is truncation, not a clean end.
			if err == io.EOF {
				return nil, errors.Truncated(nil, n, i)
			}
			return nil, err
		}
		items = append(items, item)
	}
	return &Node{Type: ArrayNode, Items: items}, nil
}

func (r *Reader) readMap(n int) (*Node, error) {
	entries := make([]MapEntry, 0, capHint(n))
	for i := 0; i < n; i++ {
		key, err := r.ReadValue()
		if err != nil {
			if err == io.EOF {
				return nil, errors.Truncated(nil, n, i)
			}
			return nil, err
		}
		val, err := r.ReadValue()
		if err != nil {
			if err == io.EOF {
				return nil, errors.Truncated(nil, n, i)
			}
			return nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
	}
	return &Node{Type: MapNode, Entries: entries}, nil
}

// capHint limits how many container slots are reserved before any child is
// actually decoded; the slice grows normally past that.
func capHint(n int) int {
	const max = 4096
	if n > max {
		return max
	}
	return n
}

func (r *Reader) readUintPayload(tag byte) (uint64, error) {
	switch tag {
	case tagUint8:
		p, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return uint64(p[0]), nil
	case tagUint16:
		p, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint16(p)), nil
	case tagUint32:
		p, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint32(p)), nil
	default:
		p, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(p), nil
	}
}
