// Package msgpack implements the wire layer of graphcodec: a byte-exact
// MessagePack writer and a matching reader.
//
// The writer exposes primitive append operations only (nil, bool, integer,
// float, string, binary, and container headers) and owns the output
// buffering. Container headers carry exact element counts; the caller must
// follow a header of count n with exactly n child values. The writer does
// not patch headers retroactively, so counts must be final before the first
// child is written.
//
// # Format selection
//
//	Value            Encoding
//	──────────────────────────────────────────────
//	nil              nil (0xc0)
//	bool             false/true (0xc2/0xc3)
//	int, uint        smallest-fitting fixint/int/uint family
//	float32          float 32 (0xca)
//	float64          float 64 (0xcb)
//	string           fixstr/str 8/str 16/str 32 + UTF-8 bytes
//	[]byte           bin 8/bin 16/bin 32 + raw bytes
//	map              fixmap/map 16/map 32 + n key-value pairs
//	array            fixarray/array 16/array 32 + n elements
//
// Integers always use the shortest representation that fits, so encoding is
// deterministic: the same value yields the same bytes on every call.
//
// The reader walks strictly by the counts in container headers and
// materializes a Node tree preserving wire order, which is what the
// inspector tooling and the codec round-trip tests consume.
package msgpack
