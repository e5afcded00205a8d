// Package codec implements the object-graph walk that drives graphcodec's
// binary output.
//
// A Codec is configured once (swaps, bean enumerators, map ordering, depth
// limit) and is then immutable and safe to share. Every Encode call runs a
// private session over the value graph:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ value ─ guard ─ swap ─ classify ─ dispatch ─▶ msgpack.Writer │
//	│            ▲                         │                       │
//	│            └──────── recurse ────────┘                       │
//	└──────────────────────────────────────────────────────────────┘
//
// Classification resolves a value's semantic Kind from its declared and
// runtime type. The recursion guard holds one entry per in-progress descent;
// a value whose identity is already on the guard encodes as null instead of
// recursing. Registered swaps substitute an encodable surrogate for a type,
// at most once per descent. Container contents are snapshotted and counted
// before their header is written, so every header's count is exact.
//
// # Key Types
//
//	Codec           - Configured, reusable, concurrency-safe entry point
//	Kind            - Semantic classification driving the encode dispatch
//	TypeDescriptor  - Cached description of a declared type
//	SwapFunc        - One-hop type substitution
package codec
