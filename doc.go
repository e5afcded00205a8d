// Package graphcodec provides a self-describing binary codec for arbitrary
// Go value graphs.
//
// Given any in-memory value (primitives, registered "beans", maps, slices,
// arrays, byte blobs, or streams) the codec classifies the value's semantic
// shape, detects reference cycles along the descent path, optionally swaps
// unencodable types for encodable surrogates, and emits a compact MessagePack
// encoding in which every container header carries an exact element count.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	graphcodec/          Root package with the Property and enumeration interfaces
//	├── codec/           Classification, swap registry, recursion guard,
//	│                    collection ordering, and the encode session
//	├── msgpack/         Byte-exact MessagePack writer and matching reader
//	├── errors/          Structured error types for debugging
//	└── cmd/inspect/     CLI and interactive TUI for examining encoded streams
//
// # Quick Start
//
// Encode a value to any io.Writer:
//
//	c := codec.New()
//	n, err := c.Encode(&buf, map[string]any{"a": 1, "b": "foo"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(n) // bytes written
//
// Structured values participate by implementing PropertyEnumerable, or by
// registering an enumerator for their type:
//
//	type user struct {
//	    Name string
//	    Age  int
//	}
//
//	c := codec.New(codec.WithEnumerator(user{}, func(v any) []graphcodec.Property {
//	    u := v.(user)
//	    return []graphcodec.Property{
//	        {Name: "name", Value: u.Name},
//	        {Name: "age", Value: u.Age},
//	    }
//	}))
//
// # Cycle Safety
//
// A value that references an ancestor of the current descent encodes as null
// instead of recursing; encoding always terminates. Acyclic but pathologically
// deep structures are cut off by a configurable depth limit, which is a fatal
// error rather than a silent null.
//
// # Thread Safety
//
// A configured Codec is immutable and safe for concurrent Encode calls. Each
// call builds its own session; a session is bound to one goroutine and walks
// one graph.
package graphcodec
