package codec

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// mapEntry is one snapshotted key-value pair. The snapshot list is owned
// exclusively by the map-encode routine for the duration of that call and
// returned to the pool afterwards.
type mapEntry struct {
	key reflect.Value
	val reflect.Value
}

const (
	// Pool limits to prevent memory bloat
	poolMaxEntries  = 1024
	poolInitEntries = 16
)

var entryPool = sync.Pool{
	New: func() any {
		buf := make([]mapEntry, 0, poolInitEntries)
		return &buf
	},
}

func getEntryBuf() *[]mapEntry {
	return entryPool.Get().(*[]mapEntry)
}

func putEntryBuf(buf *[]mapEntry) {
	if buf == nil || cap(*buf) > poolMaxEntries {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	entryPool.Put(buf)
}

// snapshotMap copies a map's entries into an owned slice before any byte of
// the map is written: the entry count must be final before the header goes
// out, and the source container must not be iterated while application code
// could mutate it mid-walk. With a comparator configured, entries are sorted
// by key; otherwise Go's map iteration order is preserved as encountered.
func snapshotMap(mv reflect.Value, cmp func(a, b any) int) *[]mapEntry {
	buf := getEntryBuf()
	entries := *buf
	it := mv.MapRange()
	for it.Next() {
		entries = append(entries, mapEntry{key: it.Key(), val: it.Value()})
	}
	if cmp != nil {
		sort.SliceStable(entries, func(i, j int) bool {
			return cmp(keyValue(entries[i].key), keyValue(entries[j].key)) < 0
		})
	}
	*buf = entries
	return buf
}

// keyValue unwraps interface-typed keys so comparators see concrete values.
func keyValue(kv reflect.Value) any {
	if kv.Kind() == reflect.Interface && !kv.IsNil() {
		kv = kv.Elem()
	}
	if !kv.IsValid() {
		return nil
	}
	return kv.Interface()
}

// snapshotSequence materializes a slice or array into an ordered element
// snapshot under the same discipline as snapshotMap.
func snapshotSequence(sv reflect.Value) []reflect.Value {
	n := sv.Len()
	out := make([]reflect.Value, n)
	for i := 0; i < n; i++ {
		out[i] = sv.Index(i)
	}
	return out
}

// DefaultKeyComparator orders map keys for deterministic output: nils first,
// then bools, integers, floats, strings, and everything else by its printed
// form. Mixed-kind maps get a stable, if arbitrary, total order.
func DefaultKeyComparator(a, b any) int {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case rankBool:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case rankInt:
		return compareInt(toInt64(a), toInt64(b))
	case rankUint:
		au, bu := toUint64(a), toUint64(b)
		switch {
		case au == bu:
			return 0
		case au < bu:
			return -1
		default:
			return 1
		}
	case rankFloat:
		af, bf := toFloat64(a), toFloat64(b)
		switch {
		case af == bf:
			return 0
		case af < bf:
			return -1
		default:
			return 1
		}
	case rankString:
		as, bs := toString(a), toString(b)
		switch {
		case as == bs:
			return 0
		case as < bs:
			return -1
		default:
			return 1
		}
	default:
		as, bs := fmt.Sprint(a), fmt.Sprint(b)
		switch {
		case as == bs:
			return 0
		case as < bs:
			return -1
		default:
			return 1
		}
	}
}

const (
	rankNil = iota
	rankBool
	rankInt
	rankUint
	rankFloat
	rankString
	rankOther
)

func keyRank(v any) int {
	if v == nil {
		return rankNil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool:
		return rankBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rankInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rankUint
	case reflect.Float32, reflect.Float64:
		return rankFloat
	case reflect.String:
		return rankString
	default:
		return rankOther
	}
}

func compareInt(a, b int64) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}

func toInt64(v any) int64     { return reflect.ValueOf(v).Int() }
func toUint64(v any) uint64   { return reflect.ValueOf(v).Uint() }
func toFloat64(v any) float64 { return reflect.ValueOf(v).Float() }
func toString(v any) string   { return reflect.ValueOf(v).String() }
