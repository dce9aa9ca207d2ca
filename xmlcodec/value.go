package xmlcodec

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindScalar is a leaf value rendered as element text.
	KindScalar Kind = iota
	// KindMap is an ordered name to value mapping.
	KindMap
	// KindList is a sequence of values.
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a structured value: a Scalar, a *Map or a List.
// The set of implementations is closed.
type Value interface {
	Kind() Kind
	sealed()
}

// Scalar is a leaf value. It renders through string conversion.
type Scalar struct {
	raw any
}

// Text returns a string scalar.
func Text(s string) Scalar {
	return Scalar{raw: s}
}

// ScalarOf wraps any Go value as a scalar.
func ScalarOf(v any) Scalar {
	return Scalar{raw: v}
}

// Kind implements Value.
func (Scalar) Kind() Kind { return KindScalar }

func (Scalar) sealed() {}

// Raw returns the wrapped Go value.
func (s Scalar) Raw() any {
	return s.raw
}

// String renders the scalar as element text.
func (s Scalar) String() string {
	switch v := s.raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// Pair builds an Entry.
func Pair(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// Map is a mapping with unique keys that remembers insertion order.
// The zero value is an empty map ready to use.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns a map holding the given entries in order.
func NewMap(entries ...Entry) *Map {
	m := &Map{}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Kind implements Value.
func (*Map) Kind() Kind { return KindMap }

func (*Map) sealed() {}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Entries returns the entries in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	entries := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		entries = append(entries, Entry{Key: k, Value: m.vals[k]})
	}
	return entries
}

// List is a sequence of values.
type List []Value

// Kind implements Value.
func (List) Kind() Kind { return KindList }

func (List) sealed() {}

// FromInterface converts plain Go data into a Value. Maps with string keys
// become *Map (keys sorted, since Go maps carry no order), slices and arrays
// become List and everything else becomes a Scalar. Values already of type
// Value are returned unchanged.
func FromInterface(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case nil:
		return ScalarOf(nil), nil
	case string, []byte, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return ScalarOf(val), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := &Map{}
		for _, k := range keys {
			child, err := FromInterface(val[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, child)
		}
		return m, nil
	case []any:
		list := make(List, 0, len(val))
		for i, item := range val {
			child, err := FromInterface(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list = append(list, child)
		}
		return list, nil
	}

	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ScalarOf(nil), nil
		}
		return FromInterface(rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, rv.Type().Key())
		}
		plain := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			plain[iter.Key().String()] = iter.Value().Interface()
		}
		return FromInterface(plain)
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return FromInterface(items)
	case reflect.String:
		return ScalarOf(rv.String()), nil
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return ScalarOf(rv.Interface()), nil
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return ScalarOf(s.String()), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
}

// ToInterface converts a Value into plain Go data: map[string]any, []any
// or the raw scalar.
func ToInterface(v Value) any {
	switch val := v.(type) {
	case Scalar:
		return val.raw
	case *Map:
		out := make(map[string]any, val.Len())
		for _, e := range val.Entries() {
			out[e.Key] = ToInterface(e.Value)
		}
		return out
	case List:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToInterface(item)
		}
		return out
	default:
		return nil
	}
}

// Canonical returns the value a document produced by Encoder decodes back
// to. Scalars become their text, empty maps and lists nested under a key
// become empty text, and a list of records folds into a single map whose
// repeated keys hold lists.
func Canonical(v Value) Value {
	switch val := v.(type) {
	case *Map:
		return canonicalMap(val.Entries())
	case List:
		return canonicalMap(listEntries(val))
	case Scalar:
		return Text(val.String())
	default:
		return Text("")
	}
}

// canonicalNested is Canonical for values sitting under a key.
func canonicalNested(v Value) Value {
	switch val := v.(type) {
	case *Map:
		if val.Len() == 0 {
			return Text("")
		}
	case List:
		if len(listEntries(val)) == 0 {
			return Text("")
		}
	}
	return Canonical(v)
}

func listEntries(list List) []Entry {
	var entries []Entry
	for _, item := range list {
		if m, ok := item.(*Map); ok {
			entries = append(entries, m.Entries()...)
		}
	}
	return entries
}

// canonicalMap groups entries by key in first-seen order; keys seen more
// than once collect their values into a List.
func canonicalMap(entries []Entry) *Map {
	grouped := groupEntries(entries)
	out := &Map{}
	for _, g := range grouped {
		if len(g.values) == 1 {
			out.Set(g.key, canonicalNested(g.values[0]))
			continue
		}
		list := make(List, len(g.values))
		for i, item := range g.values {
			list[i] = canonicalNested(item)
		}
		out.Set(g.key, list)
	}
	return out
}

type entryGroup struct {
	key    string
	values []Value
}

func groupEntries(entries []Entry) []*entryGroup {
	index := make(map[string]*entryGroup, len(entries))
	var groups []*entryGroup
	for _, e := range entries {
		g, ok := index[e.Key]
		if !ok {
			g = &entryGroup{key: e.Key}
			index[e.Key] = g
			groups = append(groups, g)
		}
		g.values = append(g.values, e.Value)
	}
	return groups
}
