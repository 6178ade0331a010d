// Package memokey builds hashable cache keys from call arguments.
//
// A key is derived deterministically from an ordered positional argument
// list and an optional keyword-argument mapping. Keys built from the same
// arguments compare equal, keyword arguments can never collide with
// positional ones, and a typed builder additionally separates calls whose
// arguments differ only in type (3 vs 3.0).
package memokey

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrUnhashable reports an argument whose type cannot support stable
// equality and hashing (slices, maps, functions). The caller must fix the
// call site; the cache cannot recover from this.
var ErrUnhashable = errors.New("memokey: argument type does not support hashing")

// Key is an opaque, comparable cache key.
//
// For composite keys the canonical encoding and its digest are produced
// exactly once, at build time, so neither lookups nor equality checks pay
// the flattening cost again.
type Key struct {
	fast   any    // single self-hashing primitive, fast path only
	digest uint64 // xxhash of canon, 0 on the fast path
	canon  string // canonical flat encoding, empty on the fast path
}

// String returns a short diagnostic form of the key.
func (k Key) String() string {
	if k.canon == "" {
		return fmt.Sprintf("%v", k.fast)
	}
	return "0x" + strconv.FormatUint(k.digest, 16)
}

// Builder turns argument lists into Keys. The zero Builder is untyped.
type Builder struct {
	typed bool
}

// NewBuilder returns a Builder. A typed builder appends every argument's
// type to the key so equal values of different types get distinct entries.
func NewBuilder(typed bool) Builder { return Builder{typed: typed} }

// Markers separating key sections in the canonical encoding. They cannot
// occur as value tags, so a positional argument can never collide with a
// keyword argument of equal value.
const (
	kwdMark  = 0x1d
	typeMark = 0x1e
)

// Build constructs the key for one call. All arguments must be of
// comparable types; otherwise Build fails with ErrUnhashable and the call
// must not be cached.
func (b Builder) Build(args []any, kwargs map[string]any) (Key, error) {
	for _, v := range args {
		if !hashable(v) {
			return Key{}, fmt.Errorf("%w: %T", ErrUnhashable, v)
		}
	}
	for name, v := range kwargs {
		if !hashable(v) {
			return Key{}, fmt.Errorf("%w: %T (keyword %q)", ErrUnhashable, v, name)
		}
	}

	// Fast path: a single primitive positional argument is its own key.
	// Numerics are normalized so that untyped 3 and 3.0 share an entry.
	if !b.typed && len(kwargs) == 0 && len(args) == 1 {
		if fv, ok := fastValue(args[0]); ok {
			return Key{fast: fv}, nil
		}
	}

	var sb strings.Builder
	for _, v := range args {
		encodeValue(&sb, v)
	}
	var names []string
	if len(kwargs) > 0 {
		sb.WriteByte(kwdMark)
		names = make([]string, 0, len(kwargs))
		for name := range kwargs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			encodeString(&sb, 'k', name)
			encodeValue(&sb, kwargs[name])
		}
	}
	if b.typed {
		sb.WriteByte(typeMark)
		for _, v := range args {
			encodeType(&sb, v)
		}
		for _, name := range names {
			encodeType(&sb, kwargs[name])
		}
	}

	canon := sb.String()
	return Key{digest: xxhash.Sum64String(canon), canon: canon}, nil
}

// hashable reports whether v can serve as cache-key material. The check
// is on the value, not just the type, so a comparable struct carrying a
// slice in an interface field is rejected here instead of panicking on
// map insert.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}

// fastValue normalizes a single argument into a directly comparable key
// value. Integers of any width collapse to int64; floats with an exact
// integer value collapse to the same int64 so the untyped key space stays
// consistent with the composite encoding.
func fastValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case string:
		return x, true
	case bool:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return normUint(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return normUint(x)
	case uintptr:
		return normUint(uint64(x))
	case float32:
		return normFloat(float64(x))
	case float64:
		return normFloat(x)
	}
	return nil, false
}

func normUint(u uint64) (any, bool) {
	if u > math.MaxInt64 {
		// Too large for the normalized integer space; take the
		// composite path so the encoding stays unambiguous.
		return nil, false
	}
	return int64(u), true
}

func normFloat(f float64) (any, bool) {
	if math.IsNaN(f) {
		// NaN never equals itself; as a map key it would leak one
		// entry per call. The composite encoding spells it out.
		return nil, false
	}
	// The upper bound is exclusive: math.MaxInt64 rounds to 2^63 as a
	// float64, and converting that back to int64 would overflow.
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), true
	}
	return f, true
}

// encodeValue appends one self-delimiting element to the canonical
// encoding. Variable-length payloads are length-prefixed.
func encodeValue(sb *strings.Builder, v any) {
	if v == nil {
		sb.WriteByte('z')
		return
	}
	if fv, ok := fastValue(v); ok {
		switch x := fv.(type) {
		case string:
			encodeString(sb, 's', x)
		case bool:
			if x {
				sb.WriteString("b1")
			} else {
				sb.WriteString("b0")
			}
		case int64:
			sb.WriteByte('i')
			sb.WriteString(strconv.FormatInt(x, 10))
		case float64:
			sb.WriteByte('f')
			sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		return
	}
	switch x := v.(type) {
	case uint:
		sb.WriteByte('U')
		sb.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		sb.WriteByte('U')
		sb.WriteString(strconv.FormatUint(x, 10))
	case uintptr:
		sb.WriteByte('U')
		sb.WriteString(strconv.FormatUint(uint64(x), 10))
	case float32:
		sb.WriteByte('f')
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case float64:
		sb.WriteByte('f')
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	default:
		// Arbitrary comparable values: tag with the concrete type, then
		// walk the value so every leaf passes through a self-delimiting
		// encoder. Values of different Go types are never equal, so
		// including the type is safe for untyped keys.
		sb.WriteByte('o')
		encodeString(sb, 't', reflect.TypeOf(v).String())
		encodeReflect(sb, reflect.ValueOf(v))
	}
}

// encodeReflect emits one value of an arbitrary comparable type. Leaves
// use the same self-delimiting forms as top-level arguments; structs and
// arrays recurse per field or element, so adjacent variable-length
// leaves keep their boundaries (a flat rendering would let e.g.
// {"a", "b c"} and {"a b", "c"} read the same).
func encodeReflect(sb *strings.Builder, rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			sb.WriteString("b1")
		} else {
			sb.WriteString("b0")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sb.WriteByte('i')
		sb.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		sb.WriteByte('U')
		sb.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		sb.WriteByte('f')
		sb.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		sb.WriteByte('c')
		sb.WriteString(strconv.FormatComplex(rv.Complex(), 'g', -1, 128))
	case reflect.String:
		encodeString(sb, 's', rv.String())
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		// Equality for these kinds is identity, so the address is the
		// value.
		sb.WriteByte('p')
		sb.WriteString(strconv.FormatUint(uint64(rv.Pointer()), 16))
	case reflect.Interface:
		if rv.IsNil() {
			sb.WriteByte('z')
			return
		}
		// The dynamic type takes part in interface equality.
		elem := rv.Elem()
		encodeString(sb, 't', elem.Type().String())
		encodeReflect(sb, elem)
	case reflect.Array:
		sb.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			encodeReflect(sb, rv.Index(i))
		}
		sb.WriteByte(']')
	case reflect.Struct:
		sb.WriteByte('(')
		for i := 0; i < rv.NumField(); i++ {
			encodeReflect(sb, rv.Field(i))
		}
		sb.WriteByte(')')
	}
}

func encodeString(sb *strings.Builder, tag byte, s string) {
	sb.WriteByte(tag)
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteByte(':')
	sb.WriteString(s)
}

func encodeType(sb *strings.Builder, v any) {
	if v == nil {
		sb.WriteString("z;")
		return
	}
	sb.WriteString(reflect.TypeOf(v).String())
	sb.WriteByte(';')
}
