package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// KeySerializer builds a cache key from a resource name and key parts.
// Equal inputs must always produce equal keys.
type KeySerializer interface {
	SerializeKey(resource string, parts ...any) string
}

// KeyPart is implemented by values that know their own key rendering,
// such as a compiled predicate.
type KeyPart interface {
	CacheKey() string
}

// KeyPrefix returns the prefix shared by every key of resource.
func KeyPrefix(resource string) string {
	return resource + KeySeparator
}

// defaultKeySerializer renders parts into a readable, unhashed form.
// Strings are quoted so that "1" and 1 never collide, and maps are
// emitted in sorted key order.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins resource and the rendered parts with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(resource string, parts ...any) string {
	if len(parts) == 0 {
		return resource
	}

	out := make([]string, 0, len(parts)+1)
	out = append(out, resource)
	for _, p := range parts {
		out = append(out, s.serializeValue(p))
	}
	return strings.Join(out, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}
	if kp, ok := v.(KeyPart); ok {
		return kp.CacheKey()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.String:
		return strconv.Quote(rv.String())
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		return s.serializeList(rv)
	case reflect.Map:
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv)
	}
	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeList(rv reflect.Value) string {
	items := make([]string, rv.Len())
	for i := range items {
		items[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(items, ",") + "]"
}

func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	fields := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, f.Name+":"+s.serializeValue(rv.Field(i).Interface()))
	}
	return rt.Name() + "{" + strings.Join(fields, ",") + "}"
}

func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "type:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}
