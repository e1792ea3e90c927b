package json22

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StringifyOptions controls Marshal output.
type StringifyOptions struct {
	// Indent, when non-empty, pretty-prints nested values with one Indent per level.
	Indent string
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	bigIntType    = reflect.TypeOf(big.Int{})
	typedType     = reflect.TypeOf((*Typed)(nil)).Elem()
	valuerType    = reflect.TypeOf((*Valuer)(nil)).Elem()
	marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
)

// Marshal encodes v as JSON22 text.
func Marshal(v any, opts StringifyOptions) (string, error) {
	e := &encoder{indent: opts.Indent}
	if err := e.encode(reflect.ValueOf(v), 0); err != nil {
		return "", err
	}
	return e.buf.String(), nil
}

type encoder struct {
	buf    bytes.Buffer
	indent string
}

func (e *encoder) encode(rv reflect.Value, depth int) error {
	if !rv.IsValid() {
		e.buf.WriteString("null")
		return nil
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		e.buf.WriteString("null")
		return nil
	}

	switch {
	case rv.Type() == timeType:
		e.buf.WriteString("Date(")
		e.buf.WriteString(strconv.FormatInt(rv.Interface().(time.Time).UnixMilli(), 10))
		e.buf.WriteByte(')')
		return nil
	case rv.Type() == bigIntType:
		n := rv.Interface().(big.Int)
		e.buf.WriteString(n.String())
		e.buf.WriteByte('n')
		return nil
	case rv.Kind() == reflect.Pointer && rv.Type().Elem() == bigIntType:
		e.buf.WriteString(rv.Interface().(*big.Int).String())
		e.buf.WriteByte('n')
		return nil
	case rv.Kind() == reflect.Pointer && rv.Type().Elem() == timeType:
		return e.encode(rv.Elem(), depth)
	case rv.Type().Implements(typedType):
		return e.encodeTyped(rv, depth)
	case rv.Kind() != reflect.Pointer && reflect.PointerTo(rv.Type()).Implements(typedType):
		// JSON22Type on a pointer receiver; map values and fields of
		// unaddressable structs are copied to reach it.
		if rv.CanAddr() {
			return e.encodeTyped(rv.Addr(), depth)
		}
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		return e.encodeTyped(ptr, depth)
	case rv.Type().Implements(marshalerType):
		raw, err := rv.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return err
		}
		e.buf.Write(raw)
		return nil
	}

	return e.encodePlain(rv, depth)
}

func (e *encoder) encodeTyped(rv reflect.Value, depth int) error {
	e.buf.WriteString(rv.Interface().(Typed).JSON22Type())
	e.buf.WriteByte('(')
	var err error
	if rv.Type().Implements(valuerType) {
		err = e.encode(reflect.ValueOf(rv.Interface().(Valuer).JSON22Value()), depth)
	} else {
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				break
			}
			rv = rv.Elem()
		}
		err = e.encodePlain(rv, depth)
	}
	if err != nil {
		return err
	}
	e.buf.WriteByte(')')
	return nil
}

// encodePlain encodes rv by kind, skipping the Typed and Marshaler hooks of
// rv itself (but not of its children).
func (e *encoder) encodePlain(rv reflect.Value, depth int) error {
	switch rv.Kind() {
	case reflect.Bool:
		e.buf.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		e.writeFloat(rv.Float(), 32)
	case reflect.Float64:
		e.writeFloat(rv.Float(), 64)
	case reflect.String:
		return e.writeString(rv.String())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.encode(rv.Elem(), depth)
	case reflect.Slice:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return e.writeString(base64.StdEncoding.EncodeToString(rv.Bytes()))
		}
		return e.encodeArray(rv, depth)
	case reflect.Array:
		return e.encodeArray(rv, depth)
	case reflect.Map:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.encodeMap(rv, depth)
	case reflect.Struct:
		return e.encodeStruct(rv, depth)
	default:
		return &UnsupportedTypeError{Type: rv.Type()}
	}
	return nil
}

func (e *encoder) encodeArray(rv reflect.Value, depth int) error {
	if rv.Len() == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.encode(rv.Index(i), depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}

func (e *encoder) encodeMap(rv reflect.Value, depth int) error {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		var key string
		switch k.Kind() {
		case reflect.String:
			key = k.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			key = strconv.FormatInt(k.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			key = strconv.FormatUint(k.Uint(), 10)
		default:
			return &UnsupportedTypeError{Type: rv.Type()}
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	if len(entries) == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	e.buf.WriteByte('{')
	for i, ent := range entries {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.writeKey(ent.key); err != nil {
			return err
		}
		if err := e.encode(ent.val, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) encodeStruct(rv reflect.Value, depth int) error {
	written := 0
	e.buf.WriteByte('{')
	for _, f := range structFields(rv.Type()) {
		fv, ok := fieldByIndex(rv, f.index)
		if !ok {
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if written > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.writeKey(f.name); err != nil {
			return err
		}
		if err := e.encode(fv, depth+1); err != nil {
			return err
		}
		written++
	}
	if written > 0 {
		e.newline(depth)
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) writeKey(key string) error {
	if err := e.writeString(key); err != nil {
		return err
	}
	e.buf.WriteByte(':')
	if e.indent != "" {
		e.buf.WriteByte(' ')
	}
	return nil
}

func (e *encoder) writeString(s string) error {
	quoted, err := mapper.MarshalToString(s)
	if err != nil {
		return err
	}
	e.buf.WriteString(quoted)
	return nil
}

func (e *encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	e.buf.WriteString(strings.Repeat(e.indent, depth))
}

func (e *encoder) writeFloat(f float64, bits int) {
	switch {
	case math.IsNaN(f):
		e.buf.WriteString("NaN")
		return
	case math.IsInf(f, 1):
		e.buf.WriteString("Infinity")
		return
	case math.IsInf(f, -1):
		e.buf.WriteString("-Infinity")
		return
	}
	// Same shortest-representation rules as encoding/json.
	format := byte('f')
	if abs := math.Abs(f); abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	b := strconv.AppendFloat(nil, f, format, -1, bits)
	if format == 'e' {
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	e.buf.Write(b)
}

type field struct {
	name      string
	index     []int
	omitEmpty bool
}

func structFields(t reflect.Type) []field {
	var fields []field
	seen := make(map[string]bool)
	var walk func(t reflect.Type, index []int)
	walk = func(t reflect.Type, index []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			idx := append(append([]int(nil), index...), i)

			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if sf.Anonymous && sf.IsExported() && name == "" && ft.Kind() == reflect.Struct && !ft.Implements(typedType) {
				walk(ft, idx)
				continue
			}
			if !sf.IsExported() {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			fields = append(fields, field{
				name:      name,
				index:     idx,
				omitEmpty: strings.Contains(opts, "omitempty"),
			})
		}
	}
	walk(t, nil)
	return fields
}

// fieldByIndex walks embedded pointers, reporting false when one is nil.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
