package decl

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"

	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/dekulog"
	"go.uber.org/zap"
)

// normalizeKey translates deprecated attribute keys (spec.md §6.3) to
// their current names, logging a warning each time a deprecated key is
// seen — callers pass the name of the struct or field being parsed for
// context.
func normalizeKey(owner, key string) string {
	switch key {
	case "type":
		dekulog.Logger().Warn("deprecated attribute key, use id_type", zap.String("type", owner), zap.String("key", key))
		return "id_type"
	case "id_bits":
		dekulog.Logger().Warn("deprecated attribute key, use bits", zap.String("type", owner), zap.String("key", key))
		return "bits"
	case "id_bytes":
		dekulog.Logger().Warn("deprecated attribute key, use bytes", zap.String("type", owner), zap.String("key", key))
		return "bytes"
	default:
		return key
	}
}

func (a attrs) normalized(owner string) attrs {
	out := attrs{values: map[string]string{}, flags: map[string]bool{}}
	for k, v := range a.values {
		out.values[normalizeKey(owner, k)] = v
	}
	for k, v := range a.flags {
		out.flags[normalizeKey(owner, k)] = v
	}
	return out
}

func parseByteOrder(s string) (ctxmodel.ByteOrder, error) {
	switch s {
	case "little", "le":
		return ctxmodel.Little, nil
	case "big", "be":
		return ctxmodel.Big, nil
	case "host", "":
		return ctxmodel.Host, nil
	default:
		return ctxmodel.Host, fmt.Errorf("decl: invalid endian %q", s)
	}
}

func parseHexBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decl: invalid magic literal %q: %w", s, err)
	}
	return b, nil
}

func parseCtxList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
			continue
		case ')':
			if depth > 0 {
				depth--
			}
			continue
		case '|', ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	if len(out) == 1 && len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		// The whole value is one parenthesised list, e.g. ctx=(a|b) or
		// ctx=(a,b): split what is inside it.
		return parseCtxList(s[1 : len(s)-1])
	}
	// Strip one layer of enclosing parens from each entry.
	for i, e := range out {
		if len(e) >= 2 && e[0] == '(' && e[len(e)-1] == ')' {
			out[i] = e[1 : len(e)-1]
		}
	}
	return out
}

// buildField resolves one struct field's Field from its reflect.StructField.
func buildField(idx int, sf reflect.StructField) (*Field, error) {
	raw, ok := sf.Tag.Lookup("deku")
	a := parseTag(raw)
	if ok {
		a = a.normalized(sf.Name)
	}

	f := &Field{Name: sf.Name, GoType: sf.Type, StructIdx: idx}

	if v, ok := a.get("endian"); ok {
		order, err := parseByteOrder(v)
		if err != nil {
			return nil, err
		}
		f.ByteOrderOverride = &order
	}
	if v, ok := a.get("bits"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decl: field %s: invalid bits %q: %w", sf.Name, v, err)
		}
		f.Bits = n
	}
	if v, ok := a.get("bytes"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decl: field %s: invalid bytes %q: %w", sf.Name, v, err)
		}
		f.Bytes = n
	}
	if v, ok := a.get("count"); ok {
		f.Count = v
	}
	if v, ok := a.get("until"); ok {
		f.Until = v
	}
	if v, ok := a.get("bytes_read"); ok {
		f.BytesRead = v
	}
	if v, ok := a.get("bits_read"); ok {
		f.BitsRead = v
	}
	f.ReadAll = a.flag("read_all")
	if v, ok := a.get("cond"); ok {
		f.Cond = v
	}
	if v, ok := a.get("default"); ok {
		f.Default = v
	}
	if v, ok := a.get("map"); ok {
		f.MapRead = v
	}
	if v, ok := a.get("map_write"); ok {
		f.MapWrite = v
	}
	if v, ok := a.get("ctx"); ok {
		f.CtxExprs = parseCtxList(v)
	}
	if v, ok := a.get("assert"); ok {
		f.Assert = v
	}
	if v, ok := a.get("assert_eq"); ok {
		f.AssertEq = v
	}
	if v, ok := a.get("pad_bits_before"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		f.PadBitsBefore = n
	}
	if v, ok := a.get("pad_bytes_before"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		f.PadBytesBefore = n
	}
	if v, ok := a.get("pad_bits_after"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		f.PadBitsAfter = n
	}
	if v, ok := a.get("pad_bytes_after"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		f.PadBytesAfter = n
	}
	if v, ok := a.get("pad_value"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || (n != 0 && n != 1) {
			return nil, fmt.Errorf("decl: field %s: pad_value must be 0 or 1", sf.Name)
		}
		f.PadValue = uint8(n)
	}
	if v, ok := a.get("update"); ok {
		f.Update = v
	}
	f.Temp = a.flag("temp")
	f.Skip = a.flag("skip")
	if v, ok := a.get("magic"); ok {
		b, err := parseHexBytes(v)
		if err != nil {
			return nil, err
		}
		f.Magic = b
	}
	return f, nil
}

// BuildProduct resolves a Declaration for a Go struct type, reading its
// fields' `deku` tags in declared order. An optional embedded Header
// field supplies container-level attributes (endian, magic, ctx).
func BuildProduct(t reflect.Type) (*Declaration, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("decl: %s is not a struct", t)
	}
	d := &Declaration{Kind: KindProduct, Name: t.Name(), GoType: t}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Type == headerType {
			raw, _ := sf.Tag.Lookup("deku")
			a := parseTag(raw).normalized(t.Name())
			if v, ok := a.get("endian"); ok {
				order, err := parseByteOrder(v)
				if err != nil {
					return nil, err
				}
				d.ByteOrder = order
			}
			if v, ok := a.get("magic"); ok {
				b, err := parseHexBytes(v)
				if err != nil {
					return nil, err
				}
				d.Magic = b
			}
			if v, ok := a.get("ctx"); ok {
				d.CtxExprs = parseCtxList(v)
			}
			if v, ok := a.get("bits"); ok {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("decl: %s: invalid bits %q: %w", t.Name(), v, err)
				}
				d.Bits = n
			}
			if v, ok := a.get("bytes"); ok {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("decl: %s: invalid bytes %q: %w", t.Name(), v, err)
				}
				d.Bytes = n
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		f, err := buildField(i, sf)
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, f)
	}
	return d, nil
}
