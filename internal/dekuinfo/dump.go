// Package dekuinfo renders a decl.Declaration as a YAML field table, for
// the cmd/dekuinfo introspection binary. It is a debugging aid, not a
// config loader: nothing here reads YAML, only writes it (see
// SPEC_FULL.md's note distinguishing this from the excluded "final
// CLI/user crate").
package dekuinfo

import (
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/decl"
)

// Doc is the YAML-serializable shape of one Declaration.
type Doc struct {
	Name      string       `yaml:"name"`
	Kind      string       `yaml:"kind"`
	ByteOrder string       `yaml:"byte_order,omitempty"`
	Magic     string       `yaml:"magic,omitempty"`
	Fields    []FieldDoc   `yaml:"fields,omitempty"`
	Variants  []VariantDoc `yaml:"variants,omitempty"`
}

// FieldDoc is the YAML-serializable shape of one Field.
type FieldDoc struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Endian   string `yaml:"endian,omitempty"`
	Bits     int    `yaml:"bits,omitempty"`
	Bytes    int    `yaml:"bytes,omitempty"`
	Count    string `yaml:"count,omitempty"`
	Until    string `yaml:"until,omitempty"`
	Cond     string `yaml:"cond,omitempty"`
	Default  string `yaml:"default,omitempty"`
	Map      string `yaml:"map,omitempty"`
	Assert   string `yaml:"assert,omitempty"`
	AssertEq string `yaml:"assert_eq,omitempty"`
	Update   string `yaml:"update,omitempty"`
	Temp     bool   `yaml:"temp,omitempty"`
	Skip     bool   `yaml:"skip,omitempty"`
}

// VariantDoc is the YAML-serializable shape of one sum Variant.
type VariantDoc struct {
	Name     string `yaml:"name"`
	ID       uint64 `yaml:"id,omitempty"`
	CatchAll bool   `yaml:"catch_all,omitempty"`
	Unit     bool   `yaml:"unit,omitempty"`
	Fields   int    `yaml:"field_count,omitempty"`
}

// Describe converts a Declaration into its YAML-serializable Doc.
func Describe(d *decl.Declaration) Doc {
	doc := Doc{Name: d.Name}
	if len(d.Magic) > 0 {
		doc.Magic = hexString(d.Magic)
	}
	if d.ByteOrder != ctxmodel.Host {
		doc.ByteOrder = d.ByteOrder.String()
	}
	switch d.Kind {
	case decl.KindProduct:
		doc.Kind = "product"
		for _, f := range d.Fields {
			doc.Fields = append(doc.Fields, fieldDoc(f))
		}
	case decl.KindSum:
		doc.Kind = "sum"
		for _, v := range d.Variants {
			doc.Variants = append(doc.Variants, VariantDoc{
				Name:     v.Name,
				ID:       v.ID,
				CatchAll: v.CatchAll,
				Unit:     v.IsUnit,
				Fields:   len(v.Fields),
			})
		}
	}
	return doc
}

func fieldDoc(f *decl.Field) FieldDoc {
	fd := FieldDoc{
		Name:     f.Name,
		Type:     f.GoType.String(),
		Bits:     f.Bits,
		Bytes:    f.Bytes,
		Count:    f.Count,
		Until:    f.Until,
		Cond:     f.Cond,
		Default:  f.Default,
		Map:      f.MapRead,
		Assert:   f.Assert,
		AssertEq: f.AssertEq,
		Update:   f.Update,
		Temp:     f.Temp,
		Skip:     f.Skip,
	}
	if f.ByteOrderOverride != nil {
		fd.Endian = f.ByteOrderOverride.String()
	}
	return fd
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, hexDigits[c>>4], hexDigits[c&0xf])
	}
	return string(out)
}
