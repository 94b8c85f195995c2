// Package validate rejects ill-formed Declarations with precise,
// aggregated diagnostics before a product or sum is ever handed to the
// lowering engine. It runs at sum registration and again before every
// top-level read or write, the same point the teacher's vdl package
// validates a type's wire compatibility before caching it.
package validate

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/sharksforarms/deku/internal/dekuerr"
	"github.com/sharksforarms/deku/internal/decl"
	"go.uber.org/multierr"
)

// reservedPrefix marks attribute-expression identifiers reserved for
// internal bookkeeping (e.g. a synthesized loop index). User expressions
// may not reference a name with this prefix.
const reservedPrefix = "__deku_"

var intReprWidths = map[string]int{
	"u8": 8, "i8": 8,
	"u16": 16, "i16": 16,
	"u32": 32, "i32": 32,
	"u64": 64, "i64": 64,
}

var intReprSigned = map[string]bool{
	"u8": false, "i8": true,
	"u16": false, "i16": true,
	"u32": false, "i32": true,
	"u64": false, "i64": true,
}

// Declaration validates d, returning a single aggregated error (built
// with multierr so every violation is reported in one pass, not just the
// first) or nil if d is well-formed.
func Declaration(d *decl.Declaration) error {
	switch d.Kind {
	case decl.KindProduct:
		return product(d)
	case decl.KindSum:
		return sum(d)
	default:
		return dekuerr.NewInvalidParam("decl: unknown declaration kind for %s", d.Name)
	}
}

func product(d *decl.Declaration) error {
	var err error
	if d.Discriminator.HasIDType || d.Discriminator.HasIDExpr {
		err = multierr.Append(err, dekuerr.NewInvalidParam("%s: id_type is not valid on a product", d.Name))
	}
	if d.Bits != 0 || d.Bytes != 0 {
		err = multierr.Append(err, dekuerr.NewInvalidParam(
			"%s: bits/bytes on the container Header is only meaningful on a sum's id_type, not on a product", d.Name))
	}
	for _, f := range d.Fields {
		err = multierr.Append(err, field(d.Name, f))
	}
	return err
}

func field(owner string, f *decl.Field) error {
	var err error

	nSeqAttrs := 0
	if f.Count != "" {
		nSeqAttrs++
	}
	if f.Until != "" {
		nSeqAttrs++
	}
	if f.BytesRead != "" {
		nSeqAttrs++
	}
	if f.BitsRead != "" {
		nSeqAttrs++
	}
	if f.ReadAll {
		nSeqAttrs++
	}
	if nSeqAttrs > 1 {
		err = multierr.Append(err, dekuerr.NewInvalidParam(
			"%s.%s: count/until/bytes_read/bits_read/read_all are mutually exclusive", owner, f.Name))
	}

	if f.Bits != 0 && f.Bytes != 0 {
		err = multierr.Append(err, dekuerr.NewInvalidParam(
			"%s.%s: bits and bytes are mutually exclusive", owner, f.Name))
	}

	exprs := []string{f.Count, f.Until, f.BytesRead, f.BitsRead, f.Cond, f.Default, f.MapRead, f.MapWrite, f.Assert, f.AssertEq, f.Update}
	exprs = append(exprs, f.CtxExprs...)
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		if bad := reservedIdent(expr); bad != "" {
			err = multierr.Append(err, dekuerr.NewInvalidParam(
				"%s.%s: expression references reserved identifier %q", owner, f.Name, bad))
		}
	}

	return err
}

// reservedIdent returns the first identifier-looking token in expr that
// begins with reservedPrefix, or "" if none does. This is a lightweight
// scan rather than a full parse: the validator only needs to catch the
// reserved-prefix class, not re-typecheck the expression.
func reservedIdent(expr string) string {
	var b strings.Builder
	flush := func() string {
		s := b.String()
		b.Reset()
		return s
	}
	for _, r := range expr + " " {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if tok := flush(); strings.HasPrefix(tok, reservedPrefix) {
			return tok
		}
	}
	return ""
}

func sum(d *decl.Declaration) error {
	var err error

	disc := d.Discriminator
	if disc.HasIDType == disc.HasIDExpr {
		err = multierr.Append(err, dekuerr.NewInvalidParam(
			"%s: sum must set exactly one of id_type or id", d.Name))
	}

	if disc.HasIDExpr {
		// bits/bytes only constrain the width of a read discriminator;
		// meaningless when the discriminator is supplied by the parent ctx.
		if disc.Bits != 0 {
			err = multierr.Append(err, dekuerr.NewInvalidParam(
				"%s: bits is only valid with id_type, not id", d.Name))
		}
	}

	if disc.HasIDType {
		width, ok := intReprWidths[disc.IDTypeTag]
		if !ok {
			err = multierr.Append(err, dekuerr.NewInvalidParam(
				"%s: unrecognized id_type %q", d.Name, disc.IDTypeTag))
		} else if disc.Bits != 0 && disc.Bits != width {
			err = multierr.Append(err, dekuerr.NewInvalidParam(
				"%s: repr %s is %d bits, but id_type declares %d", d.Name, disc.IDTypeTag, width, disc.Bits))
		}
	}

	sawCatchAll := false
	seenIDs := map[uint64]string{}
	for _, v := range d.Variants {
		if v.HasID && v.CatchAll {
			err = multierr.Append(err, dekuerr.NewInvalidParam(
				"%s: variant %s specifies both id and id_pat", d.Name, v.Name))
		}
		if v.CatchAll {
			if sawCatchAll {
				err = multierr.Append(err, dekuerr.NewInvalidParam(
					"%s: more than one catch-all (id_pat = _) variant", d.Name))
			}
			sawCatchAll = true
		} else if !v.HasID && !v.IsUnit {
			err = multierr.Append(err, dekuerr.NewInvalidParam(
				"%s: variant %s has no id and is not unit, discriminator cannot be recovered for write", d.Name, v.Name))
		}
		if v.HasID {
			if owner, dup := seenIDs[v.ID]; dup {
				err = multierr.Append(err, dekuerr.NewInvalidParam(
					"%s: variants %s and %s share discriminator %d", d.Name, owner, v.Name, v.ID))
			}
			seenIDs[v.ID] = v.Name
		}
		if v.CatchAll && v.IDField != "" && disc.HasIDType && v.GoType != nil {
			if sf, ok := v.GoType.FieldByName(v.IDField); ok {
				if idFieldTypeMismatch(disc.IDTypeTag, sf.Type) {
					err = multierr.Append(err, dekuerr.NewInvalidParam(
						"%s: variant %s id_pat field %s has type %s incompatible with id_type %s",
						d.Name, v.Name, v.IDField, sf.Type, disc.IDTypeTag))
				}
			}
		}
		for _, f := range v.Fields {
			err = multierr.Append(err, field(d.Name+"."+v.Name, f))
		}
	}

	return err
}

// idFieldTypeMismatch reports whether ft (the Go type of a catch-all
// variant's id_pat storage field) cannot faithfully hold a discriminator
// declared as idTypeTag: wrong signedness, a non-integer type (a uint64
// discriminator converts to string via Go's numeric-to-string rune
// conversion without error, silently producing garbage), or too narrow
// to hold the declared width.
func idFieldTypeMismatch(idTypeTag string, ft reflect.Type) bool {
	width, ok := intReprWidths[idTypeTag]
	if !ok {
		return false
	}
	signed := intReprSigned[idTypeTag]
	switch ft.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if signed {
			return true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !signed {
			return true
		}
	default:
		return true
	}
	return ft.Bits() < width
}

// ParseUintLiteral parses a literal discriminator string against a
// declared id_type width, wrapping strconv's error as InvalidParam.
// Nothing in this module calls it yet.
func ParseUintLiteral(s string, bitWidth int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bitWidth)
	if err != nil {
		return 0, dekuerr.NewInvalidParam("invalid integer literal %q: %v", s, err)
	}
	return v, nil
}
