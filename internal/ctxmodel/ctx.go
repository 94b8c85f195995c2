package ctxmodel

// Ctx is the uniform runtime input threaded from a parent codec call to
// a child's. The only universally defined shape is (byte order, optional
// bit-size-or-byte-size); Extra and Scope carry the user-extensible
// parts described by a field's `ctx` attribute and sibling visibility.
type Ctx struct {
	Order ByteOrder

	// BitWidth is the explicit bit width for this value, or 0 if unset
	// (meaning: use the type's native width). Mutually exclusive with
	// ByteCount at the field-attribute level (spec.md invariant 3), but
	// both may be present here since ByteCount is sometimes synthesized
	// independently (e.g. a fixed-size byte array's element count).
	BitWidth int

	// ByteCount is the explicit byte width/count for this value, or 0 if unset.
	ByteCount int

	// Extra holds additional values appended by an explicit `ctx = (...)`
	// attribute expression, in declaration order.
	Extra []any

	// Scope exposes sibling fields declared before the current one, by
	// name, for use in count/until/cond/map/assert expressions.
	Scope map[string]any
}

// Default returns the Ctx used at a top-level entry point when the
// caller supplies none: host byte order, no explicit width.
func Default() Ctx {
	return Ctx{Order: Host}
}

// WithOrder returns a copy of c with its byte order replaced.
func (c Ctx) WithOrder(o ByteOrder) Ctx {
	c.Order = o
	return c
}

// WithBitWidth returns a copy of c with an explicit bit width.
func (c Ctx) WithBitWidth(bits int) Ctx {
	c.BitWidth = bits
	c.ByteCount = 0
	return c
}

// WithByteCount returns a copy of c with an explicit byte count.
func (c Ctx) WithByteCount(n int) Ctx {
	c.ByteCount = n
	c.BitWidth = 0
	return c
}

// WithExtra returns a copy of c with Extra replaced.
func (c Ctx) WithExtra(extra ...any) Ctx {
	c.Extra = extra
	return c
}

// WithScope returns a copy of c with Scope replaced by the given sibling
// field bindings.
func (c Ctx) WithScope(scope map[string]any) Ctx {
	c.Scope = scope
	return c
}

// Field looks up a sibling field binding by name in c.Scope. The lowering
// engine evaluates count, until, cond, map, assert and update expressions
// against its own scope map, not through this method.
func (c Ctx) Field(name string) (any, bool) {
	if c.Scope == nil {
		return nil, false
	}
	v, ok := c.Scope[name]
	return v, ok
}

// BitsOrNative returns the explicit bit width if set, otherwise
// nativeBits (the codec's own native width).
func (c Ctx) BitsOrNative(nativeBits int) int {
	if c.BitWidth > 0 {
		return c.BitWidth
	}
	if c.ByteCount > 0 {
		return c.ByteCount * 8
	}
	return nativeBits
}

// Child synthesizes the Ctx passed to a child codec call, applying the
// synthesis rules of spec.md §4.4: the child's own byte-order override
// (if any) wins over the inherited order; bits/bytes come from the
// child's own attributes, not the parent's; ctx-expression values and
// sibling scope are attached verbatim.
func (c Ctx) Child(orderOverride *ByteOrder, bits, byteCount int, extra []any, scope map[string]any) Ctx {
	order := c.Order
	if orderOverride != nil {
		order = *orderOverride
	}
	return Ctx{
		Order:     order,
		BitWidth:  bits,
		ByteCount: byteCount,
		Extra:     extra,
		Scope:     scope,
	}
}
