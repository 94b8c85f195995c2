// Dekuinfo dumps the field table of a Declaration registered in this
// binary as YAML, for inspecting struct-tag-derived codec shape during
// development. It never parses a user-supplied binary file against a
// schema at runtime — that "final CLI/user crate" surface is out of
// scope (see SPEC_FULL.md) — it only ever inspects Declarations already
// compiled in via Go struct tags.
//
// Usage:
//
//	dekuinfo [-name TYPE]
//
// With no -name, every Declaration built or registered by this binary's
// built-in examples is listed.
package main
