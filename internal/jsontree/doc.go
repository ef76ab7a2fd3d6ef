// Package jsontree models provider JSON payloads as a tagged union of
// object, array, and scalar nodes, and resolves dotted paths against them.
//
// Provider payload shapes are untrusted and partial, so every lookup reports
// absence through a boolean instead of an error. The path grammar is a
// dot-separated token sequence: tokens index objects by key and arrays by
// non-negative integer position, and the special path "$" names the root.
package jsontree
