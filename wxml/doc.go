// Package wxml implements the front end of a compiler for a small HTML-like
// template language used by a component-oriented UI runtime.
//
// Parse turns template source text into a Template AST plus a list of
// Diagnostics; StringifyTemplate turns a Template back into its canonical
// textual form. Both halves are pure and synchronous and perform no I/O:
// diagnostics are buffered in the returned slice rather than logged or
// printed.
package wxml
