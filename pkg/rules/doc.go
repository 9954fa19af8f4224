// Package rules evaluates small boolean/value expressions against a snapshot
// map. The grid uses it to decide whether a bulk action is enabled for the
// current selection, and the in-memory backend uses it to apply filter
// operators.
//
// Three engines are available: expr (default), CEL, and JavaScript through
// goja when built with the `js_eval` tag.
package rules
