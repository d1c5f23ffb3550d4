// Package path parses attribute paths such as
// `emails[type eq "work"].value` and resolves them against an object graph.
//
// Segments are separated by '.' outside brackets. A segment carries a filter
// when its first '[' is at an index greater than zero and its first ']'
// comes after it; otherwise brackets are ordinary name characters.
package path
