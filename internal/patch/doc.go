// Package patch binds patch operations (add, remove, replace, move, copy and
// test) to an object graph and applies them reversibly.
//
// A patch document decodes into Operation records. A Binder resolves each
// record against a root object and yields one Node per concrete target. A
// Node is applied and reverted with TryApply and TryRevert, which never
// panic or return errors: the outcome is a boolean and the failure is kept
// on the node. Tracker applies a batch in order and rolls back the applied
// prefix when a node fails.
//
// Apply and revert mutate the graph in place and must not run concurrently
// on the same graph.
package patch
