// Package main provides the CLI entrypoint for scimpatch.
//
// scimpatch applies SCIM PatchOp and JSON Patch documents to SCIM resources:
//   - apply binds a document to a resource, applies it and prints the result
//   - plan prints the nodes a document binds to without applying them
//   - select prints the values an attribute path reaches
//   - filter parses a filter and prints its canonical form
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
