// Package match provides attribute name normalization and Levenshtein based
// suggestions for unknown attribute names.
//
// Key functions:
//   - Normalize: folds an attribute name for loose lookup
//   - Levenshtein: computes edit distance between strings
//   - Suggest: ranks known names close to an unknown one
package match
