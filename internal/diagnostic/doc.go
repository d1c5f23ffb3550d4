// Package diagnostic provides the error taxonomy of the patch engine and a
// report type collecting per-operation failures of a batch.
//
// Key capabilities:
//   - Kind-tagged errors usable with errors.Is against package sentinels
//   - Attribute suggestions for unknown attribute names
//   - Batch reports with errors and warnings
package diagnostic
