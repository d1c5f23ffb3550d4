// Package accessor reads and writes named attributes of arbitrary struct
// types through reflection.
//
// Types are described once and the descriptor is kept in a process-wide
// cache for the lifetime of the process. Attributes are looked up by json
// tag name, Go field name, case-insensitively, and finally in a separator
// insensitive normalized form.
package accessor
