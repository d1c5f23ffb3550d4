// Package filter parses SCIM filter expressions and compiles them into
// predicates over Go values of a given type.
//
// Grammar (keywords are case-insensitive):
//
//	filter    = term *( ("and" | "or") term )      and binds tighter than or
//	term      = "not" term | "(" filter ")" | attrPath "[" filter "]"
//	          | attrPath "pr" | attrPath compareOp value
//	compareOp = "eq" | "ne" | "co" | "sw" | "ew" | "gt" | "ge" | "lt" | "le"
//	attrPath  = ["urn:..." ":"] name *("." name)   "this" names the element itself
//	value     = string | number | "true" | "false" | "null" | bare word
//
// A compiled predicate never panics: reflection faults during evaluation
// count as "not satisfied".
package filter
