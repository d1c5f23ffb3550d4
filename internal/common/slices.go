package common

// Reversed returns a copy of s in reverse order.
func Reversed[S ~[]E, E any](s S) S {
	out := make(S, len(s))
	for i, e := range s {
		out[len(s)-1-i] = e
	}

	return out
}
