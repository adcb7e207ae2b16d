package utils

// Value dereferences v, returning the zero value for a nil pointer. Optional
// request flags are read through it.
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
