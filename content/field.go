package content

// Field is an optional input value. Set distinguishes an absent field from
// one explicitly supplied with its zero value.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a Field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Get returns the value and whether it was supplied.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set
}

// ParseBool interprets an HTML form value: "true" and "on" are true,
// anything else is false.
func ParseBool(s string) bool {
	return s == "true" || s == "on"
}
