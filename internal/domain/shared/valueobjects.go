package shared

// Optional models a field that is either present with a value or absent.
// It exists to keep partial-update semantics explicit: an absent field means
// "leave the current value untouched", which a bare nil pointer would conflate
// with "set to null".
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nullable pointer into an Optional. A nil pointer maps to
// an absent value. Used at the boundary where JSON payloads carry pointers.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// IsPresent reports whether a value is set.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// Value returns the held value and whether it is present.
func (o Optional[T]) Value() (T, bool) {
	return o.value, o.present
}

// MustValue returns the held value; it is only meaningful after IsPresent.
func (o Optional[T]) MustValue() T {
	return o.value
}

// Apply overwrites dst with the held value when present, otherwise leaves
// dst unchanged.
func (o Optional[T]) Apply(dst *T) {
	if o.present {
		*dst = o.value
	}
}
