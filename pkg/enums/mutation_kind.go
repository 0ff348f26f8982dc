package enums

import "fmt"

// MutationKind identifies which cart mutation a queue entry carries.
type MutationKind string

const (
	MutationKindSetItem      MutationKind = "set_item"
	MutationKindApplyCoupon  MutationKind = "apply_coupon"
	MutationKindRemoveCoupon MutationKind = "remove_coupon"
)

var validMutationKinds = []MutationKind{
	MutationKindSetItem,
	MutationKindApplyCoupon,
	MutationKindRemoveCoupon,
}

// String implements fmt.Stringer.
func (m MutationKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MutationKind.
func (m MutationKind) IsValid() bool {
	for _, candidate := range validMutationKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMutationKind converts raw input into a MutationKind.
func ParseMutationKind(value string) (MutationKind, error) {
	for _, candidate := range validMutationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mutation kind %q", value)
}
