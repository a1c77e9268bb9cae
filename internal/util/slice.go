package util

import "golang.org/x/exp/constraints"

// Min returns the smallest of values, or the zero value for an empty slice
func Min[T constraints.Ordered](values []T) (result T) {
	for i, v := range values {
		if i == 0 || v < result {
			result = v
		}
	}
	return result
}

// Max returns the largest of values, or the zero value for an empty slice
func Max[T constraints.Ordered](values []T) (result T) {
	for i, v := range values {
		if i == 0 || v > result {
			result = v
		}
	}
	return result
}
