// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice compliments the standard [slices] package with a generic Map.
*/
package slice

// Map maps a slice of type T to a slice of type U using the provided transformation function.
// The result is never nil, so it encodes as an empty JSON array.
func Map[T any, U any](input []T, transform func(T) U) []U {
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}
	return result
}
