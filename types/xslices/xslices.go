// Package xslices provide missing functionality to the slices package.
package xslices

import (
	"golang.org/x/exp/constraints"
)

// Map executes the given function sequentially for every element on in, and returns a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// At returns the element at the given index. A negative index is taken from the end, so
// At(slice, -1) returns the last element.
func At[T any](slice []T, index int) T {
	if index < 0 {
		index = len(slice) + index
	}
	return slice[index]
}

// Last returns the last element of a slice.
func Last[T any](slice []T) T {
	return slice[len(slice)-1]
}

// Pop removes the last element of the slice and returns it along with the shortened slice.
func Pop[T any](slice []T) (T, []T) {
	last := Last(slice)
	return last, slice[:len(slice)-1]
}

// Reverse returns a reversed copy of the slice.
func Reverse[T any](slice []T) []T {
	out := make([]T, len(slice))
	for ii, e := range slice {
		out[len(slice)-1-ii] = e
	}
	return out
}

// Iota returns a slice of incremental int values, starting with start and of the given length.
func Iota[T constraints.Integer](start T, length int) (slice []T) {
	slice = make([]T, length)
	for ii := range slice {
		slice[ii] = start + T(ii)
	}
	return
}

// Fill returns a slice of the given length filled with the given value.
func Fill[T any](length int, value T) (slice []T) {
	slice = make([]T, length)
	for ii := range slice {
		slice[ii] = value
	}
	return
}

// Max scans the slice and returns the largest element. It panics on an empty slice.
func Max[T constraints.Ordered](slice []T) (max T) {
	max = slice[0]
	for _, e := range slice[1:] {
		if e > max {
			max = e
		}
	}
	return
}

// Product returns the product of all elements, 1 for an empty slice.
func Product[T constraints.Integer | constraints.Float](slice []T) (product T) {
	product = T(1)
	for _, e := range slice {
		product *= e
	}
	return
}
