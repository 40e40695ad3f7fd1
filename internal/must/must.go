// Package must panics on error, logging it first. Command-line tools use it
// where an error leaves nothing sensible to do.
package must

import (
	"k8s.io/klog/v2"
)

// M logs and panics if err is not nil.
func M(err error) {
	if err != nil {
		klog.Errorf("Must not error: %+v", err)
		panic(err)
	}
}

// M1 is M for functions returning one value and an error, forwarding the
// value.
func M1[T any](value T, err error) T {
	M(err)
	return value
}
